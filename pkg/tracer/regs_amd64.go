//go:build linux && amd64

package tracer

import "syscall"

// regs wraps the raw ptrace register snapshot for the x86-64 System V
// syscall convention: arguments land in RDI, RSI, RDX, R10, R8, R9 in
// order, the syscall number is preserved in Orig_rax across entry, and the
// return value (valid only at the matching exit stop) is in Rax.
type regs struct {
	raw syscall.PtraceRegs
}

func (r *regs) syscallNumber() uint64 {
	return r.raw.Orig_rax
}

func (r *regs) arg(index int) uint64 {
	switch index {
	case 0:
		return r.raw.Rdi
	case 1:
		return r.raw.Rsi
	case 2:
		return r.raw.Rdx
	case 3:
		return r.raw.R10
	case 4:
		return r.raw.R8
	case 5:
		return r.raw.R9
	default:
		return 0
	}
}

func (r *regs) args() [6]uint64 {
	return [6]uint64{
		r.raw.Rdi,
		r.raw.Rsi,
		r.raw.Rdx,
		r.raw.R10,
		r.raw.R8,
		r.raw.R9,
	}
}

func (r *regs) returnValue() int64 {
	return int64(r.raw.Rax)
}
