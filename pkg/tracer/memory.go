package tracer

import "syscall"

// maxCStringLen bounds the read_cstring loop so a corrupt or adversarial
// pointer can't spin the tracer forever; it's well above any path the
// dispatcher's policy checks care about (PATH_MAX is 4096 on Linux).
const maxCStringLen = 1 << 16

// peekFunc reads len(buf) bytes from a tracee's address space starting at
// addr, the same shape as syscall.PtracePeekData. Factored out so the
// NUL-scanning loop below can be exercised without a real tracee.
type peekFunc func(addr uintptr, buf []byte) (int, error)

// readCString reads a NUL-terminated C string from the tracee's address
// space at addr, one machine word at a time via PTRACE_PEEKDATA. It
// returns an error if the peek primitive fails — most likely a bad
// pointer pulled from registers, or the tracee racily unmapped the page.
// That error is surfaced to the caller rather than aborting the tracer:
// the dispatcher treats an unreadable string as empty, which fails every
// allow-list and is therefore denied rather than crashing the control
// loop.
func readCString(pid int, addr uint64) (string, error) {
	return readCStringWith(func(a uintptr, buf []byte) (int, error) {
		return syscall.PtracePeekData(pid, a, buf)
	}, addr)
}

func readCStringWith(peek peekFunc, addr uint64) (string, error) {
	if addr == 0 {
		return "", nil
	}

	var result []byte
	word := make([]byte, wordSize)

	for uint64(len(result)) < maxCStringLen {
		n, err := peek(uintptr(addr), word)
		if err != nil {
			return "", err
		}
		if n != len(word) {
			// Short read at the end of a mapping; whatever we got is all
			// there is, and none of it was a NUL, so the string is
			// unterminated — no well-formed C string ends here.
			return "", errShortPeek
		}

		for _, b := range word {
			if b == 0 {
				return string(result), nil
			}
			result = append(result, b)
		}
		addr += uint64(wordSize)
	}

	return "", errStringTooLong
}

const wordSize = 8

var (
	errShortPeek     = peekError("short peek reading tracee memory")
	errStringTooLong = peekError("string exceeds maximum read length")
)

type peekError string

func (e peekError) Error() string { return string(e) }
