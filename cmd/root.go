// Package cmd implements the sandbox command line: parsing a policy
// configuration and a target program invocation, then driving the tracer
// to completion and mirroring its exit status.
package cmd

import (
	"fmt"
	"os"
	"runtime"

	"ptraced/pkg/policy"
	"ptraced/pkg/tracer"

	"github.com/spf13/cobra"
)

var (
	logPath string
	quiet   bool
)

// RootCmd is the sandbox entry point:
//
//	sandbox [CONFIG] -- PROGRAM [ARG...]
//
// CONFIG is an optional path to a JSON policy file; everything after "--"
// is the program to launch and its arguments. With no CONFIG argument the
// sandbox runs with the default, all-denying policy.
var RootCmd = &cobra.Command{
	Use:                   "sandbox [CONFIG] -- PROGRAM [ARG...]",
	Short:                 "Run a program under a ptrace-enforced filesystem and capability policy",
	DisableFlagsInUseLine: true,
	Args:                  cobra.ArbitraryArgs,
	SilenceUsage:          true,
	SilenceErrors:         true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dashAt := cmd.ArgsLenAtDash()
		if dashAt < 0 {
			return fmt.Errorf("missing \"--\" separator: usage is %q", cmd.Use)
		}

		configArgs, programArgs := args[:dashAt], args[dashAt:]
		if len(configArgs) > 1 {
			return fmt.Errorf("at most one CONFIG argument is accepted, got %d", len(configArgs))
		}
		if len(programArgs) == 0 {
			return fmt.Errorf("no program given after \"--\"")
		}

		pol, err := loadPolicy(configArgs)
		if err != nil {
			return err
		}

		authority, err := policy.NewAuthority(pol)
		if err != nil {
			return fmt.Errorf("resolving sandbox working directory: %w", err)
		}

		logger, closeLogger, err := buildLogger()
		if err != nil {
			return err
		}
		if closeLogger != nil {
			defer closeLogger()
		}

		code, err := runSandbox(pol, authority, logger, programArgs[0], programArgs[1:])
		if err != nil {
			return err
		}
		os.Exit(code)
		return nil
	},
}

func loadPolicy(configArgs []string) (policy.Policy, error) {
	if len(configArgs) == 0 {
		return policy.Default(), nil
	}
	pol, err := policy.LoadConfig(configArgs[0])
	if err != nil {
		return policy.Policy{}, fmt.Errorf("loading policy: %w", err)
	}
	return pol, nil
}

func buildLogger() (tracer.Logger, func(), error) {
	if quiet {
		return nil, nil, nil
	}
	if logPath == "" {
		return tracer.NewStreamLogger(os.Stderr), nil, nil
	}
	fl, err := tracer.NewFileLogger(logPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening trace log %q: %w", logPath, err)
	}
	return fl, func() { fl.Close() }, nil
}

// runSandbox launches program under ptrace and drives it to completion,
// returning the process exit code the shell should see. Launch and Run
// must execute on the same locked OS thread, since ptrace state is
// per-thread.
func runSandbox(pol policy.Policy, authority *policy.Authority, logger tracer.Logger, program string, args []string) (int, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	_, pid, err := tracer.Launch(program, args)
	if err != nil {
		return 0, fmt.Errorf("launching %q: %w", program, err)
	}

	loop := tracer.NewLoop(pol, authority, logger)
	result, err := loop.Run(pid)
	if err != nil {
		return 0, fmt.Errorf("tracing %q: %w", program, err)
	}

	return result.ExitCode, nil
}

// Execute runs the root command, mapping any returned error to a usage
// failure (exit 1). A successful run exits through RootCmd's os.Exit
// with the tracee's own status instead of returning here.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.Flags().StringVar(&logPath, "log", "", "Write trace and policy decision lines to this file instead of stderr")
	RootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress trace and policy decision logging")
}
