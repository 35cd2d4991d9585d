package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scorectl",
		Short:         "Score agricultural credit applicants offline",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().String("format", "json", "Output format: json or yaml")
	root.PersistentFlags().String("log-level", "warn", "Log level for diagnostics on stderr")

	root.AddCommand(newScoreCmd(), newModelCmd())
	return root
}

// exitErr carries a process exit code through cobra.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

const (
	exitInvalidInput = 2
	exitReadFailure  = 3
)
