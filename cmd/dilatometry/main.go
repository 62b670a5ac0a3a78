// Command dilatometry processes electrochemical dilatometry exports: it
// normalizes the displacement signal, removes the baseline drift, averages
// the interior cycles and writes the results as workbooks or CSV files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/tsmathis/Dilatometry-Analyst/internal/batch"
	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and maps the outcome to an exit status
func execute(ctx context.Context, args []string, fsys afero.Fs, stdout, stderr io.Writer) int {
	root := newRootCommand(fsys, stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	reportError(stderr, err)
	return exitCode(err)
}

// Exit statuses
const (
	exitFailure = 1
	exitUsage   = 2
)

func exitCode(err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		return exitUsage
	}
	return exitFailure
}

func reportError(w io.Writer, err error) {
	var failures *batch.FailureList
	if errors.As(err, &failures) {
		for _, fe := range failures.Errors {
			reportError(w, fe)
		}
		return
	}

	fmt.Fprintf(w, "error: %v\n", err)
	var pe *apperrors.PipelineError
	if errors.As(err, &pe) && pe.Column != "" {
		fmt.Fprintf(w, "  column: %s\n", pe.Column)
	}
}

// usageError marks bad command line input
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
