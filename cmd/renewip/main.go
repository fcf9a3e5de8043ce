package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(execute(os.Stdin, os.Stdout, os.Args[1:]))
}

// execute runs the command line and converts whatever happened into an exit code.
// It never lets a panic or an unexpected error escape as a stack trace.
func execute(stdin io.Reader, stdout io.Writer, args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stdout, "\n\nAn error occurred.\n%v\n", r)
			code = exitError
		}
	}()

	if err := loadDotenv(".env"); err != nil {
		fmt.Fprintf(stdout, "\n\nAn error occurred.\n%s\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(os.Stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	var ec exitCode
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stdout, "\n\nKeyboard interrupted.")
		return exitInterrupted
	case errors.As(err, &ec):
		return int(ec)
	default:
		fmt.Fprintf(stdout, "\n\nAn error occurred.\n%s\n", err)
		return exitError
	}
}

// loadDotenv exports the variables in path that are not already set.
// A missing file is the normal case and not an error.
func loadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}
