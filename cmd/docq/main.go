package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacoelho/docq/internal/exit"
)

func main() {
	exitCode := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCommand(streams{in: stdin, out: stdout, err: stderr})
	cmd.SetArgs(args)

	exitResult := exit.FromError(cmd.ExecuteContext(ctx))
	if exitResult.ExitCode != exit.CodeSuccess {
		exitResult.Output = stderr
	}
	exitResult.Print()
	return exitResult.ExitCode
}
