// Command westrun runs WESTPA analysis tools against a simulation directory
// and reads its HDF5 result files.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/westrun/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	opts := &cli.RootOptions{}
	err := cli.NewRootCommandWith(opts).ExecuteContext(ctx)
	stop()
	if err != nil {
		out := &cli.OutputFormatter{Format: opts.Format, Writer: os.Stdout, ErrWriter: os.Stderr}
		_ = out.Error(err)
		os.Exit(cli.GetExitCode(err))
	}
}
