// Command absc compiles ABS deal descriptions into engine IR.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/absbox/absc/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	// Commands report their own errors; only the exit code is left.
	os.Exit(cli.GetExitCode(err))
}
