// Command structra runs the project's build tasks and launches the Example
// entry point once the build has finished.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/structra/assignment/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
