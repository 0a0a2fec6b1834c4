// Package main provides the entry point for the partexpand CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sumatoshi-tech/partexpand/cmd/partexpand/commands"
	"github.com/Sumatoshi-tech/partexpand/pkg/version"
)

func main() {
	version.InitBinaryVersion()
	commands.IgnoreBrokenPipeSignal()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := commands.NewRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
