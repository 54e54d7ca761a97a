// Command barline edits, replays and renders rhythmic notation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/cli"
)

func main() {
	opts := &cli.RootOptions{}
	root := cli.NewRootCommandWithOptions(opts)

	cobra.OnInitialize(func() {
		level := slog.LevelWarn
		if opts.Verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
