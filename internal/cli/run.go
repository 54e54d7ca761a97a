package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	LogOptions
}

// RunSummary is what run prints when its input ends.
type RunSummary struct {
	Applied  int          `json:"applied"`
	Rejected int          `json:"rejected"`
	Invalid  int          `json:"invalid"`
	LastSeq  int64        `json:"last_seq"`
	Edits    []EditResult `json:"edits"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stream edits from stdin through the engine",
		Long: `Start the single-writer engine on a log and apply edits read from
standard input, one per line:

  <voice> <measure> <at> <token>...

Blank lines and lines starting with # are skipped. Each edit is logged and
its result printed as it completes. The command stops at end of input or
on Ctrl-C.

Example:
  printf 'upper 0 1/4 n4\nupper 0 1/2 n8 n8\n' | barline run --db score.db --score score.cue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	addLogFlags(cmd, &opts.LogOptions)

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	eng, st, err := opts.openEngine(ctx)
	if err != nil {
		return f.Fail(ErrCodeLoadFailed, err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	summary := RunSummary{Edits: []EditResult{}}
	w := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		edit, err := parseEditLine(line)
		if err != nil {
			summary.Invalid++
			fmt.Fprintf(f.GetErrWriter(), "line %d: %v\n", lineNo, err)
			continue
		}

		res, err := eng.Submit(ctx, edit)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			eng.Stop()
			<-done
			return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, fmt.Sprintf("line %d", lineNo), err))
		}

		out := editResult(res)
		summary.Edits = append(summary.Edits, out)
		summary.LastSeq = out.Seq
		if res.Applied() {
			summary.Applied++
		} else {
			summary.Rejected++
		}
		if !f.JSON() {
			if res.Applied() {
				fmt.Fprintf(w, "✓ seq %d %s/%d | %s |\n", out.Seq, out.Voice, out.Measure, out.Rhythm)
			} else {
				fmt.Fprintf(w, "✗ seq %d %s/%d rejected [%s]\n", out.Seq, out.Voice, out.Measure, out.Code)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		eng.Stop()
		<-done
		return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to read input", err))
	}

	eng.Stop()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return f.Fail(ErrCodeGeneric, WrapExitError(ExitFailure, "engine error", err))
	}

	if f.JSON() {
		return f.Success(summary)
	}
	fmt.Fprintf(w, "\n%d applied, %d rejected, %d invalid line(s)\n", summary.Applied, summary.Rejected, summary.Invalid)
	return nil
}
