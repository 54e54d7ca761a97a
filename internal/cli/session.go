package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/compiler"
	"github.com/roach88/barline/internal/engine"
	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/score"
	"github.com/roach88/barline/internal/store"
)

// LogOptions are the flags shared by commands that work on an edit log.
type LogOptions struct {
	Database    string
	Score       string
	SearchQuota int
}

// loadScore compiles and validates a score definition, mapping failures to
// command errors.
func loadScore(path string) (*ir.ScoreSpec, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "score definition not found", err)
	}
	spec, err := compiler.LoadScore(path)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "invalid score definition", err)
	}
	return spec, nil
}

func (o *LogOptions) engineOptions() []engine.Option {
	var opts []engine.Option
	if o.SearchQuota > 0 {
		opts = append(opts, engine.WithSearchQuota(o.SearchQuota))
	}
	return opts
}

// openEngine loads the score, opens the log and starts an engine on it.
// The caller closes the returned store.
func (o *LogOptions) openEngine(ctx context.Context) (*engine.Engine, *store.Store, error) {
	spec, err := loadScore(o.Score)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	eng, err := engine.New(ctx, st, *spec, o.engineOptions()...)
	if err != nil {
		st.Close()
		return nil, nil, engineError(err)
	}
	return eng, st, nil
}

// engineError maps engine startup and replay errors to exit codes.
func engineError(err error) error {
	switch {
	case engine.IsScoreMismatch(err):
		return WrapExitError(ExitCommandError, "log belongs to a different score", err)
	case engine.IsDivergence(err):
		return WrapExitError(ExitFailure, "log does not replay", err)
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return WrapExitError(ExitFailure, "log is corrupt", err)
	}
	return WrapExitError(ExitCommandError, "failed to start engine", err)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// EditFlags are the flags describing one edit.
type EditFlags struct {
	Voice    string
	Measure  int
	At       string
	Lifetime string
}

func (f *EditFlags) edit(defaultVoice string, tokens []string) (ir.Edit, error) {
	voice := f.Voice
	if voice == "" {
		voice = defaultVoice
	}
	start, err := frac.Parse(f.At)
	if err != nil {
		return ir.Edit{}, fmt.Errorf("--at: %w", err)
	}
	if _, err := score.ParseLifetime(f.Lifetime); err != nil {
		return ir.Edit{}, fmt.Errorf("--lifetime: %w", err)
	}
	return ir.Edit{
		Voice:       voice,
		Measure:     f.Measure,
		Start:       start,
		Replacement: splitTokens(tokens),
		Lifetime:    f.Lifetime,
	}, nil
}

// splitTokens accepts tokens as separate arguments or as one quoted string.
func splitTokens(args []string) []string {
	return strings.Fields(strings.Join(args, " "))
}

// parseEditLine parses "<voice> <measure> <at> <token>..." as read by run.
func parseEditLine(line string) (ir.Edit, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return ir.Edit{}, fmt.Errorf("want \"<voice> <measure> <at> <token>...\", got %q", line)
	}
	measure, err := strconv.Atoi(fields[1])
	if err != nil {
		return ir.Edit{}, fmt.Errorf("measure: %w", err)
	}
	start, err := frac.Parse(fields[2])
	if err != nil {
		return ir.Edit{}, fmt.Errorf("at: %w", err)
	}
	return ir.Edit{
		Voice:       fields[0],
		Measure:     measure,
		Start:       start,
		Replacement: fields[3:],
	}, nil
}

func firstVoice(spec ir.ScoreSpec) string {
	if len(spec.Voices) == 0 {
		return ""
	}
	return spec.Voices[0].Name
}

func rhythmText(tokens []string) string {
	if len(tokens) == 0 {
		return "R"
	}
	return strings.Join(tokens, " ")
}
