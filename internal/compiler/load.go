package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/barline/internal/ir"
)

// LoadScore loads a score definition from a .cue file or a directory of
// .cue files forming one package, compiles the top-level `score` field and
// validates it. Validation failures are returned joined into one error.
func LoadScore(path string) (*ir.ScoreSpec, error) {
	spec, err := CompileFile(path)
	if err != nil {
		return nil, err
	}
	if err := Errors(Validate(*spec)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// CompileFile loads and compiles without validating. Used by the validate
// command so it can report every validation error itself.
func CompileFile(path string) (*ir.ScoreSpec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("score definition: %w", err)
	}

	cfg := &load.Config{}
	args := []string{"."}
	if info.IsDir() {
		cfg.Dir = path
	} else {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("%s: no CUE instances loaded", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	return CompileScore(value.LookupPath(cue.ParsePath("score")))
}
