package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
)

// marshalTokens stores a token list as canonical JSON TEXT.
func marshalTokens(tokens []string) (string, error) {
	if tokens == nil {
		tokens = []string{}
	}
	data, err := ir.MarshalCanonical(ir.Strings(tokens))
	if err != nil {
		return "", fmt.Errorf("marshal tokens: %w", err)
	}
	return string(data), nil
}

func unmarshalTokens(data string) ([]string, error) {
	tokens := []string{}
	if data == "" || data == "[]" {
		return tokens, nil
	}
	if err := json.Unmarshal([]byte(data), &tokens); err != nil {
		return nil, fmt.Errorf("unmarshal tokens: %w", err)
	}
	return tokens, nil
}

func unmarshalStart(data string) (frac.Q, error) {
	q, err := frac.Parse(data)
	if err != nil {
		return frac.Zero, fmt.Errorf("unmarshal start %q: %w", data, err)
	}
	return q, nil
}
