package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room to change the encoding without colliding with old hashes.
const (
	DomainEdit  = "barline/edit/v1"
	DomainBar   = "barline/bar/v1"
	DomainScore = "barline/score/v1"
)

// hashWithDomain returns hex(SHA256(domain + 0x00 + data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func editObject(e Edit) Object {
	lifetime := e.Lifetime
	if lifetime == "" {
		lifetime = "explicit"
	}
	return Object{
		"voice":       String(e.Voice),
		"measure":     Int(e.Measure),
		"start":       Frac(e.Start),
		"replacement": Strings(e.Replacement),
		"lifetime":    String(lifetime),
	}
}

// EditID computes the content-addressed id of an edit at a given seq.
// The same edit submitted twice gets two ids because seq differs.
func EditID(e Edit, seq int64) (string, error) {
	obj := editObject(e)
	obj["seq"] = Int(seq)
	data, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EditID: %w", err)
	}
	return hashWithDomain(DomainEdit, data), nil
}

// BarHash identifies the rhythm of one bar. metre is the metre's String
// form; rhythm is the token list, empty for a whole-bar rest.
func BarHash(metre string, rhythm []string) (string, error) {
	if rhythm == nil {
		rhythm = []string{}
	}
	data, err := MarshalCanonical(Object{
		"metre":  String(metre),
		"rhythm": Strings(rhythm),
	})
	if err != nil {
		return "", fmt.Errorf("BarHash: %w", err)
	}
	return hashWithDomain(DomainBar, data), nil
}

// ScoreHash identifies a compiled score definition. Replays refuse to run
// against a different definition.
func ScoreHash(spec ScoreSpec) (string, error) {
	measures := make(Array, len(spec.Measures))
	for i, m := range spec.Measures {
		segs := make(Array, len(m.Segments))
		for j, s := range m.Segments {
			segs[j] = Object{
				"duration":     Frac(s.Duration),
				"subdivisions": Int(s.Subdivisions),
				"role":         String(s.Role),
			}
		}
		measures[i] = Object{
			"num":      Int(m.Num),
			"den":      Int(m.Den),
			"segments": segs,
			"pickup":   Bool(m.Pickup),
		}
	}
	voices := make(Array, len(spec.Voices))
	for i, v := range spec.Voices {
		voices[i] = String(v.Name)
	}

	data, err := MarshalCanonical(Object{
		"title":    String(spec.Title),
		"measures": measures,
		"voices":   voices,
	})
	if err != nil {
		return "", fmt.Errorf("ScoreHash: %w", err)
	}
	return hashWithDomain(DomainScore, data), nil
}

// MustBarHash is like BarHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBarHash(metre string, rhythm []string) string {
	h, err := BarHash(metre, rhythm)
	if err != nil {
		panic(err)
	}
	return h
}
