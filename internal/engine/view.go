package engine

import (
	"fmt"

	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/score"
)

// BarState is a read-only view of one timeline.
type BarState struct {
	Voice    string
	Measure  int
	Metre    string
	Rhythm   []string // empty for a whole-bar rest
	BarHash  string
	Children []score.Child
	Beams    []score.BeamGroup
}

// Bar returns the current state of one timeline.
func (e *Engine) Bar(voice string, measure int) (BarState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return barState(e.score, voice, measure)
}

// Bars returns every timeline, voices in declaration order, measures in order.
func (e *Engine) Bars() ([]BarState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []BarState
	for _, v := range e.score.Voices() {
		for m := 0; m < e.score.Measures(); m++ {
			bs, err := barState(e.score, v, m)
			if err != nil {
				return nil, err
			}
			out = append(out, bs)
		}
	}
	return out, nil
}

// View runs fn with exclusive access to the score. fn must not retain it.
func (e *Engine) View(fn func(*score.Score)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.score)
}

func barState(sc *score.Score, voice string, measure int) (BarState, error) {
	tl, err := sc.Timeline(voice, measure)
	if err != nil {
		return BarState{}, err
	}
	tokens := tl.Tokens()
	if tokens == nil {
		tokens = []string{}
	}
	hash, err := ir.BarHash(tl.Metre().String(), tokens)
	if err != nil {
		return BarState{}, fmt.Errorf("bar %s/%d: %w", voice, measure, err)
	}
	return BarState{
		Voice:    voice,
		Measure:  measure,
		Metre:    tl.Metre().String(),
		Rhythm:   tokens,
		BarHash:  hash,
		Children: tl.Children(),
		Beams:    tl.Beams(sc.BeamPool()),
	}, nil
}
