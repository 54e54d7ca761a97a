package rhythm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/barline/internal/frac"
)

// Text notation for entries, used by the CLI, scenario files and golden
// snapshots:
//
//	n4      quarter note
//	r2.     dotted half rest
//	n8@3/2  triplet eighth note
//	r[5/16] non-printable rest with display length 5/16
//
// Values are maxima, longa, breve, 1, 2, 4 ... 256.

var (
	valueToken = regexp.MustCompile(`^([nr])(maxima|longa|breve|[0-9]+)(\.*)(?:@([0-9]+(?:/[0-9]+)?))?$`)
	exactToken = regexp.MustCompile(`^([nr])\[([0-9]+(?:/[0-9]+)?)\](?:@([0-9]+(?:/[0-9]+)?))?$`)
)

// String renders e in text notation.
func (e Entry) String() string {
	if e.Duration.WholeRest() {
		return "R"
	}
	kind := "r"
	if e.Struck {
		kind = "n"
	}
	return kind + e.Duration.String()
}

// String renders d without the note/rest prefix: "4.", "8@3/2", "[5/16]".
func (d Duration) String() string {
	var b strings.Builder
	base, okBase := d.DisplayBase()
	dots, okDots := d.DisplayDots()
	switch {
	case d.wholeRest:
		b.WriteString("R")
	case okBase && okDots:
		b.WriteString(base.String())
		b.WriteString(strings.Repeat(".", dots))
	default:
		b.WriteString("[" + d.display.String() + "]")
	}
	if t := d.Tuplet(); !t.Equal(frac.One) {
		b.WriteString("@" + t.String())
	}
	return b.String()
}

// ParseEntry parses one token of text notation.
func ParseEntry(s string) (Entry, error) {
	s = strings.TrimSpace(s)
	if m := valueToken.FindStringSubmatch(s); m != nil {
		base, err := parseNoteValue(m[2])
		if err != nil {
			return Entry{}, fmt.Errorf("parse %q: %w", s, err)
		}
		tuplet, err := parseTuplet(m[4])
		if err != nil {
			return Entry{}, fmt.Errorf("parse %q: %w", s, err)
		}
		d, err := NewDuration(base, len(m[3]), tuplet)
		if err != nil {
			return Entry{}, fmt.Errorf("parse %q: %w", s, err)
		}
		return Entry{Duration: d, Struck: m[1] == "n"}, nil
	}
	if m := exactToken.FindStringSubmatch(s); m != nil {
		display, err := frac.Parse(m[2])
		if err != nil || !display.Positive() {
			return Entry{}, fmt.Errorf("parse %q: display length must be a positive fraction", s)
		}
		tuplet, err := parseTuplet(m[3])
		if err != nil {
			return Entry{}, fmt.Errorf("parse %q: %w", s, err)
		}
		return Entry{Duration: Exact(display, tuplet), Struck: m[1] == "n"}, nil
	}
	return Entry{}, fmt.Errorf("parse %q: not a note or rest token", s)
}

// ParseEntries parses a whitespace-separated list of tokens.
func ParseEntries(s string) ([]Entry, error) {
	fields := strings.Fields(s)
	out := make([]Entry, 0, len(fields))
	for _, f := range fields {
		e, err := ParseEntry(f)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// FormatEntries renders entries as whitespace-separated tokens.
func FormatEntries(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

func parseNoteValue(s string) (NoteValue, error) {
	switch s {
	case "maxima":
		return Maxima, nil
	case "longa":
		return Longa, nil
	case "breve":
		return Breve, nil
	}
	for _, v := range NoteValues {
		if v <= Whole && v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown note value %q", s)
}

func parseTuplet(s string) (frac.Q, error) {
	if s == "" {
		return frac.One, nil
	}
	t, err := frac.Parse(s)
	if err != nil {
		return frac.Zero, err
	}
	if !t.Positive() {
		return frac.Zero, fmt.Errorf("tuplet ratio must be positive")
	}
	return t, nil
}
