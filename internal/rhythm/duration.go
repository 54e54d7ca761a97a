package rhythm

import (
	"github.com/roach88/barline/internal/frac"
)

// MaxDots is the largest number of augmentation dots a Duration may carry.
const MaxDots = 4

// NoteValue is a base note value, keyed by log2 of its length in whole notes.
type NoteValue int

const (
	TwoFiftySixth   NoteValue = -8
	OneTwentyEighth NoteValue = -7
	SixtyFourth     NoteValue = -6
	ThirtySecond    NoteValue = -5
	Sixteenth       NoteValue = -4
	Eighth          NoteValue = -3
	Quarter         NoteValue = -2
	Half            NoteValue = -1
	Whole           NoteValue = 0
	Breve           NoteValue = 1
	Longa           NoteValue = 2
	Maxima          NoteValue = 3
)

// NoteValues lists every base value from longest to shortest.
var NoteValues = []NoteValue{
	Maxima, Longa, Breve, Whole, Half, Quarter, Eighth,
	Sixteenth, ThirtySecond, SixtyFourth, OneTwentyEighth, TwoFiftySixth,
}

// Valid reports whether v is one of the twelve base values.
func (v NoteValue) Valid() bool {
	return v >= TwoFiftySixth && v <= Maxima
}

// Log2 returns log2 of the value's length in whole notes.
func (v NoteValue) Log2() int { return int(v) }

// Length returns the value's length in whole notes.
func (v NoteValue) Length() frac.Q {
	if v >= 0 {
		return frac.Int(int64(1) << uint(v))
	}
	return frac.New(1, int64(1)<<uint(-v))
}

// Flags returns the number of flags (equivalently beams) the value carries.
// Quarter and longer values carry none.
func (v NoteValue) Flags() int {
	if v > Eighth {
		return 0
	}
	return int(Eighth-v) + 1
}

// String returns the notation token for the value: "maxima", "longa",
// "breve", or the note-value denominator ("1", "2", "4", ... "256").
func (v NoteValue) String() string {
	switch v {
	case Maxima:
		return "maxima"
	case Longa:
		return "longa"
	case Breve:
		return "breve"
	}
	if !v.Valid() {
		return "invalid"
	}
	return frac.Int(int64(1) << uint(-v)).String()
}

// NoteValueFromLog2 returns the value with the given log2 length.
func NoteValueFromLog2(l int) (NoteValue, bool) {
	v := NoteValue(l)
	return v, v.Valid()
}

// Duration is the displayable length of one note or rest.
//
// Display is the notated length before tuplet scaling and Tuplet the ratio
// between notated and played length (3/2 for a triplet). A whole-rest
// Duration is the sentinel for a silent whole bar of the given length and is
// exempt from printability.
//
// Duration is immutable.
type Duration struct {
	display   frac.Q
	tuplet    frac.Q
	wholeRest bool
}

// NewDuration builds a Duration from a base value, a dot count and a tuplet
// ratio. A zero tuplet means 1.
func NewDuration(base NoteValue, dots int, tuplet frac.Q) (Duration, error) {
	if dots > MaxDots || dots < 0 {
		return Duration{}, newTooManyDotsError(dots)
	}
	add := base.Length()
	display := frac.Zero
	for i := 0; i <= dots; i++ {
		display = display.Add(add)
		add = add.DivInt(2)
	}
	return Exact(display, tuplet), nil
}

// MustDuration is like NewDuration but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDuration(base NoteValue, dots int, tuplet frac.Q) Duration {
	d, err := NewDuration(base, dots, tuplet)
	if err != nil {
		panic(err)
	}
	return d
}

// Plain returns an undotted, untupled Duration of the given base value.
func Plain(base NoteValue) Duration {
	return MustDuration(base, 0, frac.One)
}

// Exact builds a Duration directly from a display length. The result may be
// non-printable; callers must check Printable before treating it as final.
func Exact(display, tuplet frac.Q) Duration {
	if !tuplet.Positive() {
		tuplet = frac.One
	}
	return Duration{display: display, tuplet: tuplet}
}

// FromReal builds a Duration whose played length is real under the given tuplet.
func FromReal(real, tuplet frac.Q) Duration {
	if !tuplet.Positive() {
		tuplet = frac.One
	}
	return Duration{display: real.Mul(tuplet), tuplet: tuplet}
}

// NewWholeRest creates the whole-bar rest sentinel for a bar of the given length.
func NewWholeRest(display frac.Q) Duration {
	return Duration{display: display, tuplet: frac.One, wholeRest: true}
}

// Duration returns the real (played) length: display / tuplet.
func (d Duration) Duration() frac.Q {
	return d.display.Div(d.Tuplet())
}

// DisplayDuration returns the notated length before tuplet scaling.
func (d Duration) DisplayDuration() frac.Q { return d.display }

// Tuplet returns the tuplet ratio (1 for none).
func (d Duration) Tuplet() frac.Q {
	if !d.tuplet.Positive() {
		return frac.One
	}
	return d.tuplet
}

// WholeRest reports whether d is the whole-bar rest sentinel.
func (d Duration) WholeRest() bool { return d.wholeRest }

// DisplayBase returns the base note value of the notated length: the
// longest value not exceeding it. Whole-bar rests are always Whole.
func (d Duration) DisplayBase() (NoteValue, bool) {
	if d.wholeRest {
		return Whole, true
	}
	if !d.display.Positive() {
		return 0, false
	}
	for _, v := range NoteValues {
		if v.Length().LessEq(d.display) {
			// A value more than twice as short as display cannot be its base:
			// the display would need more than a doubled length.
			if d.display.Less(v.Length().MulInt(2)) {
				return v, true
			}
			return 0, false
		}
	}
	return 0, false
}

// DisplayDots returns the dot count n in 0..MaxDots such that
// base*(2 - 2^-n) equals the display length exactly.
func (d Duration) DisplayDots() (int, bool) {
	if d.wholeRest {
		return 0, true
	}
	base, ok := d.DisplayBase()
	if !ok {
		return 0, false
	}
	sum := frac.Zero
	add := base.Length()
	for dots := 0; dots <= MaxDots; dots++ {
		sum = sum.Add(add)
		switch sum.Cmp(d.display) {
		case 0:
			return dots, true
		case 1:
			return 0, false
		}
		add = add.DivInt(2)
	}
	return 0, false
}

// Printable reports whether d is expressible as a base value plus at most
// MaxDots dots (or is a whole-bar rest).
func (d Duration) Printable() bool {
	if d.wholeRest {
		return true
	}
	_, ok := d.DisplayDots()
	return ok
}

// Equal reports structural equality.
func (d Duration) Equal(o Duration) bool {
	return d.wholeRest == o.wholeRest && d.display.Equal(o.display) && d.Tuplet().Equal(o.Tuplet())
}

// Compare is a total order over Durations: longer real length first, then
// plain tuplets before others, then display, then whole-rest flag.
func (d Duration) Compare(o Duration) int {
	if c := o.Duration().Cmp(d.Duration()); c != 0 {
		return c
	}
	if c := d.Tuplet().Cmp(o.Tuplet()); c != 0 {
		return c
	}
	if c := d.display.Cmp(o.display); c != 0 {
		return c
	}
	switch {
	case d.wholeRest == o.wholeRest:
		return 0
	case d.wholeRest:
		return 1
	default:
		return -1
	}
}
