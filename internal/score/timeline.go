package score

import (
	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/rhythm"
)

// Slot is the collaborator-side state of one rhythm position.
type Slot struct {
	ID       string
	Lifetime Lifetime
}

// Child is one rhythm entry as the render pipeline sees it.
type Child struct {
	Duration rhythm.Duration
	Struck   bool
	Start    frac.Q
	Lifetime Lifetime
	SlotID   string
}

// Timeline is one voice in one measure.
type Timeline struct {
	bar    *rhythm.Bar
	slots  []Slot
	alloc  Allocator
	pickup bool
	beams  []int // beam ids held from the last Beams call
}

// TimelineOption configures a Timeline.
type TimelineOption func(*timelineConfig)

type timelineConfig struct {
	pickup  bool
	barOpts []rhythm.BarOption
}

// WithPickup marks the timeline as a pickup measure: its filler rests are
// Hidden instead of Automatic.
func WithPickup(pickup bool) TimelineOption {
	return func(c *timelineConfig) { c.pickup = pickup }
}

// WithBarOptions passes options through to the underlying rhythm.Bar.
func WithBarOptions(opts ...rhythm.BarOption) TimelineOption {
	return func(c *timelineConfig) { c.barOpts = append(c.barOpts, opts...) }
}

// NewTimeline creates a timeline holding a whole-bar rest. The rest takes
// one slot, so one id is allocated immediately.
func NewTimeline(m rhythm.Metre, alloc Allocator, opts ...TimelineOption) *Timeline {
	var cfg timelineConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	t := &Timeline{
		bar:    rhythm.NewBar(m, cfg.barOpts...),
		alloc:  alloc,
		pickup: cfg.pickup,
	}
	t.slots = []Slot{{ID: alloc.Allocate(), Lifetime: t.filler()}}
	return t
}

func (t *Timeline) filler() Lifetime {
	if t.pickup {
		return Hidden
	}
	return Automatic
}

// Metre returns the timeline's metre.
func (t *Timeline) Metre() rhythm.Metre { return t.bar.Metre() }

// Bar returns a copy of the underlying bar.
func (t *Timeline) Bar() *rhythm.Bar { return t.bar.Clone() }

// WholeRest reports whether the timeline holds only the whole-bar rest.
func (t *Timeline) WholeRest() bool { return t.bar.WholeRest() }

// Pickup reports whether the timeline is a pickup measure.
func (t *Timeline) Pickup() bool { return t.pickup }

// Tokens returns the rhythm in text notation, nil for a whole-bar rest.
func (t *Timeline) Tokens() []string { return tokensOf(t.bar) }

func tokensOf(b *rhythm.Bar) []string {
	rhythmEntries := b.Rhythm()
	if len(rhythmEntries) == 0 {
		return nil
	}
	out := make([]string, len(rhythmEntries))
	for i, e := range rhythmEntries {
		out[i] = e.String()
	}
	return out
}

// String renders the rhythm, "R" for a whole-bar rest.
func (t *Timeline) String() string { return t.bar.String() }

// Slots returns a copy of the slot list.
func (t *Timeline) Slots() []Slot {
	out := make([]Slot, len(t.slots))
	copy(out, t.slots)
	return out
}

// Splice applies an edit and reconciles slots. Struck entries written by
// this edit get lifetime; struck entries outside the edited range keep
// theirs; every rest becomes filler. On error nothing changes.
func (t *Timeline) Splice(start frac.Q, replacement []rhythm.Entry, lifetime Lifetime) error {
	p, err := t.Prepare(start, replacement, lifetime)
	if err != nil {
		return err
	}
	p.Commit()
	return nil
}

// Pending is a splice computed against a timeline but not yet applied.
// It is valid until the timeline next changes.
type Pending struct {
	tl       *Timeline
	bar      *rhythm.Bar // nil for an edit starting outside the bar
	start    frac.Q
	end      frac.Q
	lifetime Lifetime
	previous map[string]Lifetime
}

// Prepare runs the splice on a copy of the bar. The timeline and its
// allocator are untouched until Commit.
func (t *Timeline) Prepare(start frac.Q, replacement []rhythm.Entry, lifetime Lifetime) (*Pending, error) {
	p := &Pending{tl: t, start: start, lifetime: lifetime}
	end := t.bar.Metre().Duration()
	if !start.Less(end) || start.Sign() < 0 {
		return p, nil
	}

	p.previous = make(map[string]Lifetime)
	for _, c := range t.Children() {
		if c.Struck {
			p.previous[c.Start.String()] = c.Lifetime
		}
	}

	bar := t.bar.Clone()
	if err := bar.Splice(start, replacement); err != nil {
		return nil, err
	}
	p.bar = bar

	p.end = start
	for _, e := range replacement {
		p.end = p.end.Add(e.Duration.Duration())
	}
	return p, nil
}

// Timeline returns the timeline the splice was prepared against.
func (p *Pending) Timeline() *Timeline { return p.tl }

// Metre returns the metre of the timeline.
func (p *Pending) Metre() rhythm.Metre { return p.tl.Metre() }

// Tokens returns the rhythm the timeline will hold after Commit.
func (p *Pending) Tokens() []string {
	if p.bar == nil {
		return p.tl.Tokens()
	}
	return tokensOf(p.bar)
}

// Commit installs the prepared rhythm and reconciles slots.
func (p *Pending) Commit() {
	if p.bar == nil {
		return
	}
	p.tl.bar = p.bar
	p.tl.reconcile(p.start, p.end, p.lifetime, p.previous)
	p.bar = nil
}

func (t *Timeline) reconcile(start, editEnd frac.Q, lifetime Lifetime, previous map[string]Lifetime) {
	children := t.bar.Children()

	lifetimes := []Lifetime{t.filler()}
	if len(children) > 0 {
		lifetimes = make([]Lifetime, len(children))
		for i, c := range children {
			switch {
			case !c.Struck:
				lifetimes[i] = t.filler()
			case !c.Start.Less(start) && c.Start.Less(editEnd):
				lifetimes[i] = lifetime
			default:
				if l, ok := previous[c.Start.String()]; ok {
					lifetimes[i] = l
				} else {
					lifetimes[i] = Explicit
				}
			}
		}
	}

	for len(t.slots) < len(lifetimes) {
		t.slots = append(t.slots, Slot{ID: t.alloc.Allocate()})
	}
	for len(t.slots) > len(lifetimes) {
		last := len(t.slots) - 1
		t.alloc.Release(t.slots[last].ID)
		t.slots = t.slots[:last]
	}
	for i := range t.slots {
		t.slots[i].Lifetime = lifetimes[i]
	}
}

// Children returns one Child per slot. A whole-bar rest is a single child
// spanning the bar.
func (t *Timeline) Children() []Child {
	if t.bar.WholeRest() {
		return []Child{{
			Duration: rhythm.NewWholeRest(t.bar.Metre().Duration()),
			Start:    frac.Zero,
			Lifetime: t.slots[0].Lifetime,
			SlotID:   t.slots[0].ID,
		}}
	}
	bc := t.bar.Children()
	out := make([]Child, len(bc))
	for i, c := range bc {
		out[i] = Child{
			Duration: c.Duration,
			Struck:   c.Struck,
			Start:    c.Start,
			Lifetime: t.slots[i].Lifetime,
			SlotID:   t.slots[i].ID,
		}
	}
	return out
}

// Close releases every slot id and beam id the timeline holds.
func (t *Timeline) Close(pool *BeamPool) {
	for _, s := range t.slots {
		t.alloc.Release(s.ID)
	}
	t.slots = nil
	if pool != nil {
		for _, id := range t.beams {
			pool.Release(id)
		}
	}
	t.beams = nil
}
