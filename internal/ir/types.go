package ir

import "github.com/roach88/barline/internal/frac"

// ScoreSpec is a compiled score definition: an ordered list of measures
// shared by every voice.
type ScoreSpec struct {
	Title    string        `json:"title"`
	Measures []MeasureSpec `json:"measures"`
	Voices   []VoiceSpec   `json:"voices"`
}

// MeasureSpec describes the metre of one measure. When Segments is set the
// measure uses that custom grouping and Num/Den only label it.
type MeasureSpec struct {
	Num      int           `json:"num"`
	Den      int           `json:"den"`
	Segments []SegmentSpec `json:"segments,omitempty"`
	Pickup   bool          `json:"pickup,omitempty"`
}

// SegmentSpec is one custom metre segment.
type SegmentSpec struct {
	Duration     frac.Q `json:"duration"`
	Subdivisions int    `json:"subdivisions"`
	Role         string `json:"role"` // "duple", "triple" or "quadruple"
}

// VoiceSpec names a voice. Every voice has one timeline per measure.
type VoiceSpec struct {
	Name string `json:"name"`
}

// Edit is one user action against a single timeline.
type Edit struct {
	Voice       string   `json:"voice"`
	Measure     int      `json:"measure"` // 0-based
	Start       frac.Q   `json:"start"`
	Replacement []string `json:"replacement"` // text-notation tokens
	Lifetime    string   `json:"lifetime"`    // "explicit" when empty
}

// EditStatus records whether an edit changed the score.
type EditStatus string

const (
	EditApplied  EditStatus = "applied"
	EditRejected EditStatus = "rejected"
)

// EditRecord is a persisted edit.
type EditRecord struct {
	ID        string     `json:"id"` // content-addressed, see EditID
	Seq       int64      `json:"seq"`
	Edit      Edit       `json:"edit"`
	Status    EditStatus `json:"status"`
	ErrorCode string     `json:"error_code,omitempty"`
}

// Snapshot is the state of the edited timeline after an applied edit.
type Snapshot struct {
	EditID  string   `json:"edit_id"`
	Seq     int64    `json:"seq"`
	Voice   string   `json:"voice"`
	Measure int      `json:"measure"`
	BarHash string   `json:"bar_hash"`
	Rhythm  []string `json:"rhythm"` // empty for a whole-bar rest
}
