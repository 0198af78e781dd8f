package replay

import (
	"fmt"
	"strings"
)

// Kind discriminates regular instructions from the terminal marker.
type Kind int

const (
	// KindInstruction is a regular action applied to the logic engine.
	KindInstruction Kind = iota
	// KindGameEnd marks the terminal record of a replay; its tick is the
	// session's total tick count and it is never applied during a seek.
	KindGameEnd
)

func (k Kind) String() string {
	switch k {
	case KindGameEnd:
		return "gameEnd"
	default:
		return "instruction"
	}
}

// Action names with platform-level meaning. NameGameEnd appears in
// replay files; the underscore-prefixed names are live directives routed
// by the Manager rather than applied to the logic engine.
const (
	NameGameEnd     = "gameEnd"
	NamePause       = "_pause"
	NameSetTime     = "_set_time"
	NameEnd         = "_end"
	NameQueryRounds = "_query_rounds"
)

// Action is the boundary to externally defined instructions. An Action
// is immutable once loaded except for its dispatch timestamp, which is
// assigned exactly once when the Player applies it.
type Action interface {
	// Name is the action discriminator ("gameEnd", "_pause", ...).
	Name() string
	// Kind reports whether this is a regular instruction or the terminal marker.
	Kind() Kind
	// Timestamp is the assigned dispatch tick.
	Timestamp() int64
	// SetTimestamp records the tick at which the action was dispatched.
	SetTimestamp(tick int64)
	// Apply executes the action against the logic engine.
	Apply(e Engine) error
	// String is the human-loggable representation.
	String() string
}

// RecordAction is an Action decoded from one replay-file line. The raw
// line is kept verbatim so the engine receives exactly what was recorded.
type RecordAction struct {
	raw  string
	name string
	kind Kind
	tick int64
}

// NewRecordAction wraps a raw replay line.
func NewRecordAction(raw, name string, kind Kind) *RecordAction {
	return &RecordAction{raw: raw, name: name, kind: kind}
}

func (a *RecordAction) Name() string            { return a.name }
func (a *RecordAction) Kind() Kind              { return a.kind }
func (a *RecordAction) Timestamp() int64        { return a.tick }
func (a *RecordAction) SetTimestamp(tick int64) { a.tick = tick }

// Apply hands the action to the logic engine.
func (a *RecordAction) Apply(e Engine) error {
	return e.Execute(a)
}

func (a *RecordAction) String() string {
	return strings.ReplaceAll(a.raw, "\n", "")
}

// TotalTicksQuery asks the Manager for the session's terminal tick
// count. The answer arrives synchronously on Reply; it never reaches
// the logic engine.
type TotalTicksQuery struct {
	Reply chan int64
}

// NewTotalTicksQuery returns a query with a buffered reply channel.
func NewTotalTicksQuery() *TotalTicksQuery {
	return &TotalTicksQuery{Reply: make(chan int64, 1)}
}

func (q *TotalTicksQuery) Name() string       { return NameQueryRounds }
func (q *TotalTicksQuery) Kind() Kind         { return KindInstruction }
func (q *TotalTicksQuery) Timestamp() int64   { return 0 }
func (q *TotalTicksQuery) SetTimestamp(int64) {}
func (q *TotalTicksQuery) Apply(Engine) error { return nil }
func (q *TotalTicksQuery) String() string     { return NameQueryRounds }

// Directive is a payload-free control action identified only by name,
// used to submit _pause, _set_time and _end through the Manager.
type Directive struct {
	name string
	tick int64
}

// NewDirective builds a directive action for the given name.
func NewDirective(name string) *Directive {
	return &Directive{name: name}
}

func (d *Directive) Name() string            { return d.name }
func (d *Directive) Kind() Kind              { return KindInstruction }
func (d *Directive) Timestamp() int64        { return d.tick }
func (d *Directive) SetTimestamp(tick int64) { d.tick = tick }
func (d *Directive) Apply(Engine) error      { return nil }
func (d *Directive) String() string          { return fmt.Sprintf("directive %s", d.name) }
