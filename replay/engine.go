package replay

import "fmt"

// InfoFunc receives informational payloads emitted by the logic engine.
// The Manager rebinds it around seeks so that replay catch-up stays silent.
type InfoFunc func(msg string)

// Engine is the logic-engine boundary. NextTick advances the simulation
// by exactly one tick and may fail fatally; Execute applies a dispatched
// action. Tick advancement is not idempotent, so a failed NextTick
// leaves the engine unusable and terminates the owning Player.
type Engine interface {
	NextTick() error
	Execute(act Action) error
}

// EngineFactory builds a fresh engine bound to a notification callback.
// The Manager uses it at session start and whenever a seek misses the
// checkpoint store and has to rebuild a Player from the source.
type EngineFactory func(notify InfoFunc) Engine

// TraceEngine is a minimal Engine that counts ticks and reports every
// applied action through the notification callback. It stands in for a
// real logic engine in the CLI and in examples.
type TraceEngine struct {
	tick   int64
	notify InfoFunc
}

// NewTraceEngine is an EngineFactory for TraceEngine.
func NewTraceEngine(notify InfoFunc) Engine {
	return &TraceEngine{notify: notify}
}

// NextTick advances the tick counter. It never fails.
func (e *TraceEngine) NextTick() error {
	e.tick++
	return nil
}

// Execute reports the applied action through the notification callback.
func (e *TraceEngine) Execute(act Action) error {
	if e.notify != nil {
		e.notify(fmt.Sprintf("tick %d: %s", e.tick, act))
	}
	return nil
}

// Tick returns the number of ticks advanced so far.
func (e *TraceEngine) Tick() int64 {
	return e.tick
}
