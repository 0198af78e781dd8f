// Package replay provides the core playback engine for recorded,
// tick-based simulation sessions.
//
// # Reading Guide
//
// Start with these three files to understand the playback kernel:
//   - action.go: the Action boundary and the JSON-record action loaded from replay files
//   - player.go: the per-session loop that keeps real time and logic ticks in lockstep
//   - manager.go: session-level seeking, checkpoint reuse, and live action dispatch
//
// # Architecture
//
// A session replays a recorded sequence of timestamped actions against a
// logic engine. One Player owns one engine instance, one pausable Clock,
// and a pending queue loaded once from the replay source. The Player's
// loop advances the engine exactly one tick at a time, dispatching each
// action when wall-clock time reaches its tick.
//
// The Manager owns the active Player plus a store of retired Players
// keyed by their last tick. Seeking backward quiesces the active Player,
// retires it into the store, and adopts (or freshly builds) a Player at
// or before the target tick, fast-forwarding it the rest of the way.
// Repeated scrubbing is therefore bounded by the distance from the
// nearest retained checkpoint, not by the distance from tick zero.
//
// All cross-goroutine control flows through channels carrying a closed
// set of signals (stop, toggle-pause, inject, rendezvous); no simulation
// state is shared mutably across the Player boundary.
//
// The replay/record sub-package provides the asynchronous compressed
// line sink used for trace output and for recording new replay files.
package replay
