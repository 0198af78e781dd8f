package replay

// signalKind discriminates control messages on a Player's channel.
// The set is closed: every signal a Player can receive is one of these.
type signalKind int

const (
	// sigStop asks the loop to settle on the next tick boundary and return.
	sigStop signalKind = iota
	// sigTogglePause flips the clock between running and stopped.
	sigTogglePause
	// sigInject dispatches a live action at the current tick, ahead of
	// any buffered file action with a greater timestamp.
	sigInject
	// sigRendezvous settles on the next tick boundary, acknowledges on
	// ack, and returns; used to quiesce a Player before retiring it.
	sigRendezvous
)

// controlSignal is the tagged union carried by a Player's control
// channel. action is set for sigInject, ack for sigRendezvous.
type controlSignal struct {
	kind   signalKind
	action Action
	ack    chan struct{}
}
