package replay

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTickRate is the number of logic ticks per real-time second
// when no rate is configured.
const DefaultTickRate = 20

// controlBuffer sizes a Player's control channel. Signals are discrete
// and rare; the buffer only has to absorb a short burst of live injects.
const controlBuffer = 16

// Player is one playback session instance: a logic engine, a pausable
// clock and a cursor into the pending queue. Its Run loop advances the
// engine one tick at a time, in lockstep with the clock, dispatching
// each recorded action when its tick comes due.
//
// lastTick only increases, and the engine is advanced exactly once per
// increment. All state except the control channel and the clock is
// touched only by the goroutine driving Run (or by the Manager while
// the Player is provably quiescent).
type Player struct {
	engine   Engine
	clock    *Clock
	queue    *PendingQueue
	buffered *PendingAction
	control  chan controlSignal
	lastTick int64
	rate     int64
	finished atomic.Bool
	log      *logrus.Entry
}

// NewPlayer builds a Player over an already-loaded pending queue.
// rate is the tick rate in ticks per second; zero selects DefaultTickRate.
func NewPlayer(engine Engine, queue *PendingQueue, rate int64) *Player {
	if rate <= 0 {
		rate = DefaultTickRate
	}
	return &Player{
		engine:  engine,
		clock:   NewClock(),
		queue:   queue,
		control: make(chan controlSignal, controlBuffer),
		rate:    rate,
		log:     logrus.WithField("component", "player"),
	}
}

// LastTick returns the number of ticks fully advanced so far.
func (p *Player) LastTick() int64 {
	return p.lastTick
}

// CurrentTime returns the clock's current real-time reading.
func (p *Player) CurrentTime() time.Duration {
	return p.clock.CurrentTime()
}

// Finished reports whether the loop has reached its terminal state
// (no buffered action and an empty pending queue).
func (p *Player) Finished() bool {
	return p.finished.Load()
}

// Enqueue forwards a live action to the running loop. A pause directive
// is translated into the toggle-pause control signal; anything else is
// injected for dispatch at the then-current tick.
func (p *Player) Enqueue(act Action) {
	if act.Name() == NamePause {
		p.control <- controlSignal{kind: sigTogglePause}
		return
	}
	p.control <- controlSignal{kind: sigInject, action: act}
}

// Stop asks the loop to settle on the next tick boundary and return.
func (p *Player) Stop() {
	p.control <- controlSignal{kind: sigStop}
}

// logicTime converts a real-time reading into whole logic ticks.
func (p *Player) logicTime(t time.Duration) int64 {
	return int64(t.Seconds() * float64(p.rate))
}

// realTime converts a tick into its real-time equivalent.
func (p *Player) realTime(tick int64) time.Duration {
	return time.Duration(float64(tick) / float64(p.rate) * float64(time.Second))
}

// nextTick advances the logic engine by exactly one tick. A failure is
// fatal to the Player: tick advancement is not idempotent, so the error
// is logged and propagated with no retry.
func (p *Player) nextTick() error {
	if err := p.engine.NextTick(); err != nil {
		p.log.Errorf("logic fault advancing tick %d: %v", p.lastTick+1, err)
		return fmt.Errorf("advance tick %d: %w", p.lastTick+1, err)
	}
	p.lastTick++
	return nil
}

// Run executes the tick-advance/dispatch loop until the session
// finishes, a stop or rendezvous signal arrives, or the logic engine
// faults. It returns nil in every case except a logic fault.
//
// Per iteration: settle the terminal state, refill the lookahead
// buffer, wait on the control channel up to the next due deadline, then
// either dispatch the due action (snapping the clock when it is already
// past due) or advance ticks until the clock catches up.
func (p *Player) Run() error {
	for {
		var next *PendingAction
		if p.buffered == nil && p.queue.Len() == 0 {
			// Terminal state: park the clock exactly on the last tick.
			p.clock.Stop()
			p.clock.SetElapsed(p.realTime(p.lastTick))
			p.finished.Store(true)
			return nil
		}
		if p.buffered == nil {
			pa, _ := p.queue.Dequeue()
			p.buffered = &pa
		}

		wait := p.realTime(min(p.buffered.Tick, p.lastTick+1)) - p.clock.CurrentTime()
		if wait < 0 {
			wait = 0
		}
		if sig, ok := p.waitSignal(wait); ok {
			switch sig.kind {
			case sigStop:
				if err := p.SetPosition(p.lastTick + 1); err != nil {
					return err
				}
				return nil
			case sigTogglePause:
				p.clock.Toggle()
				continue
			case sigInject:
				next = &PendingAction{Tick: p.lastTick, Action: sig.action}
			case sigRendezvous:
				err := p.SetPosition(p.lastTick + 1)
				sig.ack <- struct{}{}
				return err
			}
		}

		if next == nil {
			if p.buffered.Tick <= p.logicTime(p.clock.CurrentTime()) {
				next = p.buffered
				p.buffered = nil
			} else {
				// Not due yet: let ticks catch up to the clock.
				for p.buffered.Tick > p.lastTick && p.logicTime(p.clock.CurrentTime()) > p.lastTick {
					if err := p.nextTick(); err != nil {
						return err
					}
				}
				continue
			}
		}

		if next.Tick < p.logicTime(p.clock.CurrentTime()) {
			// Already past due: snap the clock just after the action's
			// tick so real time does not drift ahead of logic time.
			p.clock.SetCurrentTime(p.realTime(next.Tick + 1))
		} else if next.Tick > p.logicTime(p.clock.CurrentTime()) {
			p.buffered = next
			continue
		}

		p.log.Debugf(">>>>>>>> recv %s", next.Action)
		for next.Tick > p.lastTick {
			if err := p.nextTick(); err != nil {
				return err
			}
		}
		next.Action.SetTimestamp(p.lastTick)
		if err := next.Action.Apply(p.engine); err != nil {
			p.log.Errorf("logic fault applying %s at tick %d: %v", next.Action, p.lastTick, err)
			return fmt.Errorf("apply action at tick %d: %w", p.lastTick, err)
		}
		p.log.Debugf("<<<<<<<< fin")
	}
}

// waitSignal blocks on the control channel for up to timeout. A pending
// signal is taken regardless of the deadline; with the clock stopped the
// wait is indefinite, since no action can come due while paused.
func (p *Player) waitSignal(timeout time.Duration) (controlSignal, bool) {
	select {
	case sig := <-p.control:
		return sig, true
	default:
	}
	if !p.clock.Running() {
		return <-p.control, true
	}
	if timeout <= 0 {
		return controlSignal{}, false
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case sig := <-p.control:
		return sig, true
	case <-t.C:
		return controlSignal{}, false
	}
}

// SetPosition fast-forwards the Player to target by replaying queued
// actions and ticks without waiting on the clock. It is a no-op when
// target is at or behind lastTick.
//
// The terminal gameEnd action is never applied while seeking: reaching
// it parks elapsed time on its tick and stops early. Exhausting the
// queue before target is the PrematureEnd condition: logged at error
// level, replay stops at the last available tick, and the Player is
// left consistent.
func (p *Player) SetPosition(target int64) error {
	if target <= p.lastTick {
		return nil
	}
	p.clock.Stop()
	p.clock.SetElapsed(p.realTime(target))
	if p.buffered == nil {
		if pa, ok := p.queue.Dequeue(); ok {
			p.buffered = &pa
		}
	}
	for p.buffered != nil && p.buffered.Tick < target {
		for p.buffered.Tick > p.lastTick {
			if err := p.nextTick(); err != nil {
				return err
			}
		}
		if p.buffered.Action.Kind() == KindGameEnd {
			p.clock.SetElapsed(p.realTime(p.buffered.Tick))
			break
		}
		act := p.buffered.Action
		act.SetTimestamp(p.lastTick)
		if err := act.Apply(p.engine); err != nil {
			p.log.Errorf("logic fault applying %s at tick %d: %v", act, p.lastTick, err)
			return fmt.Errorf("apply action at tick %d: %w", p.lastTick, err)
		}
		if pa, ok := p.queue.Dequeue(); ok {
			p.buffered = &pa
		} else {
			p.log.Errorf("unexpected end of replay queue at tick %d", p.lastTick)
			p.buffered = nil
			break
		}
	}
	for target > p.lastTick {
		if err := p.nextTick(); err != nil {
			return err
		}
	}
	return nil
}
