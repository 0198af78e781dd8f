package replay

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxCheckpoints bounds the checkpoint store when the caller
// does not choose a limit. Zero disables the bound entirely.
const DefaultMaxCheckpoints = 16

// Options configures a Manager.
type Options struct {
	// Source is the path of the replay file. Each Player loads the full
	// pending queue from it once, at creation.
	Source string
	// TickRate is the tick rate in ticks per second (default 20).
	TickRate int64
	// StartPaused keeps the clock stopped when the run loop starts a
	// Player, so playback waits for a pause toggle.
	StartPaused bool
	// MaxCheckpoints bounds the checkpoint store; when full, the oldest
	// stored Player is evicted. Negative means DefaultMaxCheckpoints,
	// zero means unbounded.
	MaxCheckpoints int
	// NewEngine builds a logic engine per Player (default NewTraceEngine).
	NewEngine EngineFactory
	// Notify receives informational payloads from the logic engine.
	Notify InfoFunc
}

// checkpointStore maps the lastTick of retired Players to the instances
// themselves. Keys are exactly the lastTick at the moment of retirement,
// each Player is stored at most once, and insertion order is kept so
// the oldest entry can be evicted when the bound is hit.
type checkpointStore struct {
	players map[int64]*Player
	order   []int64
	limit   int
}

func newCheckpointStore(limit int) *checkpointStore {
	return &checkpointStore{players: make(map[int64]*Player), limit: limit}
}

// put stores p under tick unless that key is already taken; an existing
// checkpoint is never clobbered. Returns whether p was stored.
func (cs *checkpointStore) put(tick int64, p *Player) bool {
	if _, exists := cs.players[tick]; exists {
		return false
	}
	if cs.limit > 0 && len(cs.order) >= cs.limit {
		oldest := cs.order[0]
		cs.order = cs.order[1:]
		delete(cs.players, oldest)
		logrus.Debugf("checkpoint store full, evicted tick %d", oldest)
	}
	cs.players[tick] = p
	cs.order = append(cs.order, tick)
	return true
}

// floor returns the stored Player with the greatest key at or below
// target, without removing it.
func (cs *checkpointStore) floor(target int64) (*Player, int64, bool) {
	var (
		best  int64
		found bool
	)
	for tick := range cs.players {
		if tick <= target && (!found || tick > best) {
			best = tick
			found = true
		}
	}
	if !found {
		return nil, 0, false
	}
	return cs.players[best], best, true
}

// take removes and returns the Player stored under tick. Once taken, a
// Player has a single live handle again and may become active.
func (cs *checkpointStore) take(tick int64) *Player {
	p := cs.players[tick]
	delete(cs.players, tick)
	for i, t := range cs.order {
		if t == tick {
			cs.order = append(cs.order[:i], cs.order[i+1:]...)
			break
		}
	}
	return p
}

func (cs *checkpointStore) len() int {
	return len(cs.players)
}

// Manager owns the active Player and the checkpoint store, routes live
// actions, and implements session-wide seeking.
//
// Quiescence protocol: a token sits in parked exactly when the active
// Player's loop is not executing and nobody is mutating it. The run
// loop claims the token before calling Run and releases it after; a
// seek claims it (waiting on a rendezvous if the loop is mid-flight)
// before touching any Player, and releases it when done. This closes
// the gap the original design left open, where quiescing an
// already-finished session would block forever.
type Manager struct {
	source      string
	rate        int64
	startPaused bool
	newEngine   EngineFactory

	mu         sync.Mutex
	active     *Player
	store      *checkpointStore
	totalTicks int64

	notifyMu sync.RWMutex
	notify   InfoFunc

	parked chan struct{}
	resume chan bool
	log    *logrus.Entry
}

// NewManager loads the replay source, builds the initial Player at
// position zero and applies the session-initialization action (the
// first queued record) so the logic engine starts initialized.
func NewManager(opts Options) (*Manager, error) {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.MaxCheckpoints < 0 {
		opts.MaxCheckpoints = DefaultMaxCheckpoints
	}
	if opts.NewEngine == nil {
		opts.NewEngine = NewTraceEngine
	}
	m := &Manager{
		source:      opts.Source,
		rate:        opts.TickRate,
		startPaused: opts.StartPaused,
		newEngine:   opts.NewEngine,
		store:       newCheckpointStore(opts.MaxCheckpoints),
		notify:      opts.Notify,
		parked:      make(chan struct{}, 1),
		resume:      make(chan bool, 8),
		log:         logrus.WithField("component", "manager"),
	}
	var total int64
	m.active, total = m.newPlayer()
	m.totalTicks = total
	if err := m.applyInit(m.active); err != nil {
		return nil, err
	}
	// The freshly built Player is quiescent until Run claims it.
	m.parked <- struct{}{}
	return m, nil
}

// newPlayer builds a Player positioned at tick zero from a fresh load
// of the replay source.
func (m *Manager) newPlayer() (*Player, int64) {
	queue, total := LoadSource(m.source)
	engine := m.newEngine(m.forwardInfo)
	return NewPlayer(engine, queue, m.rate), total
}

// applyInit pops and applies the first queued record. For a healthy
// source this is the session-initialization action at tick 0; for a
// corrupted one it is the synthetic terminal record.
func (m *Manager) applyInit(p *Player) error {
	pa, ok := p.queue.Dequeue()
	if !ok {
		return nil
	}
	return pa.Action.Apply(p.engine)
}

// forwardInfo relays engine payloads to the currently bound callback.
func (m *Manager) forwardInfo(msg string) {
	m.notifyMu.RLock()
	fn := m.notify
	m.notifyMu.RUnlock()
	if fn != nil {
		fn(msg)
	}
}

// SetInfoCallback rebinds the notification callback.
func (m *Manager) SetInfoCallback(fn InfoFunc) {
	m.notifyMu.Lock()
	m.notify = fn
	m.notifyMu.Unlock()
}

// swapNotify installs fn and returns the previous callback.
func (m *Manager) swapNotify(fn InfoFunc) InfoFunc {
	m.notifyMu.Lock()
	prev := m.notify
	m.notify = fn
	m.notifyMu.Unlock()
	return prev
}

// TotalTicks returns the tick of the terminal record, captured at load.
func (m *Manager) TotalTicks() int64 {
	return m.totalTicks
}

// CurrentTime returns the active Player's clock reading.
func (m *Manager) CurrentTime() time.Duration {
	m.mu.Lock()
	p := m.active
	m.mu.Unlock()
	return p.CurrentTime()
}

// LastTick returns the active Player's last fully advanced tick.
func (m *Manager) LastTick() int64 {
	m.mu.Lock()
	p := m.active
	m.mu.Unlock()
	return p.LastTick()
}

// Run drives the active Player until the session ends. After each
// return of the Player's loop (pause-stop, rendezvous, finish) it
// consults driver; while driver reports true it waits for a resume
// message (sent by seeks and live dispatch) and loops again.
// A logic fault terminates the run loop with the fault.
func (m *Manager) Run(driver func() bool) error {
	for {
		<-m.parked
		m.mu.Lock()
		p := m.active
		m.mu.Unlock()
		if !m.startPaused {
			p.clock.Start()
		}
		err := p.Run()
		m.parked <- struct{}{}
		if err != nil {
			return err
		}
		if !driver() {
			return nil
		}
		if !<-m.resume {
			return nil
		}
	}
}

// quiesce claims the active Player, settling its loop on a tick
// boundary first if it is mid-flight. The caller owns the Player until
// it releases the parked token.
func (m *Manager) quiesce(p *Player) {
	select {
	case <-m.parked:
		return
	default:
	}
	ack := make(chan struct{}, 1)
	p.control <- controlSignal{kind: sigRendezvous, ack: ack}
	select {
	case <-ack:
		<-m.parked
	case <-m.parked:
		// The loop returned on its own before seeing the rendezvous.
		// Clear the stale signals; the Player already sits on a boundary.
		m.drainControl(p)
	}
}

// drainControl empties a quiescent Player's control channel. Pending
// rendezvous signals are acknowledged so their senders do not hang;
// anything else is stale and dropped.
func (m *Manager) drainControl(p *Player) {
	for {
		select {
		case sig := <-p.control:
			switch sig.kind {
			case sigRendezvous:
				sig.ack <- struct{}{}
			case sigInject:
				m.log.Warnf("dropping live action %s queued against a retiring player", sig.action)
			}
		default:
			return
		}
	}
}

// release hands the quiescent Player back and wakes the run loop. The
// wakeup is best-effort: a full resume buffer already guarantees the
// run loop has pending reasons to wake.
func (m *Manager) release() {
	m.parked <- struct{}{}
	select {
	case m.resume <- true:
	default:
	}
}

// SetPosition seeks the whole session to target, forward or backward.
//
// Forward of the active Player it is a plain fast-forward. At or behind
// it, the active Player is retired into the checkpoint store under its
// current tick and a replacement is adopted: the stored Player with the
// greatest tick at or below target when one exists, otherwise a fresh
// Player rebuilt from the source. The replacement is fast-forwarded
// over any remaining gap. Notifications are suppressed throughout, so
// catch-up replay stays invisible to the outside.
//
// Seeks must not be issued concurrently with each other; mu serializes
// them defensively but ordering between racing seeks is unspecified.
func (m *Manager) SetPosition(target int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	backup := m.swapNotify(nil)
	p := m.active
	p.clock.Stop()
	m.quiesce(p)

	err := m.seekQuiesced(p, target)

	m.swapNotify(backup)
	m.log.Infof("set position done: tick %d", m.active.lastTick)
	m.release()
	return err
}

// seekQuiesced performs the seek proper; the caller holds mu and owns
// the quiescent active Player.
func (m *Manager) seekQuiesced(p *Player, target int64) error {
	if target > p.lastTick {
		return p.SetPosition(target)
	}

	retiredAt := p.lastTick
	if !m.store.put(retiredAt, p) {
		m.log.Debugf("checkpoint at tick %d already present, dropping retired player", retiredAt)
	}
	if cp, tick, ok := m.store.floor(target); ok {
		m.store.take(tick)
		m.active = cp
		if cp.lastTick < target {
			return cp.SetPosition(target)
		}
		return nil
	}

	fresh, _ := m.newPlayer()
	m.active = fresh
	if target > 0 {
		return fresh.SetPosition(target)
	}
	return m.applyInit(fresh)
}

// Enqueue routes an externally submitted action: seeks and session
// control are handled by the Manager itself, total-tick queries are
// answered synchronously, and everything else is forwarded to the
// active Player as a live injection.
func (m *Manager) Enqueue(timestamp int64, act Action) error {
	switch act.Name() {
	case NameSetTime:
		return m.SetPosition(timestamp)
	case NameEnd:
		m.End()
		return nil
	case NameQueryRounds:
		if q, ok := act.(*TotalTicksQuery); ok {
			q.Reply <- m.totalTicks
		}
		return nil
	default:
		m.mu.Lock()
		p := m.active
		m.mu.Unlock()
		finished := p.Finished()
		p.Enqueue(act)
		if finished {
			// The loop has already returned; nudge the run loop so the
			// session gets a chance to observe the signal.
			select {
			case m.resume <- true:
			default:
			}
		}
		return nil
	}
}

// End stops the session: the run loop is told not to restart and the
// active Player is asked to settle on its next tick boundary.
func (m *Manager) End() {
	m.mu.Lock()
	p := m.active
	m.mu.Unlock()
	m.resume <- false
	p.Stop()
}

// Checkpoints returns the number of retired Players currently stored.
func (m *Manager) Checkpoints() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.len()
}
