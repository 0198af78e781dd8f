package replay

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/replay-sim/replay-sim/replay/record"
)

// scriptEngine is a scripted logic engine for tests: it counts ticks,
// records applied action names in order, and can be told to fail tick
// advancement at a specific tick.
type scriptEngine struct {
	mu      sync.Mutex
	ticks   int64
	applied []string
	failAt  int64 // fail NextTick when reaching this tick (0 = never)
}

func (e *scriptEngine) NextTick() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failAt > 0 && e.ticks+1 >= e.failAt {
		return fmt.Errorf("scripted failure at tick %d", e.ticks+1)
	}
	e.ticks++
	return nil
}

func (e *scriptEngine) Execute(act Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applied = append(e.applied, act.Name())
	return nil
}

func (e *scriptEngine) appliedNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.applied...)
}

// replayEntry is one line of a generated test replay.
type replayEntry struct {
	tick int64
	name string
}

// writeReplay produces a gzip JSON-lines replay file in dir through the
// record sink and returns its path.
func writeReplay(t *testing.T, dir string, entries []replayEntry) string {
	t.Helper()
	path := filepath.Join(dir, "session.rpy")
	w, err := record.NewWriter(path)
	if err != nil {
		t.Fatalf("create replay file: %v", err)
	}
	for _, e := range entries {
		w.Write(fmt.Sprintf(`{"action":%q,"time":%d}`, e.name, e.tick))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close replay file: %v", err)
	}
	return path
}

// writeRawReplay overwrites path with the given raw lines, gzip
// compressed, for malformed-record tests.
func writeRawReplay(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create raw replay: %v", err)
	}
	zw := gzip.NewWriter(f)
	for _, line := range lines {
		if _, err := zw.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("write raw replay: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close raw replay: %v", err)
	}
}

// standardEntries is the canonical four-record session used across the
// seek tests: init at 0, two instructions, terminal marker at tick 20.
func standardEntries() []replayEntry {
	return []replayEntry{
		{0, "init"},
		{5, "instrA"},
		{12, "instrB"},
		{20, NameGameEnd},
	}
}

// loadQueue builds a PendingQueue straight from entries, bypassing the
// file round trip, for Player-level tests.
func loadQueue(entries []replayEntry) *PendingQueue {
	q := &PendingQueue{}
	for _, e := range entries {
		kind := KindInstruction
		if e.name == NameGameEnd {
			kind = KindGameEnd
		}
		raw := fmt.Sprintf(`{"action":%q,"time":%d}`, e.name, e.tick)
		q.Enqueue(PendingAction{Tick: e.tick, Action: NewRecordAction(raw, e.name, kind)})
	}
	return q
}
