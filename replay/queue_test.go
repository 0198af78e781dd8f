package replay

import "testing"

func TestPendingQueue_FIFOOrder(t *testing.T) {
	// GIVEN a queue loaded with three entries
	q := loadQueue([]replayEntry{{0, "a"}, {0, "b"}, {3, "c"}})

	// WHEN all entries are dequeued
	var names []string
	for {
		pa, ok := q.Dequeue()
		if !ok {
			break
		}
		names = append(names, pa.Action.Name())
	}

	// THEN arrival order is preserved, including equal timestamps
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("dequeue order: got %v, want %v", names, want)
		}
	}
}

func TestPendingQueue_DequeueEmpty_ReturnsFalse(t *testing.T) {
	// GIVEN an empty queue
	q := &PendingQueue{}

	// WHEN dequeuing
	_, ok := q.Dequeue()

	// THEN it reports empty
	if ok {
		t.Error("Dequeue on empty queue: got ok=true, want false")
	}
	if q.Len() != 0 {
		t.Errorf("Len on empty queue: got %d, want 0", q.Len())
	}
}
