package replay

// PendingAction pairs an Action with the tick it was recorded at. The
// tick lives beside the action because dispatch timestamps are assigned
// to the action itself only at apply time.
type PendingAction struct {
	Tick   int64
	Action Action
}

// PendingQueue is the ordered-by-arrival sequence of recorded actions
// for one Player. It is loaded fully from the replay source at Player
// creation and consumed strictly in order; the single lookahead slot
// for a popped-but-undispatched entry lives on the Player, not here.
type PendingQueue struct {
	queue []PendingAction
}

// Enqueue appends an entry at the back of the queue.
func (pq *PendingQueue) Enqueue(pa PendingAction) {
	pq.queue = append(pq.queue, pa)
}

// Dequeue removes and returns the front entry. The second return is
// false when the queue is empty.
func (pq *PendingQueue) Dequeue() (PendingAction, bool) {
	if len(pq.queue) == 0 {
		return PendingAction{}, false
	}
	pa := pq.queue[0]
	pq.queue = pq.queue[1:]
	return pa, true
}

// Len returns the number of entries still queued.
func (pq *PendingQueue) Len() int {
	return len(pq.queue)
}
