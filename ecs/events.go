package ecs

// EventKind identifies a world event.
type EventKind string

const (
	// EventCardChanged marks an entity whose persistent fields changed
	// this tick. The autosave system drains these into its dirty set.
	EventCardChanged EventKind = "card_changed"
	// EventCardRemoved carries the uuid string of a deleted card in
	// Data so the store row can be dropped.
	EventCardRemoved EventKind = "card_removed"
	// EventRegionSettled fires after a streaming region load lands.
	EventRegionSettled EventKind = "region_settled"
)

// Event is a single queued world event.
type Event struct {
	Kind   EventKind
	Entity Entity
	Data   any
}

// EventQueue is a FIFO queue drained by interested systems. Events that
// survive a full tick undrained are dropped.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all queued events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Peek returns the queued events without clearing them, so multiple
// systems can observe the same tick's events before the drain.
func (q *EventQueue) Peek() []Event {
	if q == nil {
		return nil
	}
	return q.items
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
