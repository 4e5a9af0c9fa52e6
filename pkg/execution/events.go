package execution

import (
	"sync"
	"time"

	"github.com/dshills/typoflow/pkg/graph"
)

// EventType categorizes events emitted during a run.
type EventType string

const (
	// EventRunStarted is emitted after the guard is taken and the graph validated.
	EventRunStarted EventType = "run.started"
	// EventRunCompleted is emitted once the snapshot is recorded.
	EventRunCompleted EventType = "run.completed"
	// EventRunFailed is emitted when a driver error aborts the run.
	EventRunFailed EventType = "run.failed"

	// EventNodeUpdated is emitted after every node mutation.
	EventNodeUpdated EventType = "node.updated"
	// EventEdgeUpdated is emitted after every edge mutation.
	EventEdgeUpdated EventType = "edge.updated"
)

// Terminal reports whether t ends a run.
func (t EventType) Terminal() bool {
	return t == EventRunCompleted || t == EventRunFailed
}

// Event is a change notification emitted by the engine.
type Event struct {
	Type      EventType
	Timestamp time.Time
	// RunID identifies the run this event belongs to.
	RunID string
	// NodeID is set for node.updated events.
	NodeID graph.NodeID
	// EdgeID is set for edge.updated events.
	EdgeID graph.EdgeID
	// NodeUpdate is the merged change for node.updated events.
	NodeUpdate *graph.NodeUpdate
	// EdgeUpdate is the applied change for edge.updated events.
	EdgeUpdate *graph.EdgeUpdate
	// SnapshotID is set on run.completed.
	SnapshotID string
	// Error is set on run.failed.
	Error error
	// Dropped counts events this subscriber missed since its previous
	// delivered event because its buffer was full.
	Dropped int
}

// EventFilter defines criteria for filtering events.
type EventFilter struct {
	// EventTypes specifies which event types to include (empty means all).
	EventTypes []EventType
	// NodeIDs specifies which nodes to include (empty means all).
	NodeIDs []graph.NodeID
}

// Matches returns true if the event matches the filter criteria.
func (f *EventFilter) Matches(event Event) bool {
	if len(f.EventTypes) > 0 {
		matched := false
		for _, t := range f.EventTypes {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.NodeIDs) > 0 {
		if event.NodeID == "" {
			return false
		}
		matched := false
		for _, id := range f.NodeIDs {
			if event.NodeID == id {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Monitor streams engine events to subscribers.
type Monitor interface {
	// Subscribe returns a channel that receives every event.
	Subscribe() <-chan Event
	// SubscribeFiltered returns a channel that only receives matching events.
	SubscribeFiltered(filter EventFilter) <-chan Event
	// Unsubscribe closes and removes a subscription.
	Unsubscribe(ch <-chan Event)
}

// subscriberBuffer bounds each subscription. Once it is full, node and edge
// events are dropped; run.completed and run.failed evict the oldest buffered
// event instead, so every subscriber sees the end of a run.
const subscriberBuffer = 200

type subscription struct {
	ch     chan Event
	filter *EventFilter // nil means no filtering

	mu      sync.Mutex
	dropped int
}

// deliver sends event without blocking.
func (s *subscription) deliver(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		event.Dropped = s.dropped
		select {
		case s.ch <- event:
			s.dropped = 0
			return
		default:
		}
		if !event.Type.Terminal() {
			s.dropped++
			return
		}
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}

// monitor implements Monitor with non-blocking broadcast.
type monitor struct {
	mu          sync.RWMutex
	subscribers []*subscription
	closed      bool
}

func newMonitor() *monitor {
	return &monitor{subscribers: make([]*subscription, 0)}
}

func (m *monitor) Subscribe() <-chan Event {
	return m.subscribe(nil)
}

func (m *monitor) SubscribeFiltered(filter EventFilter) <-chan Event {
	return m.subscribe(&filter)
}

func (m *monitor) subscribe(filter *EventFilter) <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, subscriberBuffer)
	m.subscribers = append(m.subscribers, &subscription{ch: ch, filter: filter})
	return ch
}

func (m *monitor) Unsubscribe(ch <-chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub.ch == ch {
			close(sub.ch)
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			break
		}
	}
}

// emit sends an event to all matching subscribers without blocking.
// Terminal events are always queued.
func (m *monitor) emit(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, sub := range m.subscribers {
		if sub.filter != nil && !sub.filter.Matches(event) {
			continue
		}
		sub.deliver(event)
	}
}

func (m *monitor) close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	for _, sub := range m.subscribers {
		close(sub.ch)
	}
	m.subscribers = nil
}
