package execution

import (
	"context"
	"fmt"
	"testing"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestMonitor_RunEventStream(t *testing.T) {
	engine := NewEngine(&fakeProvider{}, history.NewMemoryStore(), Options{})
	defer engine.Close()

	ch := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(ch)

	g := &graph.Graph{
		Nodes: []*graph.Node{inputNode("in", "x"), processorNode("p", "P")},
		Edges: []*graph.Edge{edge("e1", "in", "p")},
	}
	snap, err := engine.Run(context.Background(), g)
	require.NoError(t, err)

	events := drain(ch)
	require.NotEmpty(t, events)
	assert.Equal(t, EventRunStarted, events[0].Type)
	last := events[len(events)-1]
	assert.Equal(t, EventRunCompleted, last.Type)
	assert.Equal(t, snap.ID, last.SnapshotID)

	runID := events[0].RunID
	var edgeStates []graph.EdgeStatus
	for _, ev := range events {
		assert.Equal(t, runID, ev.RunID)
		assert.False(t, ev.Timestamp.IsZero())
		if ev.Type == EventEdgeUpdated {
			edgeStates = append(edgeStates, ev.EdgeUpdate.Status)
		}
	}
	assert.Equal(t, []graph.EdgeStatus{graph.EdgeStatusNone, graph.EdgeStatusRunning, graph.EdgeStatusDone}, edgeStates)
}

func TestMonitor_FilteredSubscription(t *testing.T) {
	engine := NewEngine(&fakeProvider{}, nil, Options{})
	defer engine.Close()

	ch := engine.Events().SubscribeFiltered(EventFilter{
		EventTypes: []EventType{EventNodeUpdated},
		NodeIDs:    []graph.NodeID{"p"},
	})

	g := &graph.Graph{
		Nodes: []*graph.Node{inputNode("in", "x"), processorNode("p", "P")},
		Edges: []*graph.Edge{edge("e1", "in", "p")},
	}
	_, err := engine.Run(context.Background(), g)
	require.NoError(t, err)

	events := drain(ch)
	var statuses []graph.NodeStatus
	for _, ev := range events {
		assert.Equal(t, EventNodeUpdated, ev.Type)
		assert.Equal(t, graph.NodeID("p"), ev.NodeID)
		if ev.NodeUpdate.Status != nil {
			statuses = append(statuses, *ev.NodeUpdate.Status)
		}
	}
	assert.Equal(t, []graph.NodeStatus{graph.StatusIdle, graph.StatusRunning, graph.StatusSuccess}, statuses)
}

func TestMonitor_DriverErrorEmitsRunFailed(t *testing.T) {
	engine := NewEngine(&fakeProvider{}, nil, Options{})
	defer engine.Close()

	ch := engine.Events().SubscribeFiltered(EventFilter{EventTypes: []EventType{EventRunFailed}})
	_, err := engine.Run(context.Background(), nil)
	require.Error(t, err)

	events := drain(ch)
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Error, ErrNilGraph)
}

func TestMonitor_UnsubscribeClosesChannel(t *testing.T) {
	m := newMonitor()
	ch := m.Subscribe()
	m.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)

	// emitting after unsubscribe must not panic
	m.emit(Event{Type: EventRunStarted})
}

func TestMonitor_CloseClosesAllSubscribers(t *testing.T) {
	m := newMonitor()
	a := m.Subscribe()
	b := m.SubscribeFiltered(EventFilter{EventTypes: []EventType{EventRunCompleted}})
	m.close()

	_, ok := <-a
	assert.False(t, ok)
	_, ok = <-b
	assert.False(t, ok)

	late := m.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestMonitor_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := newMonitor()
	ch := m.Subscribe()
	for i := 0; i < subscriberBuffer+50; i++ {
		m.emit(Event{Type: EventNodeUpdated})
	}
	events := drain(ch)
	assert.Len(t, events, subscriberBuffer)
	assert.Zero(t, events[len(events)-1].Dropped)

	m.emit(Event{Type: EventNodeUpdated, NodeID: "after"})
	events = drain(ch)
	require.Len(t, events, 1)
	assert.Equal(t, 50, events[0].Dropped)
}

func TestMonitor_TerminalEventSurvivesFullBuffer(t *testing.T) {
	m := newMonitor()
	ch := m.Subscribe()
	for i := 0; i < subscriberBuffer+10; i++ {
		m.emit(Event{Type: EventNodeUpdated})
	}
	m.emit(Event{Type: EventRunCompleted, SnapshotID: "snap"})

	events := drain(ch)
	require.Len(t, events, subscriberBuffer)
	last := events[len(events)-1]
	assert.Equal(t, EventRunCompleted, last.Type)
	assert.Equal(t, "snap", last.SnapshotID)
	assert.Equal(t, 11, last.Dropped)
}

func TestMonitor_LargeRunEndsWithTerminalEvent(t *testing.T) {
	engine := NewEngine(&fakeProvider{}, history.NewMemoryStore(), Options{})
	defer engine.Close()

	ch := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(ch)

	g := &graph.Graph{Nodes: []*graph.Node{inputNode("in", "x")}}
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("d%d", i)
		g.Nodes = append(g.Nodes, displayNode(id))
		g.Edges = append(g.Edges, edge("e-"+id, "in", id))
	}
	snap, err := engine.Run(context.Background(), g)
	require.NoError(t, err)

	events := drain(ch)
	require.Len(t, events, subscriberBuffer)
	last := events[len(events)-1]
	assert.Equal(t, EventRunCompleted, last.Type)
	assert.Equal(t, snap.ID, last.SnapshotID)
	assert.Positive(t, last.Dropped)
}

func TestEventFilter_Matches(t *testing.T) {
	f := EventFilter{NodeIDs: []graph.NodeID{"a"}}
	assert.True(t, f.Matches(Event{Type: EventNodeUpdated, NodeID: "a"}))
	assert.False(t, f.Matches(Event{Type: EventNodeUpdated, NodeID: "b"}))
	assert.False(t, f.Matches(Event{Type: EventRunStarted}))

	empty := EventFilter{}
	assert.True(t, empty.Matches(Event{Type: EventRunStarted}))
}
