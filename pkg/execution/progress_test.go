package execution

import (
	"sync"
	"testing"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/stretchr/testify/assert"
)

func nodeEvent(id graph.NodeID, s graph.NodeStatus) Event {
	u := graph.StatusUpdate(s)
	return Event{Type: EventNodeUpdated, NodeID: id, NodeUpdate: &u}
}

func TestNewProgressTracker(t *testing.T) {
	tests := []struct {
		name       string
		totalNodes int
	}{
		{name: "zero nodes", totalNodes: 0},
		{name: "single node", totalNodes: 1},
		{name: "multiple nodes", totalNodes: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := NewProgressTracker(tt.totalNodes).GetProgress()
			assert.Equal(t, tt.totalNodes, progress.TotalNodes)
			assert.Equal(t, 0, progress.CompletedNodes)
			assert.Equal(t, 0, progress.FailedNodes)
			assert.Equal(t, graph.NodeID(""), progress.CurrentNode)
			assert.Equal(t, 0.0, progress.PercentComplete)
		})
	}
}

func TestProgressTracker_Track(t *testing.T) {
	tracker := NewProgressTracker(4)

	tracker.Track(nodeEvent("in", graph.StatusSuccess))
	tracker.Track(nodeEvent("p", graph.StatusRunning))
	assert.Equal(t, graph.NodeID("p"), tracker.GetProgress().CurrentNode)

	tracker.Track(nodeEvent("p", graph.StatusError))
	tracker.Track(nodeEvent("d", graph.StatusSuccess))

	progress := tracker.GetProgress()
	assert.Equal(t, 2, progress.CompletedNodes)
	assert.Equal(t, 1, progress.FailedNodes)
	assert.Equal(t, graph.NodeID(""), progress.CurrentNode)
	assert.InDelta(t, 75.0, progress.PercentComplete, 0.001)
}

func TestProgressTracker_IgnoresOtherEvents(t *testing.T) {
	tracker := NewProgressTracker(2)

	tracker.Track(Event{Type: EventRunStarted})
	tracker.Track(Event{Type: EventEdgeUpdated, EdgeID: "e1"})
	content := "x"
	tracker.Track(Event{Type: EventNodeUpdated, NodeID: "d", NodeUpdate: &graph.NodeUpdate{Content: &content}})

	assert.Equal(t, Progress{TotalNodes: 2}, tracker.GetProgress())
}

func TestProgressTracker_RepeatedArrivalCountsOnce(t *testing.T) {
	tracker := NewProgressTracker(2)

	tracker.Track(nodeEvent("d", graph.StatusSuccess))
	tracker.Track(nodeEvent("d", graph.StatusRunning))
	tracker.Track(nodeEvent("d", graph.StatusSuccess))

	progress := tracker.GetProgress()
	assert.Equal(t, 1, progress.CompletedNodes)
	assert.InDelta(t, 50.0, progress.PercentComplete, 0.001)
}

func TestProgressTracker_PercentNeverDecreases(t *testing.T) {
	tracker := NewProgressTracker(1)

	tracker.Track(nodeEvent("d", graph.StatusSuccess))
	tracker.Track(nodeEvent("d", graph.StatusRunning))

	assert.InDelta(t, 100.0, tracker.GetProgress().PercentComplete, 0.001)
}

func TestProgressTracker_Reset(t *testing.T) {
	tracker := NewProgressTracker(3)
	tracker.Track(nodeEvent("a", graph.StatusSuccess))

	tracker.Reset()

	assert.Equal(t, Progress{TotalNodes: 3}, tracker.GetProgress())
}

func TestProgressTracker_Concurrent(t *testing.T) {
	tracker := NewProgressTracker(50)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.Track(nodeEvent(graph.NodeID(rune('A'+i)), graph.StatusSuccess))
			_ = tracker.GetProgress()
		}(i)
	}
	wg.Wait()

	progress := tracker.GetProgress()
	assert.Equal(t, 50, progress.CompletedNodes)
	assert.InDelta(t, 100.0, progress.PercentComplete, 0.001)
}
