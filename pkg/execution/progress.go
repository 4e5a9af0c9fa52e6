package execution

import (
	"sync"

	"github.com/dshills/typoflow/pkg/graph"
)

// Progress is a point-in-time view of a run.
type Progress struct {
	// TotalNodes is the number of nodes in the graph.
	TotalNodes int
	// CompletedNodes is the number of nodes whose latest status is success.
	CompletedNodes int
	// FailedNodes is the number of nodes whose latest status is error.
	FailedNodes int
	// CurrentNode is the node most recently marked running, if still running.
	CurrentNode graph.NodeID
	// PercentComplete is the share of nodes that have finished (0-100).
	PercentComplete float64
}

// ProgressTracker folds node.updated events into run progress. A node
// reached more than once counts once, with its latest status.
type ProgressTracker struct {
	mu          sync.RWMutex
	totalNodes  int
	status      map[graph.NodeID]graph.NodeStatus
	currentNode graph.NodeID
	percent     float64
}

// NewProgressTracker creates a tracker for a graph of totalNodes nodes.
func NewProgressTracker(totalNodes int) *ProgressTracker {
	return &ProgressTracker{
		totalNodes: totalNodes,
		status:     make(map[graph.NodeID]graph.NodeStatus, totalNodes),
	}
}

// Track applies event. Events other than node status changes are ignored.
func (pt *ProgressTracker) Track(event Event) {
	if event.Type != EventNodeUpdated || event.NodeUpdate == nil || event.NodeUpdate.Status == nil {
		return
	}
	status := *event.NodeUpdate.Status

	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.status[event.NodeID] = status
	switch status {
	case graph.StatusRunning:
		pt.currentNode = event.NodeID
	case graph.StatusSuccess, graph.StatusError:
		if pt.currentNode == event.NodeID {
			pt.currentNode = ""
		}
	}
	pt.updateProgress()
}

// GetProgress returns the current progress.
func (pt *ProgressTracker) GetProgress() Progress {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	p := Progress{
		TotalNodes:      pt.totalNodes,
		CurrentNode:     pt.currentNode,
		PercentComplete: pt.percent,
	}
	for _, s := range pt.status {
		switch s {
		case graph.StatusSuccess:
			p.CompletedNodes++
		case graph.StatusError:
			p.FailedNodes++
		}
	}
	return p
}

// updateProgress recalculates the cached percentage. It never decreases
// within a run, even when a finished node is reached again.
func (pt *ProgressTracker) updateProgress() {
	if pt.totalNodes == 0 {
		return
	}
	finished := 0
	for _, s := range pt.status {
		if s == graph.StatusSuccess || s == graph.StatusError {
			finished++
		}
	}
	percent := float64(finished) / float64(pt.totalNodes) * 100.0
	if percent > 100.0 {
		percent = 100.0
	}
	if percent > pt.percent {
		pt.percent = percent
	}
}

// Reset clears all tracked state, for example between runs.
func (pt *ProgressTracker) Reset() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.status = make(map[graph.NodeID]graph.NodeStatus, pt.totalNodes)
	pt.currentNode = ""
	pt.percent = 0
}
