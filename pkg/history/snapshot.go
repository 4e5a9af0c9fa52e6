// Package history records completed runs as immutable snapshots.
package history

import (
	"time"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/google/uuid"
)

// Snapshot is the final state of one completed run. Snapshots are never
// modified after creation; readers that need a mutable graph call Restore.
type Snapshot struct {
	ID        string        `json:"id"`
	Timestamp int64         `json:"timestamp"`
	Nodes     []*graph.Node `json:"nodes"`
	Edges     []*graph.Edge `json:"edges"`
}

// NewSnapshot deep-copies nodes and edges into a snapshot with a fresh
// time-ordered id and the current time in milliseconds.
func NewSnapshot(nodes []*graph.Node, edges []*graph.Edge) *Snapshot {
	return &Snapshot{
		ID:        newSnapshotID(),
		Timestamp: time.Now().UnixMilli(),
		Nodes:     graph.CloneNodes(nodes),
		Edges:     graph.CloneEdges(edges),
	}
}

func newSnapshotID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Time returns the snapshot timestamp as a time.Time.
func (s *Snapshot) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		ID:        s.ID,
		Timestamp: s.Timestamp,
		Nodes:     graph.CloneNodes(s.Nodes),
		Edges:     graph.CloneEdges(s.Edges),
	}
}

// Restore deep-copies the snapshot into a new graph. Mutating the result
// never affects the snapshot.
func Restore(s *Snapshot) *graph.Graph {
	return &graph.Graph{
		Nodes: graph.CloneNodes(s.Nodes),
		Edges: graph.CloneEdges(s.Edges),
	}
}

// Summary is a flat view of a snapshot used for listing and filtering.
type Summary struct {
	ID        string `json:"id" expr:"id"`
	Timestamp int64  `json:"timestamp" expr:"timestamp"`
	Nodes     int    `json:"nodes" expr:"nodes"`
	Edges     int    `json:"edges" expr:"edges"`
	Succeeded int    `json:"succeeded" expr:"succeeded"`
	Failed    int    `json:"failed" expr:"failed"`
	Idle      int    `json:"idle" expr:"idle"`
	Images    int    `json:"images" expr:"images"`
}

// Summarize counts node outcomes in s.
func Summarize(s *Snapshot) Summary {
	sum := Summary{
		ID:        s.ID,
		Timestamp: s.Timestamp,
		Nodes:     len(s.Nodes),
		Edges:     len(s.Edges),
	}
	for _, n := range s.Nodes {
		switch n.Status {
		case graph.StatusSuccess:
			sum.Succeeded++
		case graph.StatusError:
			sum.Failed++
		case graph.StatusIdle:
			sum.Idle++
		}
		if d, ok := n.ImageGen(); ok && d.GeneratedImage != "" {
			sum.Images++
		}
	}
	return sum
}
