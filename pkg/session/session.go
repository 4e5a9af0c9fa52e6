// Package session holds the live graph a user edits and runs. It mirrors
// engine status into the live graph as a run progresses, restores history
// snapshots and imports or exports workflow documents.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/typoflow/pkg/execution"
	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/history"
	"github.com/dshills/typoflow/pkg/provider"
)

// Session owns the live graph outside a run and implements
// execution.Publisher so status updates land on it during a run.
type Session struct {
	mu       sync.RWMutex
	live     *graph.Graph
	edgeType string

	engine  *execution.Engine
	history history.Store
}

// New creates a session on the default canvas. opts.Publisher is replaced
// by the session itself.
func New(p provider.Provider, store history.Store, opts execution.Options) *Session {
	if store == nil {
		store = history.NewMemoryStore()
	}
	s := &Session{
		live:     graph.DefaultCanvas(),
		edgeType: graph.EdgeTypeBezier,
		history:  store,
	}
	opts.Publisher = s
	s.engine = execution.NewEngine(p, store, opts)
	return s
}

// Engine returns the session's engine.
func (s *Session) Engine() *execution.Engine {
	return s.engine
}

// History returns the snapshot store.
func (s *Session) History() history.Store {
	return s.history
}

// Close releases engine resources.
func (s *Session) Close() error {
	return s.engine.Close()
}

// Graph returns a deep copy of the live graph.
func (s *Session) Graph() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live.Clone()
}

// EdgeType returns the path style applied to edges on export.
func (s *Session) EdgeType() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgeType
}

// SetEdgeType changes the path style and applies it to every live edge.
func (s *Session) SetEdgeType(edgeType string) error {
	if edgeType != graph.EdgeTypeBezier && edgeType != graph.EdgeTypeSmoothStep {
		return fmt.Errorf("unknown edge type %q", edgeType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edgeType = edgeType
	for _, e := range s.live.Edges {
		e.PathType = edgeType
	}
	return nil
}

// Replace validates g and makes a copy of it the live graph.
func (s *Session) Replace(g *graph.Graph) error {
	if g == nil {
		return fmt.Errorf("cannot replace live graph with nil graph")
	}
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = g.Clone()
	return nil
}

// Reset replaces the live graph with the default canvas.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = graph.DefaultCanvas()
}

// Edit applies fn to the live graph under the session lock. If fn returns
// an error the live graph is left as it was.
func (s *Session) Edit(fn func(g *graph.Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.live.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	s.live = draft
	return nil
}

// Run executes the live graph and waits for the snapshot.
func (s *Session) Run(ctx context.Context) (*history.Snapshot, error) {
	return s.engine.Run(ctx, s.Graph())
}

// Start executes the live graph in the background.
func (s *Session) Start(ctx context.Context) (<-chan execution.Result, error) {
	return s.engine.Start(ctx, s.Graph())
}

// Restore replaces the live graph with a deep copy of the snapshot with the
// given id. It does not start a run.
func (s *Session) Restore(ctx context.Context, id string) (*history.Snapshot, error) {
	snap, err := s.history.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.RestoreSnapshot(snap)
	return snap, nil
}

// RestoreSnapshot replaces the live graph with a deep copy of snap.
func (s *Session) RestoreSnapshot(snap *history.Snapshot) {
	g := history.Restore(snap)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = g
}

// Import parses a workflow document and makes it the live graph. On any
// error the live graph is untouched.
func (s *Session) Import(data []byte) error {
	doc, err := graph.ParseDocument(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = doc.Graph()
	s.edgeType = doc.EdgeType
	return nil
}

// Export serializes the live graph as a workflow document.
func (s *Session) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.Export(s.live, s.edgeType)
}

// PublishNode applies an engine update to the live graph. Nodes deleted
// from the live graph since the run started are ignored.
func (s *Session) PublishNode(id graph.NodeID, u graph.NodeUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.live.ApplyNodeUpdate(id, u)
}

// PublishEdge applies an engine update to the live graph.
func (s *Session) PublishEdge(id graph.EdgeID, u graph.EdgeUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.live.ApplyEdgeUpdate(id, u)
}
