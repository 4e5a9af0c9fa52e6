package execution

import (
	"context"
	"sync"
	"testing"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mirror applies published updates to its own copy of the graph.
type mirror struct {
	mu sync.Mutex
	g  *graph.Graph
}

func (m *mirror) PublishNode(id graph.NodeID, u graph.NodeUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.g.ApplyNodeUpdate(id, u)
}

func (m *mirror) PublishEdge(id graph.EdgeID, u graph.EdgeUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.g.ApplyEdgeUpdate(id, u)
}

func TestPublisher_MirrorsWorkingGraph(t *testing.T) {
	g := &graph.Graph{
		Nodes: []*graph.Node{inputNode("in", "x"), processorNode("p", "P"), displayNode("d")},
		Edges: []*graph.Edge{edge("e1", "in", "p"), edge("e2", "p", "d")},
	}
	g.Nodes[1].Label = "Polish"
	g.Nodes[1].Position = graph.Position{X: 10, Y: 20}

	pub := &mirror{g: g.Clone()}
	engine := NewEngine(&fakeProvider{}, nil, Options{Publisher: pub})

	snap, err := engine.Run(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, snap.Nodes, pub.g.Nodes)
	assert.Equal(t, snap.Edges, pub.g.Edges)

	p, _ := pub.g.Node("p")
	assert.Equal(t, "Polish", p.Label)
	proc, _ := p.Processor()
	assert.Equal(t, "P", proc.SystemInstruction)
}

func TestPublisher_ToleratesEditedLiveGraph(t *testing.T) {
	g := &graph.Graph{
		Nodes: []*graph.Node{inputNode("in", "x"), processorNode("p", "P")},
		Edges: []*graph.Edge{edge("e1", "in", "p")},
	}

	// the live graph lost node p before the run started
	live := g.Clone()
	require.NoError(t, live.RemoveNode("p"))

	pub := &mirror{g: live}
	engine := NewEngine(&fakeProvider{}, nil, Options{Publisher: pub})

	snap, err := engine.Run(context.Background(), g)
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 2)
	assert.Len(t, pub.g.Nodes, 1)
}
