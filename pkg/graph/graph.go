package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Graph is the node/edge model the engine operates on. Node and edge order
// is significant: input nodes and outgoing edges are visited in list order.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		Nodes: make([]*Node, 0),
		Edges: make([]*Edge, 0),
	}
}

// DefaultCanvas returns the starting canvas: one input node wired to nothing
// and one display node.
func DefaultCanvas() *Graph {
	in := NewNode("input-1", &InputData{InputType: "text", Value: "..."})
	in.Label = "Input"
	in.Position = Position{X: 100, Y: 200}

	out := NewNode("display-1", &DisplayData{ContentType: ContentText})
	out.Label = "Display"
	out.Position = Position{X: 600, Y: 200}

	return &Graph{Nodes: []*Node{in, out}, Edges: make([]*Edge, 0)}
}

// Clone returns a deep, independent copy of the graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	return &Graph{Nodes: CloneNodes(g.Nodes), Edges: CloneEdges(g.Edges)}
}

// CloneNodes deep-copies a node list.
func CloneNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// CloneEdges deep-copies an edge list.
func CloneEdges(edges []*Edge) []*Edge {
	out := make([]*Edge, len(edges))
	for i, e := range edges {
		out[i] = e.Clone()
	}
	return out
}

// Node looks a node up by id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Edge looks an edge up by id.
func (g *Graph) Edge(id EdgeID) (*Edge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// InputNodes returns the input nodes in list order.
func (g *Graph) InputNodes() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Type == NodeTypeInput {
			out = append(out, n)
		}
	}
	return out
}

// ApplyNodeUpdate merges u into the node with the given id.
func (g *Graph) ApplyNodeUpdate(id NodeID, u NodeUpdate) error {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	u.Apply(n)
	return nil
}

// ApplyEdgeUpdate writes u onto the edge with the given id.
func (g *Graph) ApplyEdgeUpdate(id EdgeID, u EdgeUpdate) error {
	e, ok := g.Edge(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	u.Apply(e)
	return nil
}

// AddNode appends a node. Duplicate ids are rejected.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return errors.New("cannot add nil node")
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if _, exists := g.Node(n.ID); exists {
		return fmt.Errorf("duplicate node ID: %s", n.ID)
	}
	g.Nodes = append(g.Nodes, n)
	return nil
}

// RemoveNode removes a node and every edge connected to it
func (g *Graph) RemoveNode(id NodeID) error {
	found := false
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == id {
			found = true
			continue
		}
		nodes = append(nodes, n)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	g.Nodes = nodes

	edges := make([]*Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	g.Edges = edges
	return nil
}

// AddEdge appends an edge, generating an id when none is set. A second edge
// between the same pair of nodes is rejected.
func (g *Graph) AddEdge(e *Edge) error {
	if e == nil {
		return errors.New("cannot add nil edge")
	}
	for _, existing := range g.Edges {
		if existing.Source == e.Source && existing.Target == e.Target {
			return fmt.Errorf("duplicate edge from %s to %s", e.Source, e.Target)
		}
		if e.ID != "" && existing.ID == e.ID {
			return fmt.Errorf("duplicate edge ID: %s", e.ID)
		}
	}
	if e.ID == "" {
		e.ID = NewEdgeID()
	}
	if err := e.Validate(); err != nil {
		return err
	}
	g.Edges = append(g.Edges, e)
	return nil
}

// RemoveEdge removes an edge by id
func (g *Graph) RemoveEdge(id EdgeID) error {
	found := false
	edges := make([]*Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.ID == id {
			found = true
			continue
		}
		edges = append(edges, e)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	g.Edges = edges
	return nil
}

// Validate checks the structural invariants the engine relies on: every node
// is well formed and node and edge ids are unique. Edges pointing at missing nodes
// are allowed; traversal skips them.
func (g *Graph) Validate() error {
	var problems []string

	seen := make(map[NodeID]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n == nil {
			problems = append(problems, fmt.Sprintf("node %d is nil", i))
			continue
		}
		if err := n.Validate(); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if seen[n.ID] {
			problems = append(problems, fmt.Sprintf("duplicate node ID: %s", n.ID))
		}
		seen[n.ID] = true
	}

	seenEdges := make(map[EdgeID]bool, len(g.Edges))
	for i, e := range g.Edges {
		if e == nil {
			problems = append(problems, fmt.Sprintf("edge %d is nil", i))
			continue
		}
		if err := e.Validate(); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if seenEdges[e.ID] {
			problems = append(problems, fmt.Sprintf("duplicate edge ID: %s", e.ID))
		}
		seenEdges[e.ID] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("graph validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
