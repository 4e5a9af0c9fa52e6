package session

import (
	"fmt"

	"github.com/dshills/typoflow/pkg/graph"
)

// AddNode appends n to the live graph.
func (s *Session) AddNode(n *graph.Node) error {
	return s.Edit(func(g *graph.Graph) error {
		return g.AddNode(n.Clone())
	})
}

// RemoveNode deletes a node and its edges from the live graph.
func (s *Session) RemoveNode(id graph.NodeID) error {
	return s.Edit(func(g *graph.Graph) error {
		return g.RemoveNode(id)
	})
}

// Connect adds an edge from source to target and returns its id.
func (s *Session) Connect(source, target graph.NodeID) (graph.EdgeID, error) {
	var id graph.EdgeID
	err := s.Edit(func(g *graph.Graph) error {
		if _, ok := g.Node(source); !ok {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, source)
		}
		if _, ok := g.Node(target); !ok {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, target)
		}
		e := graph.NewEdge(source, target)
		e.PathType = s.edgeType
		if err := g.AddEdge(e); err != nil {
			return err
		}
		id = e.ID
		return nil
	})
	return id, err
}

// Disconnect removes an edge from the live graph.
func (s *Session) Disconnect(id graph.EdgeID) error {
	return s.Edit(func(g *graph.Graph) error {
		return g.RemoveEdge(id)
	})
}

// SetInput replaces the raw fields of an input node and recomputes its value.
func (s *Session) SetInput(id graph.NodeID, text, url, fileName, fileContent string) error {
	return s.Edit(func(g *graph.Graph) error {
		n, ok := g.Node(id)
		if !ok {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		d, ok := n.Input()
		if !ok {
			return fmt.Errorf("node %s is a %s node, not an input node", id, n.Type)
		}
		d.TextValue = text
		d.URLValue = url
		d.FileName = fileName
		d.FileContent = fileContent
		d.Recombine()
		return nil
	})
}

// SetInstruction changes a processor node's system instruction.
func (s *Session) SetInstruction(id graph.NodeID, instruction string) error {
	return s.Edit(func(g *graph.Graph) error {
		n, ok := g.Node(id)
		if !ok {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		d, ok := n.Processor()
		if !ok {
			return fmt.Errorf("node %s is a %s node, not a processor node", id, n.Type)
		}
		d.SystemInstruction = instruction
		return nil
	})
}
