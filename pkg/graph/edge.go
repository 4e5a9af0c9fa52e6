package graph

import (
	"encoding/json"
	"errors"
)

// DefaultEdgeType is the renderer tag attached to edges created by the canvas.
const DefaultEdgeType = "disconnectable"

// Edge represents a directed connection from one node's output to another
// node's input. Animated and Status are transient run state.
type Edge struct {
	ID       EdgeID
	Source   NodeID
	Target   NodeID
	Type     string
	PathType string
	Animated bool
	Status   EdgeStatus
}

// NewEdge creates an edge between two nodes with a generated id.
func NewEdge(source, target NodeID) *Edge {
	return &Edge{
		ID:     NewEdgeID(),
		Source: source,
		Target: target,
		Type:   DefaultEdgeType,
	}
}

// Validate checks if the edge is valid
func (e *Edge) Validate() error {
	if e.ID == "" {
		return errors.New("edge: empty edge ID")
	}
	if e.Source == "" {
		return errors.New("edge: empty source node")
	}
	if e.Target == "" {
		return errors.New("edge: empty target node")
	}
	return nil
}

// Clone returns an independent copy of the edge.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

type edgeData struct {
	PathType string     `json:"pathType,omitempty"`
	Status   EdgeStatus `json:"status,omitempty"`
}

type wireEdge struct {
	ID       EdgeID    `json:"id"`
	Source   NodeID    `json:"source"`
	Target   NodeID    `json:"target"`
	Type     string    `json:"type,omitempty"`
	Animated bool      `json:"animated"`
	Data     *edgeData `json:"data,omitempty"`
}

// MarshalJSON implements custom JSON marshaling for Edge
func (e *Edge) MarshalJSON() ([]byte, error) {
	w := wireEdge{
		ID:       e.ID,
		Source:   e.Source,
		Target:   e.Target,
		Type:     e.Type,
		Animated: e.Animated,
	}
	if e.PathType != "" || e.Status != EdgeStatusNone {
		w.Data = &edgeData{PathType: e.PathType, Status: e.Status}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling for Edge
func (e *Edge) UnmarshalJSON(data []byte) error {
	var w wireEdge
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Edge{
		ID:       w.ID,
		Source:   w.Source,
		Target:   w.Target,
		Type:     w.Type,
		Animated: w.Animated,
	}
	if w.Data != nil {
		e.PathType = w.Data.PathType
		e.Status = w.Data.Status
	}
	return nil
}

// OutgoingEdges returns the edges whose source is id, in list order.
func OutgoingEdges(edges []*Edge, id NodeID) []*Edge {
	var out []*Edge
	for _, e := range edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}
