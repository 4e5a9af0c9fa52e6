package graph

import (
	"errors"

	"github.com/google/uuid"
)

// Common graph errors
var (
	// ErrNodeNotFound is returned when a node id is not present in the graph
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeNotFound is returned when an edge id is not present in the graph
	ErrEdgeNotFound = errors.New("edge not found")
)

// NodeID is a unique identifier for a node within a graph
type NodeID string

// String returns the string representation of the NodeID
func (n NodeID) String() string {
	return string(n)
}

// EdgeID is a unique identifier for an edge within a graph
type EdgeID string

// String returns the string representation of the EdgeID
func (e EdgeID) String() string {
	return string(e)
}

// NewEdgeID generates a new unique EdgeID
func NewEdgeID() EdgeID {
	return EdgeID(uuid.New().String())
}

// NodeType identifies which payload variant a node carries.
type NodeType string

const (
	// NodeTypeInput is a data source; it never calls a provider.
	NodeTypeInput NodeType = "input"
	// NodeTypeProcessor transforms text through the text generation provider.
	NodeTypeProcessor NodeType = "processor"
	// NodeTypeImageGen produces an image through the image generation provider.
	NodeTypeImageGen NodeType = "imageGen"
	// NodeTypeDisplay is a result sink.
	NodeTypeDisplay NodeType = "display"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeInput, NodeTypeProcessor, NodeTypeImageGen, NodeTypeDisplay:
		return true
	}
	return false
}

// NodeStatus is the run status of a node.
type NodeStatus string

const (
	StatusIdle    NodeStatus = "idle"
	StatusRunning NodeStatus = "running"
	StatusSuccess NodeStatus = "success"
	StatusError   NodeStatus = "error"
)

// EdgeStatus is the transient visual status of an edge during a run.
type EdgeStatus string

const (
	// EdgeStatusNone is the default, neutral edge state.
	EdgeStatusNone    EdgeStatus = ""
	EdgeStatusRunning EdgeStatus = "running"
	EdgeStatusDone    EdgeStatus = "done"
)

// ContentType classifies the content held by a display node.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentMarkdown ContentType = "markdown"
	ContentHTML     ContentType = "html"
)
