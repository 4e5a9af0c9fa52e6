package graph

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Position is the canvas location of a node. The engine never reads it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Payload is the type-specific part of a node. Exactly one implementation
// exists per NodeType.
type Payload interface {
	Type() NodeType
	clone() Payload
}

// InputData is the payload of an input node.
type InputData struct {
	InputType   string `json:"inputType,omitempty"`
	Value       string `json:"value"`
	TextValue   string `json:"textValue,omitempty"`
	URLValue    string `json:"urlValue,omitempty"`
	FileContent string `json:"fileContent,omitempty"`
	FileName    string `json:"fileName,omitempty"`
}

// Type returns NodeTypeInput
func (d *InputData) Type() NodeType { return NodeTypeInput }

func (d *InputData) clone() Payload {
	c := *d
	return &c
}

// ProcessorData is the payload of a text processor node.
type ProcessorData struct {
	SystemInstruction string `json:"systemInstruction"`
	InputData         string `json:"inputData,omitempty"`
	OutputData        string `json:"outputData,omitempty"`
	ErrorMessage      string `json:"errorMessage,omitempty"`
}

// Type returns NodeTypeProcessor
func (d *ProcessorData) Type() NodeType { return NodeTypeProcessor }

func (d *ProcessorData) clone() Payload {
	c := *d
	return &c
}

// ImageGenData is the payload of an image generation node.
type ImageGenData struct {
	Prompt         string `json:"prompt"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
	InputData      string `json:"inputData,omitempty"`
	GeneratedImage string `json:"generatedImage,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
}

// Type returns NodeTypeImageGen
func (d *ImageGenData) Type() NodeType { return NodeTypeImageGen }

func (d *ImageGenData) clone() Payload {
	c := *d
	return &c
}

// DisplayData is the payload of a display node.
type DisplayData struct {
	Content     string      `json:"content"`
	ContentType ContentType `json:"contentType,omitempty"`
}

// Type returns NodeTypeDisplay
func (d *DisplayData) Type() NodeType { return NodeTypeDisplay }

func (d *DisplayData) clone() Payload {
	c := *d
	return &c
}

// Node is a typed unit of work in the graph.
type Node struct {
	ID       NodeID
	Type     NodeType
	Label    string
	Position Position
	Status   NodeStatus
	Data     Payload
}

// NewNode creates an idle node whose type is taken from its payload.
func NewNode(id NodeID, data Payload) *Node {
	n := &Node{ID: id, Status: StatusIdle, Data: data}
	if data != nil {
		n.Type = data.Type()
	}
	return n
}

// Validate checks that the node has an id and a payload matching its type
func (n *Node) Validate() error {
	if n.ID == "" {
		return errors.New("node: empty node ID")
	}
	if !n.Type.Valid() {
		return fmt.Errorf("node %s: unknown node type %q", n.ID, n.Type)
	}
	if n.Data == nil {
		return fmt.Errorf("node %s: missing %s payload", n.ID, n.Type)
	}
	if n.Data.Type() != n.Type {
		return fmt.Errorf("node %s: payload type %s does not match node type %s", n.ID, n.Data.Type(), n.Type)
	}
	if d, ok := n.Data.(*ImageGenData); ok && d.AspectRatio != "" && !ValidAspectRatio(d.AspectRatio) {
		return fmt.Errorf("node %s: unsupported aspect ratio %q", n.ID, d.AspectRatio)
	}
	return nil
}

// Clone returns a deep, independent copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Data != nil {
		c.Data = n.Data.clone()
	}
	return &c
}

// Input returns the input payload, if the node is an input node.
func (n *Node) Input() (*InputData, bool) {
	d, ok := n.Data.(*InputData)
	return d, ok
}

// Processor returns the processor payload, if the node is a processor node.
func (n *Node) Processor() (*ProcessorData, bool) {
	d, ok := n.Data.(*ProcessorData)
	return d, ok
}

// ImageGen returns the image generation payload, if the node is an image node.
func (n *Node) ImageGen() (*ImageGenData, bool) {
	d, ok := n.Data.(*ImageGenData)
	return d, ok
}

// Display returns the display payload, if the node is a display node.
func (n *Node) Display() (*DisplayData, bool) {
	d, ok := n.Data.(*DisplayData)
	return d, ok
}

// ErrorMessage returns the error message carried by the payload, if any.
func (n *Node) ErrorMessage() string {
	switch d := n.Data.(type) {
	case *ProcessorData:
		return d.ErrorMessage
	case *ImageGenData:
		return d.ErrorMessage
	}
	return ""
}

// nodeMeta holds the fields shared by every node's data object.
type nodeMeta struct {
	Label  string     `json:"label,omitempty"`
	Status NodeStatus `json:"status,omitempty"`
}

type wireNode struct {
	ID       NodeID          `json:"id"`
	Type     NodeType        `json:"type"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data"`
}

// MarshalJSON writes the node in the canvas shape: {id, type, position, data}
// where data carries label, status and the payload fields.
func (n *Node) MarshalJSON() ([]byte, error) {
	meta := nodeMeta{Label: n.Label, Status: n.Status}

	var data interface{}
	switch d := n.Data.(type) {
	case *InputData:
		data = struct {
			nodeMeta
			*InputData
		}{meta, d}
	case *ProcessorData:
		data = struct {
			nodeMeta
			*ProcessorData
		}{meta, d}
	case *ImageGenData:
		data = struct {
			nodeMeta
			*ImageGenData
		}{meta, d}
	case *DisplayData:
		data = struct {
			nodeMeta
			*DisplayData
		}{meta, d}
	case nil:
		data = meta
	default:
		return nil, fmt.Errorf("node %s: unsupported payload %T", n.ID, n.Data)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireNode{ID: n.ID, Type: n.Type, Position: n.Position, Data: raw})
}

// UnmarshalJSON reads a node in the canvas shape and decodes the payload
// variant selected by the type tag.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var meta nodeMeta
	if len(w.Data) > 0 {
		if err := json.Unmarshal(w.Data, &meta); err != nil {
			return fmt.Errorf("node %s: %w", w.ID, err)
		}
	}

	var payload Payload
	switch w.Type {
	case NodeTypeInput:
		payload = &InputData{}
	case NodeTypeProcessor:
		payload = &ProcessorData{}
	case NodeTypeImageGen:
		payload = &ImageGenData{}
	case NodeTypeDisplay:
		payload = &DisplayData{}
	default:
		return fmt.Errorf("node %s: unknown node type %q", w.ID, w.Type)
	}
	if len(w.Data) > 0 {
		if err := json.Unmarshal(w.Data, payload); err != nil {
			return fmt.Errorf("node %s: %w", w.ID, err)
		}
	}

	status := meta.Status
	if status == "" {
		status = StatusIdle
	}

	*n = Node{
		ID:       w.ID,
		Type:     w.Type,
		Label:    meta.Label,
		Position: w.Position,
		Status:   status,
		Data:     payload,
	}
	return nil
}
