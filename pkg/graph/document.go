package graph

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const (
	// DocumentVersion is written into every exported workflow file.
	DocumentVersion = "1.0"

	// EdgeTypeBezier is the default edge rendering style.
	EdgeTypeBezier = "bezier"
	// EdgeTypeSmoothStep renders edges as right-angled steps.
	EdgeTypeSmoothStep = "smoothstep"
)

//go:embed workflow.schema.json
var workflowSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

// ErrMissingGraph is returned when a workflow document lacks nodes or edges.
var ErrMissingGraph = errors.New("workflow document must contain nodes and edges")

// ImportError reports a workflow document that could not be imported. The
// live graph must be left untouched when it is returned.
type ImportError struct {
	Reason string
	Cause  error
}

func (e *ImportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid workflow file: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid workflow file: %s", e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ImportError) Unwrap() error {
	return e.Cause
}

// Document is the workflow file exchanged by import and export.
type Document struct {
	Nodes     []*Node `json:"nodes"`
	Edges     []*Edge `json:"edges"`
	EdgeType  string  `json:"edgeType"`
	Version   string  `json:"version"`
	Timestamp int64   `json:"timestamp"`
}

// NewDocument wraps a graph for export, stamping version and time.
func NewDocument(g *Graph, edgeType string) *Document {
	if edgeType == "" {
		edgeType = EdgeTypeBezier
	}
	c := g.Clone()
	return &Document{
		Nodes:     c.Nodes,
		Edges:     c.Edges,
		EdgeType:  edgeType,
		Version:   DocumentVersion,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Graph returns the document's nodes and edges as a graph.
func (d *Document) Graph() *Graph {
	return &Graph{Nodes: d.Nodes, Edges: d.Edges}
}

// Export serializes a graph into an indented workflow document.
func Export(g *Graph, edgeType string) ([]byte, error) {
	if g == nil {
		return nil, errors.New("cannot export nil graph")
	}
	data, err := json.MarshalIndent(NewDocument(g, edgeType), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow: %w", err)
	}
	return data, nil
}

// ParseDocument decodes and validates a JSON workflow document. Every edge
// takes the document's edge type as its path type, and input nodes holding
// only a legacy value are migrated.
func ParseDocument(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, &ImportError{Reason: "empty document"}
	}
	if !gjson.ValidBytes(data) {
		return nil, &ImportError{Reason: "malformed JSON"}
	}
	if !gjson.GetBytes(data, "nodes").IsArray() || !gjson.GetBytes(data, "edges").IsArray() {
		return nil, &ImportError{Reason: "missing nodes or edges", Cause: ErrMissingGraph}
	}

	if err := validateSchema(data); err != nil {
		return nil, &ImportError{Reason: "schema validation failed", Cause: err}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ImportError{Reason: "decode failed", Cause: err}
	}

	if doc.EdgeType == "" {
		doc.EdgeType = EdgeTypeBezier
	}
	for _, e := range doc.Edges {
		e.PathType = doc.EdgeType
	}
	for _, n := range doc.Nodes {
		if in, ok := n.Input(); ok {
			MigrateLegacyInput(in)
		}
	}

	if err := doc.Graph().Validate(); err != nil {
		return nil, &ImportError{Reason: "invalid graph", Cause: err}
	}
	return &doc, nil
}

// ParseYAMLDocument accepts the same document shape written as YAML.
func ParseYAMLDocument(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, &ImportError{Reason: "empty document"}
	}
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, &ImportError{Reason: "malformed YAML", Cause: err}
	}
	jsonBytes, err := json.Marshal(generic)
	if err != nil {
		return nil, &ImportError{Reason: "YAML is not representable as JSON", Cause: err}
	}
	return ParseDocument(jsonBytes)
}

func validateSchema(data []byte) error {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(workflowSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("failed to load workflow schema: %w", schemaErr)
	}

	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}
