package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_JSONShape(t *testing.T) {
	n := NewNode("p1", &ProcessorData{SystemInstruction: "polish", OutputData: "done"})
	n.Label = "Polish"
	n.Position = Position{X: 10, Y: 20}
	n.Status = StatusSuccess

	data, err := json.Marshal(n)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "p1", raw["id"])
	assert.Equal(t, "processor", raw["type"])
	inner := raw["data"].(map[string]interface{})
	assert.Equal(t, "Polish", inner["label"])
	assert.Equal(t, "success", inner["status"])
	assert.Equal(t, "polish", inner["systemInstruction"])
	assert.Equal(t, "done", inner["outputData"])
}

func TestNode_JSONRoundTrip(t *testing.T) {
	nodes := []*Node{
		NewNode("in", &InputData{InputType: "text", Value: "v", TextValue: "v", URLValue: "u", FileContent: "c", FileName: "f"}),
		NewNode("p", &ProcessorData{SystemInstruction: "i", InputData: "in", OutputData: "out", ErrorMessage: "e"}),
		NewNode("img", &ImageGenData{Prompt: "cat", AspectRatio: "16:9", InputData: "in", GeneratedImage: "b64", ErrorMessage: "e"}),
		NewNode("d", &DisplayData{Content: "# hi", ContentType: ContentMarkdown}),
	}
	nodes[1].Status = StatusError

	data, err := json.Marshal(nodes)
	require.NoError(t, err)

	var got []*Node
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, nodes, got)
}

func TestNode_UnmarshalDefaultsAndErrors(t *testing.T) {
	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"id":"d","type":"display","position":{"x":1,"y":2},"data":{"content":"x"}}`), &n))
	assert.Equal(t, StatusIdle, n.Status)
	d, ok := n.Display()
	require.True(t, ok)
	assert.Equal(t, "x", d.Content)

	err := json.Unmarshal([]byte(`{"id":"w","type":"webhook","data":{}}`), &n)
	assert.Error(t, err)
}

func TestNode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		node    *Node
		wantErr bool
	}{
		{"valid input", NewNode("a", &InputData{}), false},
		{"empty id", NewNode("", &InputData{}), true},
		{"missing payload", &Node{ID: "a", Type: NodeTypeDisplay}, true},
		{"mismatched payload", &Node{ID: "a", Type: NodeTypeDisplay, Data: &InputData{}}, true},
		{"unknown type", &Node{ID: "a", Type: "webhook"}, true},
		{"valid ratio", NewNode("a", &ImageGenData{AspectRatio: "21:9"}), false},
		{"bad ratio", NewNode("a", &ImageGenData{AspectRatio: "7:3"}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNode_CloneIsDeep(t *testing.T) {
	n := NewNode("p", &ProcessorData{OutputData: "a"})
	c := n.Clone()

	d, _ := c.Processor()
	d.OutputData = "b"
	c.Status = StatusRunning

	orig, _ := n.Processor()
	assert.Equal(t, "a", orig.OutputData)
	assert.Equal(t, StatusIdle, n.Status)
	assert.Nil(t, (*Node)(nil).Clone())
}

func TestNodeUpdate_ShallowMerge(t *testing.T) {
	n := NewNode("p", &ProcessorData{SystemInstruction: "keep", OutputData: "old", ErrorMessage: "stale"})
	n.Label = "Label"

	StatusUpdate(StatusRunning).WithInput("x").Apply(n)
	d, _ := n.Processor()
	assert.Equal(t, StatusRunning, n.Status)
	assert.Equal(t, "x", d.InputData)
	assert.Equal(t, "keep", d.SystemInstruction)
	assert.Equal(t, "old", d.OutputData)
	assert.Equal(t, "stale", d.ErrorMessage)
	assert.Equal(t, "Label", n.Label)

	StatusUpdate(StatusIdle).WithError("").Apply(n)
	assert.Empty(t, d.ErrorMessage)

	// fields the variant does not have are ignored
	disp := NewNode("d", &DisplayData{Content: "c"})
	StatusUpdate(StatusSuccess).WithOutput("ignored").WithImage("ignored").Apply(disp)
	dd, _ := disp.Display()
	assert.Equal(t, "c", dd.Content)

	img := NewNode("i", &ImageGenData{Prompt: "cat"})
	NodeUpdate{}.WithImage("b64").Apply(img)
	id, _ := img.ImageGen()
	assert.Equal(t, "b64", id.GeneratedImage)
	assert.Equal(t, StatusIdle, img.Status)
}

func TestEdgeUpdate(t *testing.T) {
	e := NewEdge("a", "b")
	EdgeRunning().Apply(e)
	assert.True(t, e.Animated)
	assert.Equal(t, EdgeStatusRunning, e.Status)
	EdgeDone().Apply(e)
	assert.False(t, e.Animated)
	assert.Equal(t, EdgeStatusDone, e.Status)
	EdgeReset().Apply(e)
	assert.Equal(t, EdgeStatusNone, e.Status)
}

func TestEdge_JSONRoundTrip(t *testing.T) {
	edges := []*Edge{
		{ID: "e1", Source: "a", Target: "b", Type: DefaultEdgeType, PathType: EdgeTypeSmoothStep, Animated: true, Status: EdgeStatusRunning},
		{ID: "e2", Source: "b", Target: "c"},
	}
	data, err := json.Marshal(edges)
	require.NoError(t, err)

	var got []*Edge
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, edges, got)
}
