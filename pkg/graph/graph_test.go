package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Edits(t *testing.T) {
	g := DefaultCanvas()
	require.NoError(t, g.AddNode(NewNode("p", &ProcessorData{})))
	assert.Error(t, g.AddNode(NewNode("p", &DisplayData{})))
	assert.Error(t, g.AddNode(nil))

	e1 := NewEdge("input-1", "p")
	require.NoError(t, g.AddEdge(e1))
	require.NoError(t, g.AddEdge(&Edge{Source: "p", Target: "display-1"}))
	assert.NotEmpty(t, g.Edges[1].ID)
	assert.Error(t, g.AddEdge(NewEdge("input-1", "p")))

	assert.Equal(t, []*Edge{e1}, OutgoingEdges(g.Edges, "input-1"))
	assert.Len(t, g.InputNodes(), 1)

	require.NoError(t, g.RemoveNode("p"))
	assert.Empty(t, g.Edges)
	assert.ErrorIs(t, g.RemoveNode("p"), ErrNodeNotFound)
	assert.ErrorIs(t, g.RemoveEdge("nope"), ErrEdgeNotFound)
}

func TestGraph_ApplyUpdates(t *testing.T) {
	g := DefaultCanvas()
	e := NewEdge("input-1", "display-1")
	require.NoError(t, g.AddEdge(e))

	require.NoError(t, g.ApplyNodeUpdate("display-1", StatusUpdate(StatusSuccess).WithContent("hi")))
	n, _ := g.Node("display-1")
	d, _ := n.Display()
	assert.Equal(t, "hi", d.Content)

	require.NoError(t, g.ApplyEdgeUpdate(e.ID, EdgeRunning()))
	assert.True(t, g.Edges[0].Animated)

	assert.ErrorIs(t, g.ApplyNodeUpdate("ghost", NodeUpdate{}), ErrNodeNotFound)
	assert.ErrorIs(t, g.ApplyEdgeUpdate("ghost", EdgeDone()), ErrEdgeNotFound)
}

func TestGraph_Validate(t *testing.T) {
	assert.NoError(t, DefaultCanvas().Validate())

	g := DefaultCanvas()
	g.Edges = append(g.Edges, &Edge{ID: "dangling", Source: "input-1", Target: "gone"})
	assert.NoError(t, g.Validate())

	g.Nodes = append(g.Nodes, NewNode("input-1", &InputData{}))
	assert.Error(t, g.Validate())

	g = DefaultCanvas()
	g.Nodes = append(g.Nodes, nil)
	assert.Error(t, g.Validate())

	g = DefaultCanvas()
	g.Edges = append(g.Edges, &Edge{ID: "e", Source: "input-1"})
	assert.Error(t, g.Validate())

	g = DefaultCanvas()
	g.Edges = append(g.Edges,
		&Edge{ID: "e", Source: "input-1", Target: "display-1"},
		&Edge{ID: "e", Source: "display-1", Target: "input-1"},
	)
	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate edge ID: e")
}

func TestGraph_AddEdgeRejectsDuplicateID(t *testing.T) {
	g := DefaultCanvas()
	require.NoError(t, g.AddEdge(&Edge{ID: "e", Source: "input-1", Target: "display-1"}))

	err := g.AddEdge(&Edge{ID: "e", Source: "display-1", Target: "input-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate edge ID")
	assert.Len(t, g.Edges, 1)
}

func TestGraph_CloneIsDeep(t *testing.T) {
	g := DefaultCanvas()
	require.NoError(t, g.AddEdge(NewEdge("input-1", "display-1")))
	c := g.Clone()

	c.Nodes[0].Status = StatusError
	c.Edges[0].Status = EdgeStatusDone
	c.Nodes = c.Nodes[:1]

	assert.Len(t, g.Nodes, 2)
	assert.Equal(t, StatusIdle, g.Nodes[0].Status)
	assert.Equal(t, EdgeStatusNone, g.Edges[0].Status)
	assert.Nil(t, (*Graph)(nil).Clone())
}

func TestCombineInputValue(t *testing.T) {
	tests := []struct {
		name string
		in   InputData
		want string
	}{
		{"empty", InputData{}, ""},
		{"text trimmed", InputData{TextValue: "  hi \n"}, "hi"},
		{"url only", InputData{URLValue: "https://a.b"}, "Context URL: https://a.b"},
		{"unnamed file", InputData{FileContent: "body"}, "File Content (uploaded file):\nbody"},
		{
			"all parts",
			InputData{TextValue: "t", URLValue: "u", FileName: "f.md", FileContent: "c"},
			"t\n\n---\n\nContext URL: u\n\n---\n\nFile Content (f.md):\nc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CombineInputValue(&tt.in))
		})
	}
}

func TestMigrateLegacyInput(t *testing.T) {
	legacy := &InputData{Value: "old"}
	MigrateLegacyInput(legacy)
	assert.Equal(t, "old", legacy.TextValue)

	modern := &InputData{Value: "combined", URLValue: "u"}
	MigrateLegacyInput(modern)
	assert.Empty(t, modern.TextValue)
}

func TestDisplayHelpers(t *testing.T) {
	fenced := "Here you go:\n```html\n<div>card</div>\n```\nEnjoy"
	html, ok := ExtractHTML(fenced)
	require.True(t, ok)
	assert.Equal(t, "<div>card</div>", html)

	_, ok = ExtractHTML("```html\nno tags here\n```")
	assert.False(t, ok)

	raw := "<!DOCTYPE html><html><body>x</body></html>"
	html, ok = ExtractHTML(raw)
	require.True(t, ok)
	assert.Equal(t, raw, html)

	assert.Equal(t, ContentHTML, InferContentType(fenced))
	assert.Equal(t, ContentMarkdown, InferContentType("# Title"))
	assert.Equal(t, ContentMarkdown, InferContentType("some **bold** text"))
	assert.Equal(t, ContentText, InferContentType("plain words"))

	assert.Equal(t, raw, NormalizeHTML(raw))
	wrapped := NormalizeHTML("<div>card</div>")
	assert.Contains(t, wrapped, "<body>\n<div>card</div>\n</body>")
	assert.Contains(t, wrapped, "<!DOCTYPE html>")
}

func TestAspectRatios(t *testing.T) {
	assert.Len(t, AspectRatios, 10)
	assert.True(t, ValidAspectRatio("9:16"))
	assert.False(t, ValidAspectRatio("16:10"))
	assert.Equal(t, DefaultAspectRatio, (&ImageGenData{}).EffectiveAspectRatio())
	assert.Equal(t, "4:5", (&ImageGenData{AspectRatio: "4:5"}).EffectiveAspectRatio())
}

func TestPresets(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Presets {
		assert.False(t, seen[p.ID], "duplicate preset %s", p.ID)
		seen[p.ID] = true
		assert.NotEmpty(t, p.SystemInstruction, p.ID)
	}

	p, err := LookupPreset("summarize")
	require.NoError(t, err)
	n := NewProcessorFromPreset("proc-1", p)
	require.NoError(t, n.Validate())
	d, _ := n.Processor()
	assert.Equal(t, p.SystemInstruction, d.SystemInstruction)
	assert.Equal(t, p.Label, n.Label)

	_, err = LookupPreset("nope")
	assert.Error(t, err)
}
