package execution

import (
	"context"
	"fmt"

	"github.com/dshills/typoflow/pkg/graph"
)

// run is the state of one traversal. g is the single authoritative working
// graph; its edge list is captured at start and never re-read from the
// caller's graph.
type run struct {
	engine *Engine
	id     string
	g      *graph.Graph
	nodes  map[graph.NodeID]*graph.Node
}

func newRun(e *Engine, id string, src *graph.Graph) *run {
	g := src.Clone()
	nodes := make(map[graph.NodeID]*graph.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.ID] = n
	}
	return &run{engine: e, id: id, g: g, nodes: nodes}
}

// updateNode merges u into the working node, then publishes it.
func (r *run) updateNode(n *graph.Node, u graph.NodeUpdate) {
	u.Apply(n)
	if p := r.engine.opts.Publisher; p != nil {
		p.PublishNode(n.ID, u)
	}
	r.engine.opts.Logger.LogNode(r.id, n.ID, u)
	r.engine.monitor.emit(Event{Type: EventNodeUpdated, RunID: r.id, NodeID: n.ID, NodeUpdate: &u})
}

// updateEdge writes u onto the working edge, then publishes it.
func (r *run) updateEdge(e *graph.Edge, u graph.EdgeUpdate) {
	u.Apply(e)
	if p := r.engine.opts.Publisher; p != nil {
		p.PublishEdge(e.ID, u)
	}
	r.engine.monitor.emit(Event{Type: EventEdgeUpdated, RunID: r.id, EdgeID: e.ID, EdgeUpdate: &u})
}

// reset sets every node Idle with no error and every edge to its neutral state.
func (r *run) reset() {
	for _, n := range r.g.Nodes {
		r.updateNode(n, graph.StatusUpdate(graph.StatusIdle).WithError(""))
	}
	for _, e := range r.g.Edges {
		r.updateEdge(e, graph.EdgeReset())
	}
}

// processSource resolves an input node and pushes its value downstream.
func (r *run) processSource(ctx context.Context, n *graph.Node) {
	r.updateNode(n, graph.StatusUpdate(graph.StatusSuccess))
	d, _ := n.Input()
	r.propagate(ctx, n.ID, d.Value, 1)
}

// propagate walks the outgoing edges of id in list order. Each edge is
// Running while its whole downstream subtree is processed, then Done.
func (r *run) propagate(ctx context.Context, id graph.NodeID, payload string, depth int) {
	for _, e := range graph.OutgoingEdges(r.g.Edges, id) {
		r.updateEdge(e, graph.EdgeRunning())
		if target, ok := r.nodes[e.Target]; ok {
			r.process(ctx, target, payload, depth)
		} else {
			r.engine.opts.Logger.LogWarning("run %s: edge %s targets missing node %s", r.id, e.ID, e.Target)
		}
		r.updateEdge(e, graph.EdgeDone())
	}
}

// process handles one arrival of input at n. A node reached along several
// paths is processed once per arrival; the last arrival to finish wins.
func (r *run) process(ctx context.Context, n *graph.Node, input string, depth int) {
	r.updateNode(n, graph.StatusUpdate(graph.StatusRunning).WithInput(input))

	if depth > r.engine.opts.MaxDepth {
		r.fail(n, fmt.Errorf("%w (%d) at node %s", ErrMaxDepthExceeded, r.engine.opts.MaxDepth, n.ID))
		return
	}

	output, err := r.handle(ctx, n, input)
	if err != nil {
		r.fail(n, err)
		return
	}
	if n.Type == graph.NodeTypeInput {
		// an input reached through an edge has nothing to compute and its
		// own edges are driven from the source loop
		return
	}
	r.propagate(ctx, n.ID, output, depth+1)
}

// handle dispatches on the node type and returns what flows downstream. A
// panic inside a provider call is converted to a node error.
func (r *run) handle(ctx context.Context, n *graph.Node, input string) (output string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("node %s panicked: %v", n.ID, rec)
		}
	}()

	switch d := n.Data.(type) {
	case *graph.ProcessorData:
		text, err := r.engine.provider.GenerateText(ctx, input, d.SystemInstruction)
		if err != nil {
			return "", err
		}
		r.updateNode(n, graph.StatusUpdate(graph.StatusSuccess).WithOutput(text))
		return text, nil

	case *graph.ImageGenData:
		ratio := d.EffectiveAspectRatio()
		image, err := r.engine.provider.GenerateImage(ctx, ImagePrompt(d.Prompt, input), ratio)
		if err != nil {
			return "", err
		}
		r.updateNode(n, graph.StatusUpdate(graph.StatusSuccess).WithImage(image))
		return ImageDescription(ratio, d.Prompt), nil

	case *graph.DisplayData:
		r.updateNode(n, graph.StatusUpdate(graph.StatusSuccess).WithContent(input))
		return input, nil

	case *graph.InputData:
		r.updateNode(n, graph.StatusUpdate(graph.StatusSuccess))
		return d.Value, nil

	default:
		return "", fmt.Errorf("node %s: unsupported payload %T", n.ID, n.Data)
	}
}

func (r *run) fail(n *graph.Node, err error) {
	r.updateNode(n, graph.StatusUpdate(graph.StatusError).WithError(err.Error()))
}

// ImagePrompt combines an image node's own prompt with the text that
// arrived on its incoming edge.
func ImagePrompt(prompt, input string) string {
	if input == "" {
		return prompt
	}
	return prompt + "\n\nContext: " + input
}

// ImageDescription is the text an image node passes downstream in place of
// the image itself.
func ImageDescription(aspectRatio, prompt string) string {
	return fmt.Sprintf("[Image generated, aspect ratio: %s] %s", aspectRatio, prompt)
}
