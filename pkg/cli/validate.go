package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dshills/typoflow/pkg/graph"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate <workflow>",
		Short: "Validate a workflow",
		Long: `Validate a workflow file or stored workflow for correctness.

This checks:
- Document structure against the workflow schema
- Node types, payloads and aspect ratios
- Duplicate node ids
- At least one Input node

It also warns about edges pointing at missing nodes, nodes no Input reaches
and cycles, which the engine cuts off at the configured maximum depth.

Examples:
  typoflow validate my-workflow
  typoflow validate ./shared/pipeline.yaml --verbose`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := resolveWorkflow(args[0])
			if err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStderr(), "✗ Failed to load workflow")
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Workflow parsed and structure valid")

			g := doc.Graph()
			if verbose {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Nodes: %d\n", len(g.Nodes))
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Edges: %d\n", len(g.Edges))
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Edge type: %s\n", doc.EdgeType)
			}

			report := analyzeGraph(g)
			if len(g.InputNodes()) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStderr(), "✗ No input node found")
				return fmt.Errorf("workflow must have at least one input node")
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %d input node(s) found\n", len(g.InputNodes()))

			for _, e := range report.DanglingEdges {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "⚠ Edge %s points at missing node %s\n", e.ID, e.Target)
			}
			for _, id := range report.Unreachable {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "⚠ Node %s is not reachable from any input\n", id)
			}
			if len(report.Cycle) > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "⚠ Cycle detected through: %v\n", report.Cycle)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "\n✓ Workflow is valid")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show graph statistics")

	return cmd
}

// graphReport lists problems that do not make a graph invalid but are
// likely mistakes.
type graphReport struct {
	DanglingEdges []*graph.Edge
	Unreachable   []graph.NodeID
	Cycle         []graph.NodeID
}

func analyzeGraph(g *graph.Graph) graphReport {
	var report graphReport

	for _, e := range g.Edges {
		if _, ok := g.Node(e.Target); !ok {
			report.DanglingEdges = append(report.DanglingEdges, e)
		}
	}

	reached := make(map[graph.NodeID]bool)
	var visit func(id graph.NodeID)
	visit = func(id graph.NodeID) {
		if reached[id] {
			return
		}
		reached[id] = true
		for _, e := range graph.OutgoingEdges(g.Edges, id) {
			visit(e.Target)
		}
	}
	for _, n := range g.InputNodes() {
		visit(n.ID)
	}
	for _, n := range g.Nodes {
		if !reached[n.ID] {
			report.Unreachable = append(report.Unreachable, n.ID)
		}
	}

	report.Cycle = findCycle(g)
	return report
}

// findCycle returns the nodes of one cycle in sorted order, or nil.
func findCycle(g *graph.Graph) []graph.NodeID {
	const (
		white = iota
		grey
		black
	)
	color := make(map[graph.NodeID]int, len(g.Nodes))
	var stack []graph.NodeID
	var cycle []graph.NodeID

	var dfs func(id graph.NodeID) bool
	dfs = func(id graph.NodeID) bool {
		color[id] = grey
		stack = append(stack, id)
		for _, e := range graph.OutgoingEdges(g.Edges, id) {
			if _, ok := g.Node(e.Target); !ok {
				continue
			}
			switch color[e.Target] {
			case grey:
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append(cycle, stack[i])
					if stack[i] == e.Target {
						break
					}
				}
				return true
			case white:
				if dfs(e.Target) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, n := range g.Nodes {
		if color[n.ID] == white && dfs(n.ID) {
			sort.Slice(cycle, func(i, j int) bool { return cycle[i] < cycle[j] })
			return cycle
		}
	}
	return nil
}
