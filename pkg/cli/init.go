package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/validation"
)

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	var (
		preset      string
		force       bool
		listPresets bool
	)

	cmd := &cobra.Command{
		Use:   "init <workflow-name>",
		Short: "Initialize a new workflow",
		Long: `Create a new workflow on the default canvas: one Input node and one Display node.

With --preset a Processor node carrying the preset's system instruction is placed
between them and both edges are connected.

The workflow is created in ~/.typoflow/workflows/<workflow-name>.json

Examples:
  typoflow init my-workflow
  typoflow init summary --preset summarize
  typoflow init --list-presets`,
		Args: func(cmd *cobra.Command, args []string) error {
			if listPresets {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if listPresets {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tLABEL\tCATEGORY\tDESCRIPTION")
				for _, p := range graph.Presets {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Label, p.Category, p.Description)
				}
				return w.Flush()
			}

			workflowName := args[0]
			if err := validation.ValidateName(workflowName); err != nil {
				return fmt.Errorf("invalid workflow name: %w", err)
			}

			repo, err := workflowRepository()
			if err != nil {
				return err
			}
			if repo.Exists(workflowName) && !force {
				return fmt.Errorf("workflow already exists: %s\n\nUse --force to overwrite", workflowName)
			}

			g, err := createWorkflow(preset)
			if err != nil {
				return err
			}
			if err := repo.Save(workflowName, g, graph.EdgeTypeBezier); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Created workflow: %s\n", workflowName)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Location: %s\n", repo.Dir())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  1. Validate: typoflow validate %s\n", workflowName)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  2. Execute: typoflow run %s --watch\n", workflowName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "", "Insert a processor using a built-in preset")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing workflow")
	cmd.Flags().BoolVar(&listPresets, "list-presets", false, "List the built-in processor presets")

	return cmd
}

// createWorkflow returns the default canvas, optionally with a preset
// processor wired between input and display.
func createWorkflow(presetID string) (*graph.Graph, error) {
	g := graph.DefaultCanvas()
	if presetID == "" {
		return g, nil
	}

	p, err := graph.LookupPreset(presetID)
	if err != nil {
		return nil, err
	}
	proc := graph.NewProcessorFromPreset("processor-1", p)
	proc.Position = graph.Position{X: 350, Y: 200}
	if err := g.AddNode(proc); err != nil {
		return nil, err
	}
	for _, e := range []*graph.Edge{
		graph.NewEdge("input-1", proc.ID),
		graph.NewEdge(proc.ID, "display-1"),
	} {
		e.PathType = graph.EdgeTypeBezier
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}
