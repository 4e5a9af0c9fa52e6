package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/typoflow/pkg/validation"
)

// NewImportCommand creates the import command
func NewImportCommand() *cobra.Command {
	var (
		verbose bool
		name    string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "import <workflow-file>",
		Short: "Import a workflow from a file",
		Long: `Import a workflow from a JSON or YAML file and validate it.

This command:
- Checks the document has nodes and edges
- Validates it against the workflow schema
- Migrates input nodes written by older versions
- Saves it to the workflows directory

The imported workflow is saved in ~/.typoflow/workflows/<workflow-name>.json

Examples:
  typoflow import /path/to/workflow.json
  typoflow import ./pipeline.yaml --name pipeline
  typoflow import shared.json --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflowFile := args[0]

			if _, err := os.Stat(workflowFile); os.IsNotExist(err) {
				return fmt.Errorf("workflow file not found: %s", workflowFile)
			}

			doc, err := LoadWorkflowFromFile(workflowFile)
			if err != nil {
				return err
			}
			if verbose {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Parsed %d node(s) and %d edge(s)\n", len(doc.Nodes), len(doc.Edges))
			}

			if name == "" {
				name = validation.SanitizeFileName(workflowNameFromPath(workflowFile))
			}
			if err := validation.ValidateName(name); err != nil {
				return fmt.Errorf("invalid workflow name: %w", err)
			}

			repo, err := workflowRepository()
			if err != nil {
				return err
			}
			if repo.Exists(name) && !force {
				return fmt.Errorf("workflow already exists: %s\n\nUse --force to overwrite or --name to choose another name", name)
			}
			if err := repo.Save(name, doc.Graph(), doc.EdgeType); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported workflow: %s\n", name)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Location: %s\n", repo.Dir())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show import details")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Workflow name (default: file name)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing workflow")

	return cmd
}
