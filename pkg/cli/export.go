package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/validation"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	var (
		outputPath string
		format     string
		displayDir string
	)

	cmd := &cobra.Command{
		Use:   "export <workflow>",
		Short: "Export a workflow document or its display results",
		Long: `Export a workflow as a JSON or YAML document.

With --display, the content of every Display node is also written to the given
directory: HTML results as standalone .html pages, markdown as .md and plain
text as .txt.

Examples:
  # Export to stdout
  typoflow export my-workflow

  # Export to a YAML file
  typoflow export my-workflow --format yaml -o shared.yaml

  # Write display results after a run saved with --save
  typoflow export my-workflow --display ./out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := resolveWorkflow(args[0])
			if err != nil {
				return fmt.Errorf("failed to load workflow: %w", err)
			}

			data, err := encodeDocument(doc, format)
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, data, 0644); err != nil {
					return fmt.Errorf("failed to write output file: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Workflow exported successfully to: %s\n", outputPath)
			} else if displayDir == "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
			}

			if displayDir != "" {
				written, err := writeDisplays(doc.Graph(), displayDir)
				if err != nil {
					return err
				}
				for _, path := range written {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
				}
				if len(written) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No display node has content yet.")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "json", "Document format (json, yaml)")
	cmd.Flags().StringVar(&displayDir, "display", "", "Write display node contents to this directory")

	return cmd
}

// encodeDocument renders doc as JSON or YAML.
func encodeDocument(doc *graph.Document, format string) ([]byte, error) {
	data, err := graph.Export(doc.Graph(), doc.EdgeType)
	if err != nil {
		return nil, err
	}

	switch format {
	case "json", "":
		return append(data, '\n'), nil
	case "yaml", "yml":
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("failed to re-encode workflow: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal workflow YAML: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown format %q (expected json or yaml)", format)
}

// writeDisplays writes each non-empty display node to dir and returns the
// written paths.
func writeDisplays(g *graph.Graph, dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid display directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create display directory: %w", err)
	}
	validator, err := validation.NewPathValidator(absDir)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, n := range g.Nodes {
		d, ok := n.Display()
		if !ok || d.Content == "" {
			continue
		}

		content := d.Content
		ext := ".txt"
		switch graph.InferContentType(content) {
		case graph.ContentHTML:
			html, _ := graph.ExtractHTML(content)
			content = graph.NormalizeHTML(html)
			ext = ".html"
		case graph.ContentMarkdown:
			ext = ".md"
		}

		path, err := validator.Validate(validation.SanitizeFileName(string(n.ID)) + ext)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
