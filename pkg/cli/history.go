package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/history"
)

// HistoryListFlags holds the flags for the history list command
type HistoryListFlags struct {
	Where string
	Limit int
	JSON  bool
}

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and restore recorded runs",
		Long: `Every run records an immutable snapshot of the graph as it finished.
Snapshots are listed most recent first and can be restored into a stored workflow.`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryRestoreCommand())

	return cmd
}

// withHistoryStore opens the configured store for the duration of fn.
func withHistoryStore(ctx context.Context, fn func(history.Store) error) error {
	configDir := GetConfigDir()
	settings, err := LoadSettings(configDir)
	if err != nil {
		return err
	}
	store, closeStore, err := openHistoryStore(ctx, settings, configDir)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() { _ = closeStore() }()
	return fn(store)
}

func newHistoryListCommand() *cobra.Command {
	flags := &HistoryListFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Long: `List recorded runs, most recent first.

--where filters runs with an expression over: id, timestamp, nodes, edges,
succeeded, failed, idle and images.

Examples:
  typoflow history list
  typoflow history list --where "failed > 0"
  typoflow history list --where "images >= 1 && nodes < 10" --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Where, "where", "", "Filter expression")
	cmd.Flags().IntVar(&flags.Limit, "limit", 20, "Maximum number of runs to display (0 for all)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output as JSON")

	return cmd
}

func runHistoryList(cmd *cobra.Command, flags *HistoryListFlags) error {
	if flags.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	filter, err := history.CompileFilter(flags.Where)
	if err != nil {
		return err
	}

	return withHistoryStore(cmd.Context(), func(store history.Store) error {
		snapshots, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		matched, err := filter.Apply(snapshots)
		if err != nil {
			return err
		}
		if flags.Limit > 0 && len(matched) > flags.Limit {
			matched = matched[:flags.Limit]
		}

		summaries := make([]history.Summary, 0, len(matched))
		for _, s := range matched {
			summaries = append(summaries, history.Summarize(s))
		}

		if flags.JSON {
			output, err := json.MarshalIndent(summaries, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal output: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		}

		if len(summaries) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tTIME\tNODES\tSUCCEEDED\tFAILED\tIMAGES")
		for _, s := range summaries {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
				s.ID,
				time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04:05"),
				s.Nodes, s.Succeeded, s.Failed, s.Images)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if counter, ok := store.(history.FailureCounter); ok {
			failed, err := counter.CountFailed(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count failed runs: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d recorded run(s) had failed nodes\n", failed, len(snapshots))
		}
		return nil
	})
}

func newHistoryShowCommand() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "show <snapshot-id>",
		Short: "Show the nodes of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(cmd.Context(), func(store history.Store) error {
				snap, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if outputJSON {
					output, err := json.MarshalIndent(snap, "", "  ")
					if err != nil {
						return fmt.Errorf("failed to marshal output: %w", err)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(output))
					return nil
				}

				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Snapshot: %s\n", snap.ID)
				_, _ = fmt.Fprintf(out, "Recorded: %s\n\n", snap.Time().Format(time.RFC3339))

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "NODE\tTYPE\tSTATUS\tDETAIL")
				for _, n := range snap.Nodes {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Type, n.Status, nodeDetail(n))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output the full snapshot as JSON")

	return cmd
}

// nodeDetail is a one-line description of a node's result.
func nodeDetail(n *graph.Node) string {
	if msg := n.ErrorMessage(); msg != "" {
		return truncate(msg, 60)
	}
	switch d := n.Data.(type) {
	case *graph.InputData:
		return truncate(d.Value, 60)
	case *graph.ProcessorData:
		return truncate(d.OutputData, 60)
	case *graph.ImageGenData:
		if d.GeneratedImage != "" {
			return fmt.Sprintf("image %s, %d bytes base64", d.EffectiveAspectRatio(), len(d.GeneratedImage))
		}
	case *graph.DisplayData:
		return truncate(d.Content, 60)
	}
	return ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == '\n' {
			runes = runes[:i]
			break
		}
	}
	if len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return string(runes)
}

func newHistoryRestoreCommand() *cobra.Command {
	var (
		to    string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "restore <snapshot-id>",
		Short: "Restore a recorded run into a stored workflow",
		Long: `Write the graph captured by a snapshot, including its results, to a stored
workflow. Restoring does not run the workflow.

Examples:
  typoflow history restore 0192f3c4-... --to my-workflow --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("target workflow is required (use --to flag)")
			}
			repo, err := workflowRepository()
			if err != nil {
				return err
			}
			if repo.Exists(to) && !force {
				return fmt.Errorf("workflow already exists: %s\n\nUse --force to overwrite", to)
			}

			return withHistoryStore(cmd.Context(), func(store history.Store) error {
				snap, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				edgeType := graph.EdgeTypeBezier
				if len(snap.Edges) > 0 && snap.Edges[0].PathType != "" {
					edgeType = snap.Edges[0].PathType
				}
				if err := repo.Save(to, history.Restore(snap), edgeType); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Restored snapshot %s to workflow %s\n", snap.ID, to)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Workflow name to write the restored graph to")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing workflow")

	return cmd
}
