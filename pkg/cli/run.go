package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	flowerrors "github.com/dshills/typoflow/pkg/errors"
	"github.com/dshills/typoflow/pkg/execution"
	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/history"
	"github.com/dshills/typoflow/pkg/session"
)

// runOutput is the --output-json shape of a finished run.
type runOutput struct {
	Workflow string            `json:"workflow"`
	Summary  history.Summary   `json:"summary"`
	Duration float64           `json:"duration"`
	Nodes    []runNodeOutput   `json:"nodes"`
	Displays map[string]string `json:"displays"`
}

type runNodeOutput struct {
	ID     graph.NodeID     `json:"id"`
	Type   graph.NodeType   `json:"type"`
	Status graph.NodeStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		watch        bool
		outputJSON   bool
		save         bool
		providerName string
	)

	cmd := &cobra.Command{
		Use:   "run <workflow>",
		Short: "Execute a workflow",
		Long: `Execute a workflow and record the run in history.

The workflow is either a stored name, loaded from ~/.typoflow/workflows/<name>.json,
or a path to a JSON or YAML workflow file.

Examples:
  # Run a stored workflow
  typoflow run my-workflow

  # Print node transitions as they happen
  typoflow run my-workflow --watch

  # Run offline with the echo provider
  typoflow run ./pipeline.yaml --provider echo

  # Keep the results in the stored workflow
  typoflow run my-workflow --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, name, err := resolveWorkflow(args[0])
			if err != nil {
				return err
			}
			label := name
			if label == "" {
				label = workflowNameFromPath(args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sess, _, cleanup, err := openSession(ctx, providerName)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := sess.Replace(doc.Graph()); err != nil {
				return flowerrors.NewOperationalError("loading workflow", label, "", err)
			}
			if err := sess.SetEdgeType(doc.EdgeType); err != nil {
				log.Printf("run: keeping default edge type: %v", err)
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				out = io.Discard
			}
			_, _ = fmt.Fprintf(out, "✓ Running workflow %s\n", label)

			startTime := time.Now()
			snap, err := executeRun(ctx, sess, watch, out)
			if err != nil {
				return flowerrors.NewOperationalError("running workflow", label, "", err)
			}
			elapsed := time.Since(startTime)

			if save {
				repo, err := workflowRepository()
				if err != nil {
					return err
				}
				if err := repo.Save(label, sess.Graph(), sess.EdgeType()); err != nil {
					return flowerrors.NewOperationalError("saving results", label, "", err)
				}
				_, _ = fmt.Fprintf(out, "✓ Results saved to workflow %s\n", label)
			}

			summary := history.Summarize(snap)
			if outputJSON {
				if err := writeRunJSON(cmd.OutOrStdout(), label, snap, summary, elapsed); err != nil {
					return err
				}
			} else {
				printRunResult(out, snap, summary, elapsed)
			}

			if summary.Failed > 0 {
				var firstFailed graph.NodeID
				for _, n := range snap.Nodes {
					if n.Status == graph.StatusError {
						firstFailed = n.ID
						break
					}
				}
				return flowerrors.NewOperationalError("running workflow", label, string(firstFailed),
					fmt.Errorf("%d node(s) failed", summary.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Print node transitions in real-time")
	cmd.Flags().BoolVar(&outputJSON, "output-json", false, "Output result as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "Save the finished graph back to the workflow repository")
	cmd.Flags().StringVar(&providerName, "provider", "", "Override the configured provider (echo, openai)")

	return cmd
}

// executeRun runs the session's graph. With watch set, node transitions are
// printed to out as the engine reports them.
func executeRun(ctx context.Context, sess *session.Session, watch bool, out io.Writer) (*history.Snapshot, error) {
	if !watch {
		return sess.Run(ctx)
	}

	monitor := sess.Engine().Events()
	events := monitor.SubscribeFiltered(execution.EventFilter{
		EventTypes: []execution.EventType{
			execution.EventNodeUpdated,
			execution.EventRunCompleted,
			execution.EventRunFailed,
		},
	})
	defer monitor.Unsubscribe(events)

	tracker := execution.NewProgressTracker(len(sess.Graph().Nodes))

	results, err := sess.Start(ctx)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case event := <-events:
			tracker.Track(event)
			printEvent(out, event, tracker.GetProgress())
		case res := <-results:
			// Events are emitted before the result is sent, so whatever
			// is still buffered belongs to this run.
			for {
				select {
				case event := <-events:
					tracker.Track(event)
					printEvent(out, event, tracker.GetProgress())
				default:
					return res.Snapshot, res.Err
				}
			}
		}
	}
}

func printEvent(out io.Writer, event execution.Event, progress execution.Progress) {
	if event.Dropped > 0 {
		_, _ = fmt.Fprintf(out, "  ⚠ %d update(s) not shown\n", event.Dropped)
	}
	if event.NodeUpdate == nil || event.NodeUpdate.Status == nil {
		return
	}
	status := *event.NodeUpdate.Status
	switch status {
	case graph.StatusRunning:
		_, _ = fmt.Fprintf(out, "  … %s running\n", event.NodeID)
	case graph.StatusSuccess:
		_, _ = fmt.Fprintf(out, "  ✓ %s completed [%3.0f%%]\n", event.NodeID, progress.PercentComplete)
	case graph.StatusError:
		msg := ""
		if event.NodeUpdate.ErrorMessage != nil {
			msg = ": " + *event.NodeUpdate.ErrorMessage
		}
		_, _ = fmt.Fprintf(out, "  ✗ %s failed%s [%3.0f%%]\n", event.NodeID, msg, progress.PercentComplete)
	}
}

func printRunResult(out io.Writer, snap *history.Snapshot, summary history.Summary, elapsed time.Duration) {
	_, _ = fmt.Fprintf(out, "\n%d succeeded, %d failed, %d not reached (%.2fs)\n",
		summary.Succeeded, summary.Failed, summary.Idle, elapsed.Seconds())

	for _, n := range snap.Nodes {
		if msg := n.ErrorMessage(); msg != "" {
			_, _ = fmt.Fprintf(out, "  ✗ %s: %s\n", n.ID, msg)
		}
	}
	for _, n := range snap.Nodes {
		d, ok := n.Display()
		if !ok || d.Content == "" {
			continue
		}
		_, _ = fmt.Fprintf(out, "\n── %s (%s) ──\n%s\n", n.ID, graph.InferContentType(d.Content), d.Content)
	}
	_, _ = fmt.Fprintf(out, "\nSnapshot: %s\n", snap.ID)
}

func writeRunJSON(w io.Writer, label string, snap *history.Snapshot, summary history.Summary, elapsed time.Duration) error {
	result := runOutput{
		Workflow: label,
		Summary:  summary,
		Duration: elapsed.Seconds(),
		Nodes:    make([]runNodeOutput, 0, len(snap.Nodes)),
		Displays: make(map[string]string),
	}
	for _, n := range snap.Nodes {
		result.Nodes = append(result.Nodes, runNodeOutput{
			ID:     n.ID,
			Type:   n.Type,
			Status: n.Status,
			Error:  n.ErrorMessage(),
		})
		if d, ok := n.Display(); ok {
			result.Displays[string(n.ID)] = d.Content
		}
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
