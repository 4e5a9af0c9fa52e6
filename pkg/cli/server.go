package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/typoflow/pkg/server"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var (
		addr         string
		workflowArg  string
		providerName string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API used by the canvas UI",
		Long: `Start an HTTP API around a single editing session. The canvas UI edits the
live graph, starts runs, streams status events and restores history through it.

Routes are served under /api: graph, nodes, edges, run, events, history,
presets and aspect-ratios.

Examples:
  typoflow serve
  typoflow serve --addr 127.0.0.1:8080 --workflow my-workflow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, settings, cleanup, err := openSession(ctx, providerName)
			if err != nil {
				return err
			}
			defer cleanup()

			if workflowArg != "" {
				doc, _, err := resolveWorkflow(workflowArg)
				if err != nil {
					return err
				}
				if err := sess.Replace(doc.Graph()); err != nil {
					return err
				}
				_ = sess.SetEdgeType(doc.EdgeType)
			}

			if addr == "" {
				addr = settings.Server.Addr
			}

			srv := server.New(sess)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen(addr)
			}()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving typoflow API on %s\n", addr)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			// let an in-flight run record its snapshot before the store closes
			_ = sess.Engine().Wait(shutdownCtx)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config.yaml)")
	cmd.Flags().StringVar(&workflowArg, "workflow", "", "Load a stored workflow or file into the session")
	cmd.Flags().StringVar(&providerName, "provider", "", "Override the configured provider (echo, openai)")

	return cmd
}
