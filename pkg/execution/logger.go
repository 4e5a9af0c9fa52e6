package execution

import (
	"log"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/history"
)

// Logger writes run and node transitions to the standard logger. The CLI
// discards standard log output unless --debug is set.
type Logger struct {
	prefix string
}

// NewLogger creates a logger whose lines are tagged with name, as in
// "[name] run ...".
func NewLogger(name string) *Logger {
	return &Logger{prefix: "[" + name + "] "}
}

// LogRunStart logs the start of a run.
func (l *Logger) LogRunStart(runID string, g *graph.Graph) {
	if l == nil {
		return
	}
	log.Printf("%srun %s started: %d nodes, %d edges", l.prefix, runID, len(g.Nodes), len(g.Edges))
}

// LogNode logs a node status transition. Only status changes are logged.
func (l *Logger) LogNode(runID string, id graph.NodeID, u graph.NodeUpdate) {
	if l == nil || u.Status == nil {
		return
	}
	if u.ErrorMessage != nil && *u.ErrorMessage != "" {
		log.Printf("%srun %s: node %s -> %s: %s", l.prefix, runID, id, *u.Status, *u.ErrorMessage)
		return
	}
	log.Printf("%srun %s: node %s -> %s", l.prefix, runID, id, *u.Status)
}

// LogRunComplete logs the completion of a run.
func (l *Logger) LogRunComplete(runID string, s *history.Snapshot) {
	if l == nil {
		return
	}
	sum := history.Summarize(s)
	log.Printf("%srun %s completed: snapshot %s, %d succeeded, %d failed, %d idle",
		l.prefix, runID, s.ID, sum.Succeeded, sum.Failed, sum.Idle)
}

// LogDriverError logs a run aborted by a driver error.
func (l *Logger) LogDriverError(runID string, err error) {
	if l == nil {
		return
	}
	log.Printf("%srun %s aborted: %v", l.prefix, runID, err)
}

// LogWarning logs a non-fatal problem.
func (l *Logger) LogWarning(format string, args ...interface{}) {
	if l == nil {
		return
	}
	log.Printf(l.prefix+"warning: "+format, args...)
}
