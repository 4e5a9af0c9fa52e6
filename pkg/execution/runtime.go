// Package execution runs a graph: it resets run state, walks the graph
// depth-first from every input node, calls the generation provider for
// processor and image nodes, and records a snapshot of the result.
package execution

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/history"
	"github.com/dshills/typoflow/pkg/provider"
	"github.com/google/uuid"
)

// DefaultMaxDepth bounds recursion when Options.MaxDepth is not set.
const DefaultMaxDepth = 1000

// RunState is the engine's run guard.
type RunState int

const (
	// StateIdle means no run is in flight.
	StateIdle RunState = iota
	// StateRunning means a run owns the engine.
	StateRunning
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// Publisher receives every mutation the engine makes to its working graph.
// Implementations apply the update with the same merge functions the engine
// uses, so their view of a node never loses unrelated fields.
type Publisher interface {
	PublishNode(id graph.NodeID, u graph.NodeUpdate)
	PublishEdge(id graph.EdgeID, u graph.EdgeUpdate)
}

// Options configures an Engine.
type Options struct {
	// MaxDepth is the deepest node a run will process. Zero means DefaultMaxDepth.
	MaxDepth int
	// Publisher mirrors mutations into an observable graph. Optional.
	Publisher Publisher
	// Logger records transitions. Nil disables logging.
	Logger *Logger
}

// Engine executes graphs one run at a time.
type Engine struct {
	provider provider.Provider
	history  history.Store
	opts     Options
	monitor  *monitor

	mu    sync.Mutex
	state RunState
	done  chan struct{} // closed when the current run finishes
}

// NewEngine creates an engine that calls p for generation and appends
// snapshots to store. A nil store keeps no history.
func NewEngine(p provider.Provider, store history.Store, opts Options) *Engine {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Engine{
		provider: p,
		history:  store,
		opts:     opts,
		monitor:  newMonitor(),
	}
}

// State reports whether a run is in flight.
func (e *Engine) State() RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Wait blocks until the engine is idle or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateIdle {
		e.mu.Unlock()
		return nil
	}
	done := e.done
	e.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the monitor that streams this engine's events.
func (e *Engine) Events() Monitor {
	return e.monitor
}

// History returns the store snapshots are appended to.
func (e *Engine) History() history.Store {
	return e.history
}

// Close closes every event subscription.
func (e *Engine) Close() error {
	e.monitor.close()
	return nil
}

func (e *Engine) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning {
		return false
	}
	e.state = StateRunning
	e.done = make(chan struct{})
	return true
}

func (e *Engine) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateIdle
	if e.done != nil {
		close(e.done)
		e.done = nil
	}
}

// Run executes g and returns the recorded snapshot. Provider failures never
// fail the run; they end up as Error status on the node concerned. Run only
// returns an error when another run is in flight (ErrAlreadyRunning) or the
// traversal itself fails (*DriverError), in which case no snapshot is
// recorded. g is never modified.
func (e *Engine) Run(ctx context.Context, g *graph.Graph) (*history.Snapshot, error) {
	if !e.acquire() {
		return nil, ErrAlreadyRunning
	}
	defer e.release()
	return e.execute(ctx, g)
}

// Result is the outcome of a run started with Start.
type Result struct {
	Snapshot *history.Snapshot
	Err      error
}

// Start takes the run guard and executes g in a new goroutine. The returned
// channel yields exactly one Result and is then closed. The guard is taken
// before Start returns, so a second Start or Run fails with ErrAlreadyRunning.
func (e *Engine) Start(ctx context.Context, g *graph.Graph) (<-chan Result, error) {
	if !e.acquire() {
		return nil, ErrAlreadyRunning
	}
	// the graph is copied before returning so the caller may keep editing it
	var src *graph.Graph
	if g != nil {
		src = g.Clone()
	}

	results := make(chan Result, 1)
	go func() {
		defer close(results)
		snap, err := e.execute(ctx, src)
		e.release()
		results <- Result{Snapshot: snap, Err: err}
	}()
	return results, nil
}

func (e *Engine) execute(ctx context.Context, g *graph.Graph) (snap *history.Snapshot, err error) {
	runID := uuid.NewString()
	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = &DriverError{
				RunID: runID,
				Op:    "traverse",
				Cause: fmt.Errorf("panic: %v", r),
				Stack: string(debug.Stack()),
			}
		}
		if err != nil {
			e.opts.Logger.LogDriverError(runID, err)
			e.monitor.emit(Event{Type: EventRunFailed, RunID: runID, Error: err})
		}
	}()

	if g == nil {
		return nil, &DriverError{RunID: runID, Op: "validate", Cause: ErrNilGraph}
	}
	if err := g.Validate(); err != nil {
		return nil, &DriverError{RunID: runID, Op: "validate", Cause: err}
	}

	r := newRun(e, runID, g)
	e.opts.Logger.LogRunStart(runID, r.g)
	e.monitor.emit(Event{Type: EventRunStarted, RunID: runID})

	r.reset()
	for _, n := range r.g.InputNodes() {
		r.processSource(ctx, n)
	}

	snap = history.NewSnapshot(r.g.Nodes, r.g.Edges)
	if e.history != nil {
		if err := e.history.Append(ctx, snap); err != nil {
			return nil, &DriverError{RunID: runID, Op: "record", Cause: err}
		}
	}

	e.opts.Logger.LogRunComplete(runID, snap)
	e.monitor.emit(Event{Type: EventRunCompleted, RunID: runID, SnapshotID: snap.ID})
	return snap, nil
}
