package history

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrInvalidFilter is returned when a filter expression does not compile.
var ErrInvalidFilter = errors.New("invalid filter expression")

// Filter selects snapshots whose Summary satisfies a boolean expression,
// for example "failed > 0" or "images >= 1 && nodes < 10".
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles where. An empty expression matches everything.
func CompileFilter(where string) (*Filter, error) {
	where = strings.TrimSpace(where)
	if where == "" {
		return &Filter{}, nil
	}
	program, err := expr.Compile(where, expr.Env(Summary{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return &Filter{source: where, program: program}, nil
}

// Match reports whether s satisfies the filter.
func (f *Filter) Match(s *Snapshot) (bool, error) {
	if f.program == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, Summarize(s))
	if err != nil {
		return false, fmt.Errorf("evaluating %q: %w", f.source, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply returns the snapshots that match, preserving order.
func (f *Filter) Apply(snapshots []*Snapshot) ([]*Snapshot, error) {
	out := make([]*Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		ok, err := f.Match(s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}
