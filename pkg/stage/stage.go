// Package stage implements the closed stage-algebra tagged union: the
// pure transforms, reversible codecs, KV lookups, the RBAC evaluator, and
// sinks, plus the >> composition and ~ inversion operators.
package stage

import (
	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/value"
)

// Stream is a finite ordered sequence of Values. All stages are
// pull-all-then-push: no laziness is required or assumed.
type Stream []value.Value

// Category tags a stage for the explain trace, per the bracketed categories
// spec.md's Program Driver section requires.
type Category string

const (
	CategoryPure       Category = "pure"
	CategoryReversible Category = "reversible"
	CategorySink       Category = "sink"
	CategorySource     Category = "source"
)

// Outputs accumulates the observable side effects of a run, keyed by sink
// name: ui.table rows are JSON-converted values (§3's value_to_json), ui.log
// rows are JSON-serialized strings of the same conversion.
type Outputs struct {
	Tables map[string][]interface{}
	Logs   map[string][]string
}

func NewOutputs() *Outputs {
	return &Outputs{
		Tables: make(map[string][]interface{}),
		Logs:   make(map[string][]string),
	}
}

// State is the runtime state threaded through one run() invocation:
// kv_stores populated by kv.load and consulted by lookup.*, the input
// fixtures table consulted by name (by input.json sources and the RBAC
// stage, which reads fixtures directly rather than through the pipeline),
// and the accumulated sink outputs.
type State struct {
	KVStores map[string]map[string]value.Value
	Fixtures map[string]value.Value
	Outputs  *Outputs
}

func NewState(fixtures map[string]value.Value) *State {
	return &State{
		KVStores: make(map[string]map[string]value.Value),
		Fixtures: fixtures,
		Outputs:  NewOutputs(),
	}
}

// Stage is the tagged-union interface every stage constructor implements.
// Stages are first-class values in the binding environment: `a >> b` binds
// a Compose, `~a` an inverted stage.
type Stage interface {
	Category() Category
	Apply(state *State, in Stream) (Stream, error)
}

// Reversible is implemented by the three codec stages (Json, Utf8, Base64).
// Invert toggles direction; ~ on any Stage not implementing this interface
// fails with StageNotReversible.
type Reversible interface {
	Stage
	Invert() Stage
}

// Invert applies the ~ operator: toggles direction for reversible stages,
// reverses-and-inverts each child for Compose, and fails otherwise.
func Invert(s Stage) (Stage, error) {
	if c, ok := s.(*ComposeStage); ok {
		children := make([]Stage, len(c.Children))
		for i, child := range c.Children {
			inv, err := Invert(child)
			if err != nil {
				return nil, err
			}
			children[len(c.Children)-1-i] = inv
		}
		return &ComposeStage{Children: children}, nil
	}
	if r, ok := s.(Reversible); ok {
		return r.Invert(), nil
	}
	return nil, flowerr.New(flowerr.StageNotReversible, "stage is not reversible")
}
