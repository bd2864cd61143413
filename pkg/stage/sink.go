package stage

import (
	"github.com/hall-dev/flowlang/pkg/value"
)

// UiTableStage is a sink: converts every item via value_to_json and appends
// it to the named table in state.Outputs. Emits a single-element Unit
// stream, per §4.4.
type UiTableStage struct {
	Name string
}

func (*UiTableStage) Category() Category { return CategorySink }

func (s *UiTableStage) Apply(state *State, in Stream) (Stream, error) {
	for _, item := range in {
		j, err := value.ToJSON(item)
		if err != nil {
			return nil, err
		}
		state.Outputs.Tables[s.Name] = append(state.Outputs.Tables[s.Name], j)
	}
	return Stream{value.Unit{}}, nil
}

// UiLogStage is a sink: converts every item via value_to_json, serializes
// it to a JSON string, and appends it to the named log in state.Outputs.
type UiLogStage struct {
	Name string
}

func (*UiLogStage) Category() Category { return CategorySink }

func (s *UiLogStage) Apply(state *State, in Stream) (Stream, error) {
	for _, item := range in {
		b, err := value.MarshalJSON(item)
		if err != nil {
			return nil, err
		}
		state.Outputs.Logs[s.Name] = append(state.Outputs.Logs[s.Name], string(b))
	}
	return Stream{value.Unit{}}, nil
}
