package runtime

import (
	"github.com/hall-dev/flowlang/pkg/stage"
)

// bindingKind tags whether a name in the environment resolves to a Stream
// or a Stage, per spec.md's "Binding — named entry, either a Stream or a
// Stage" definition.
type bindingKind int

const (
	bindStream bindingKind = iota
	bindStage
)

type binding struct {
	kind   bindingKind
	stream stage.Stream
	stage  stage.Stage
}

func streamBinding(s stage.Stream) binding { return binding{kind: bindStream, stream: s} }
func stageBinding(s stage.Stage) binding   { return binding{kind: bindStage, stage: s} }
