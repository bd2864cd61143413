package stage

import (
	"github.com/hall-dev/flowlang/pkg/eval"
	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/syntax"
	"github.com/hall-dev/flowlang/pkg/value"
)

// KvLoadStage is a sink: each input must be a Record{key: String, value:
// any}, inserted into state.KVStores[Store]. Emits a single-element
// Unit stream so downstream pipelining stays well-formed.
type KvLoadStage struct {
	Store string
}

func (*KvLoadStage) Category() Category { return CategorySink }

func (s *KvLoadStage) Apply(state *State, in Stream) (Stream, error) {
	store, ok := state.KVStores[s.Store]
	if !ok {
		store = make(map[string]value.Value)
		state.KVStores[s.Store] = store
	}
	for _, item := range in {
		rec, ok := item.(value.Record)
		if !ok {
			return nil, flowerr.New(flowerr.KvSchema, "kv.load row must be a Record")
		}
		keyV, ok := rec["key"]
		if !ok {
			return nil, flowerr.New(flowerr.KvSchema, "kv.load row missing \"key\"")
		}
		key, ok := keyV.(value.String)
		if !ok {
			return nil, flowerr.New(flowerr.KvSchema, "kv.load row \"key\" must be a String")
		}
		val, ok := rec["value"]
		if !ok {
			return nil, flowerr.New(flowerr.KvSchema, "kv.load row missing \"value\"")
		}
		store[string(key)] = val
	}
	return Stream{value.Unit{}}, nil
}

// LookupKvStage evaluates Key per item against state.KVStores[Store],
// emitting {left: item, right: value-or-Null}. A missing store behaves as
// empty (every lookup resolves to Null).
type LookupKvStage struct {
	Store string
	Key   syntax.Expr
}

func (*LookupKvStage) Category() Category { return CategoryPure }

func (s *LookupKvStage) Apply(state *State, in Stream) (Stream, error) {
	out := make(Stream, len(in))
	store := state.KVStores[s.Store]
	for i, item := range in {
		v, err := eval.Eval(s.Key, eval.NewEnv(item))
		if err != nil {
			return nil, err
		}
		key, ok := v.(value.String)
		if !ok {
			return nil, flowerr.New(flowerr.TypeError, "lookup.kv key must evaluate to String, got %s", v.Kind())
		}
		right := value.Value(value.Null{})
		if store != nil {
			if rv, ok := store[string(key)]; ok {
				right = rv
			}
		}
		out[i] = value.Record{"left": item, "right": right}
	}
	return out, nil
}

// LookupBatchKvStage has identical observable behavior to LookupKvStage;
// BatchSize and WithinMs are validated non-negative but semantically inert,
// per spec.
type LookupBatchKvStage struct {
	Store     string
	Key       syntax.Expr
	BatchSize int64
	WithinMs  int64
}

func (*LookupBatchKvStage) Category() Category { return CategoryPure }

func (s *LookupBatchKvStage) Apply(state *State, in Stream) (Stream, error) {
	if s.BatchSize < 0 || s.WithinMs < 0 {
		return nil, flowerr.New(flowerr.InvalidParameter, "lookup.batch_kv: batch_size and within_ms must be non-negative")
	}
	inner := &LookupKvStage{Store: s.Store, Key: s.Key}
	return inner.Apply(state, in)
}
