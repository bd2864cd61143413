package stage

import (
	"sort"

	"github.com/hall-dev/flowlang/pkg/eval"
	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/syntax"
	"github.com/hall-dev/flowlang/pkg/value"
)

type MapStage struct{ Expr syntax.Expr }

func (*MapStage) Category() Category { return CategoryPure }

func (s *MapStage) Apply(_ *State, in Stream) (Stream, error) {
	out := make(Stream, len(in))
	for i, item := range in {
		v, err := eval.Eval(s.Expr, eval.NewEnv(item))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type FilterStage struct{ Expr syntax.Expr }

func (*FilterStage) Category() Category { return CategoryPure }

func (s *FilterStage) Apply(_ *State, in Stream) (Stream, error) {
	var out Stream
	for _, item := range in {
		v, err := eval.Eval(s.Expr, eval.NewEnv(item))
		if err != nil {
			return nil, err
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, flowerr.New(flowerr.TypeError, "filter predicate must evaluate to Bool, got %s", v.Kind())
		}
		if bool(b) {
			out = append(out, item)
		}
	}
	return out, nil
}

type FlatMapStage struct{ Expr syntax.Expr }

func (*FlatMapStage) Category() Category { return CategoryPure }

func (s *FlatMapStage) Apply(_ *State, in Stream) (Stream, error) {
	var out Stream
	for _, item := range in {
		v, err := eval.Eval(s.Expr, eval.NewEnv(item))
		if err != nil {
			return nil, err
		}
		arr, ok := v.(value.Array)
		if !ok {
			return nil, flowerr.New(flowerr.TypeError, "flat_map expression must evaluate to Array, got %s", v.Kind())
		}
		out = append(out, []value.Value(arr)...)
	}
	return out, nil
}

// groupKeyValue evaluates a key expression and validates it is I64 or
// String. group.count (by_key), group.topn_items (by_key and order_by) and
// rank.topk (by) use it; group.collect_all accepts keys of any kind.
func groupKeyValue(expr syntax.Expr, item value.Value, errMsg string) (value.Value, error) {
	v, err := eval.Eval(expr, eval.NewEnv(item))
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case value.I64, value.String:
		return v, nil
	default:
		return nil, flowerr.New(flowerr.TypeError, "%s", errMsg)
	}
}

type groupBucket struct {
	key   value.Value
	items Stream
}

// groupByFirstSeen groups items by structural key equality, preserving
// first-seen key order.
func groupByFirstSeen(in Stream, keyOf func(value.Value) (value.Value, error)) ([]*groupBucket, error) {
	var order []*groupBucket
	index := make(map[string]*groupBucket)
	for _, item := range in {
		k, err := keyOf(item)
		if err != nil {
			return nil, err
		}
		gk := value.GroupKey(k)
		b, ok := index[gk]
		if !ok {
			b = &groupBucket{key: k}
			index[gk] = b
			order = append(order, b)
		}
		b.items = append(b.items, item)
	}
	return order, nil
}

type GroupCollectAllStage struct {
	ByKey    syntax.Expr
	WithinMs int64
	Limit    int64
}

func (*GroupCollectAllStage) Category() Category { return CategoryPure }

func (s *GroupCollectAllStage) Apply(_ *State, in Stream) (Stream, error) {
	if s.WithinMs < 0 || s.Limit < 0 {
		return nil, flowerr.New(flowerr.InvalidParameter, "group.collect_all: within_ms and limit must be non-negative")
	}
	buckets, err := groupByFirstSeen(in, func(item value.Value) (value.Value, error) {
		return eval.Eval(s.ByKey, eval.NewEnv(item))
	})
	if err != nil {
		return nil, err
	}
	out := make(Stream, len(buckets))
	for i, b := range buckets {
		items := b.items
		if int64(len(items)) > s.Limit {
			items = items[:s.Limit]
		}
		out[i] = value.Record{
			"key":   b.key,
			"items": value.Array(items),
		}
	}
	return out, nil
}

type GroupCountStage struct {
	ByKey syntax.Expr
}

func (*GroupCountStage) Category() Category { return CategoryPure }

func (s *GroupCountStage) Apply(_ *State, in Stream) (Stream, error) {
	buckets, err := groupByFirstSeen(in, func(item value.Value) (value.Value, error) {
		return groupKeyValue(s.ByKey, item, "group.count by_key must evaluate to I64 or String")
	})
	if err != nil {
		return nil, err
	}
	out := make(Stream, len(buckets))
	for i, b := range buckets {
		out[i] = value.Record{
			"key":   b.key,
			"count": value.I64(len(b.items)),
		}
	}
	return out, nil
}

// sortKeyLess compares two I64/String sort keys, with I64 ordered before
// String in cross-type comparison, per spec.
func sortKeyLess(a, b value.Value) bool {
	ai, aIsI := a.(value.I64)
	bi, bIsI := b.(value.I64)
	if aIsI && bIsI {
		return ai < bi
	}
	if aIsI && !bIsI {
		return true
	}
	if !aIsI && bIsI {
		return false
	}
	return a.(value.String) < b.(value.String)
}

func parseOrder(order string) (desc bool, err error) {
	switch order {
	case "asc":
		return false, nil
	case "desc":
		return true, nil
	default:
		return false, flowerr.New(flowerr.InvalidParameter, "order must be \"asc\" or \"desc\", got %q", order)
	}
}

type RankTopKStage struct {
	K     int64
	By    syntax.Expr
	Order string
}

func (*RankTopKStage) Category() Category { return CategoryPure }

func (s *RankTopKStage) Apply(_ *State, in Stream) (Stream, error) {
	if s.K < 0 {
		return nil, flowerr.New(flowerr.InvalidParameter, "rank.topk: k must be non-negative")
	}
	desc, err := parseOrder(s.Order)
	if err != nil {
		return nil, err
	}
	type ranked struct {
		idx int
		key value.Value
		v   value.Value
	}
	rs := make([]ranked, len(in))
	for i, item := range in {
		k, err := groupKeyValue(s.By, item, "rank.topk by must evaluate to I64 or String")
		if err != nil {
			return nil, err
		}
		rs[i] = ranked{idx: i, key: k, v: item}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if desc {
			return sortKeyLess(rs[j].key, rs[i].key)
		}
		return sortKeyLess(rs[i].key, rs[j].key)
	})
	k := int(s.K)
	if k > len(rs) {
		k = len(rs)
	}
	out := make(Stream, k)
	for i := 0; i < k; i++ {
		out[i] = rs[i].v
	}
	return out, nil
}

type GroupTopNItemsStage struct {
	ByKey   syntax.Expr
	N       int64
	OrderBy syntax.Expr
	Order   string
}

func (*GroupTopNItemsStage) Category() Category { return CategoryPure }

func (s *GroupTopNItemsStage) Apply(_ *State, in Stream) (Stream, error) {
	if s.N < 0 {
		return nil, flowerr.New(flowerr.InvalidParameter, "group.topn_items: n must be non-negative")
	}
	desc, err := parseOrder(s.Order)
	if err != nil {
		return nil, err
	}
	buckets, err := groupByFirstSeen(in, func(item value.Value) (value.Value, error) {
		return groupKeyValue(s.ByKey, item, "group.topn_items by_key must evaluate to I64 or String")
	})
	if err != nil {
		return nil, err
	}
	out := make(Stream, len(buckets))
	for bi, b := range buckets {
		type ranked struct {
			idx int
			key value.Value
			v   value.Value
		}
		rs := make([]ranked, len(b.items))
		for i, item := range b.items {
			k, err := groupKeyValue(s.OrderBy, item, "group.topn_items order_by must evaluate to I64 or String")
			if err != nil {
				return nil, err
			}
			rs[i] = ranked{idx: i, key: k, v: item}
		}
		sort.SliceStable(rs, func(i, j int) bool {
			if desc {
				return sortKeyLess(rs[j].key, rs[i].key)
			}
			return sortKeyLess(rs[i].key, rs[j].key)
		})
		n := int(s.N)
		if n > len(rs) {
			n = len(rs)
		}
		items := make(value.Array, n)
		for i := 0; i < n; i++ {
			items[i] = rs[i].v
		}
		out[bi] = value.Record{"key": b.key, "items": items}
	}
	return out, nil
}
