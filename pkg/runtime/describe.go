package runtime

import (
	"fmt"

	"github.com/hall-dev/flowlang/pkg/stage"
)

// describeStage renders a stage back to call-like text for the explain
// trace, mirroring the reference evaluator's `map(<expr>)`-style lines.
func describeStage(st stage.Stage) string {
	switch s := st.(type) {
	case *stage.MapStage:
		return fmt.Sprintf("map(%s)", s.Expr.String())
	case *stage.FilterStage:
		return fmt.Sprintf("filter(%s)", s.Expr.String())
	case *stage.FlatMapStage:
		return fmt.Sprintf("flat_map(%s)", s.Expr.String())
	case *stage.GroupCollectAllStage:
		return fmt.Sprintf("group.collect_all(by_key=%s, within_ms=%d, limit=%d)", s.ByKey.String(), s.WithinMs, s.Limit)
	case *stage.GroupCountStage:
		return fmt.Sprintf("group.count(by_key=%s)", s.ByKey.String())
	case *stage.RankTopKStage:
		return fmt.Sprintf("rank.topk(k=%d, by=%s, order=%s)", s.K, s.By.String(), s.Order)
	case *stage.GroupTopNItemsStage:
		return fmt.Sprintf("group.topn_items(by_key=%s, n=%d, order_by=%s, order=%s)", s.ByKey.String(), s.N, s.OrderBy.String(), s.Order)
	case *stage.KvLoadStage:
		return fmt.Sprintf("kv.load(store=%q)", s.Store)
	case *stage.LookupKvStage:
		return fmt.Sprintf("lookup.kv(store=%q, key=%s)", s.Store, s.Key.String())
	case *stage.LookupBatchKvStage:
		return fmt.Sprintf("lookup.batch_kv(store=%q, key=%s, batch_size=%d, within_ms=%d)", s.Store, s.Key.String(), s.BatchSize, s.WithinMs)
	case *stage.RbacEvaluateStage:
		return fmt.Sprintf("rbac.evaluate(principal_bindings=%q, role_perms=%q, resource_ancestors=%q)", s.PrincipalBindings, s.RolePerms, s.ResourceAncestors)
	case *stage.JsonStage:
		return "json"
	case *stage.Utf8Stage:
		return "utf8"
	case *stage.Base64Stage:
		return "base64"
	case *stage.UiTableStage:
		return fmt.Sprintf("ui.table(%s)", s.Name)
	case *stage.UiLogStage:
		return fmt.Sprintf("ui.log(%s)", s.Name)
	default:
		return fmt.Sprintf("%T", st)
	}
}
