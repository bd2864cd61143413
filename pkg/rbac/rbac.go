// Package rbac implements the RBAC stage's evaluation algorithm: ancestor
// closure over a resource hierarchy, principal-to-role lookup, and
// role+action+resource permission matching, against three fixture tables.
package rbac

import "github.com/hall-dev/flowlang/pkg/flowerr"

// Binding is one row of the principal_bindings fixture.
type Binding struct {
	Principal string
	Role      string
}

// Perm is one row of the role_perms fixture.
type Perm struct {
	Role     string
	Action   string
	Resource string
}

// Edge is one row of the resource_ancestors fixture: a directed edge from a
// resource to an immediate ancestor.
type Edge struct {
	Resource string
	Ancestor string
}

// Request is a single stream item to evaluate: {principal, action, resource}.
type Request struct {
	Principal string
	Action    string
	Resource  string
}

// Decision is the stage's per-item output shape.
type Decision struct {
	Allow   bool
	Matches []Perm
}

// Evaluate runs the four-step algorithm from §4.5:
//  1. BFS ancestor-closure of req.Resource over Ancestors edges (child to
//     immediate ancestor), discovery order, deduped by string equality.
//  2. Roles for req.Principal from Bindings, fixture order, duplicates kept.
//  3. For each such role (outer) and each Perms row (inner), a match is a row
//     whose Role equals the role, Action equals req.Action, and Resource is
//     in the ancestor-closure.
//  4. allow iff matches is non-empty.
func Evaluate(bindings []Binding, perms []Perm, ancestors []Edge, req Request) Decision {
	closure := ancestorClosure(ancestors, req.Resource)
	closureSet := make(map[string]bool, len(closure))
	for _, r := range closure {
		closureSet[r] = true
	}

	var roles []string
	for _, b := range bindings {
		if b.Principal == req.Principal {
			roles = append(roles, b.Role)
		}
	}

	var matches []Perm
	for _, role := range roles {
		for _, p := range perms {
			if p.Role == role && p.Action == req.Action && closureSet[p.Resource] {
				matches = append(matches, p)
			}
		}
	}

	return Decision{Allow: len(matches) > 0, Matches: matches}
}

func ancestorClosure(edges []Edge, resource string) []string {
	seen := map[string]bool{resource: true}
	order := []string{resource}
	queue := []string{resource}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range edges {
			if e.Resource == cur && !seen[e.Ancestor] {
				seen[e.Ancestor] = true
				order = append(order, e.Ancestor)
				queue = append(queue, e.Ancestor)
			}
		}
	}
	return order
}

// ErrSchema wraps a RbacSchema violation with a stable message prefix.
func ErrSchema(format string, args ...any) error {
	return flowerr.New(flowerr.RbacSchema, format, args...)
}
