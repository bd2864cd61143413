package stage

// ComposeStage applies child stages left-to-right over the same stream,
// threading the result. Implementations MAY flatten nested composes at
// construction time; flatten below does so.
type ComposeStage struct {
	Children []Stage
}

func NewCompose(a, b Stage) *ComposeStage {
	return &ComposeStage{Children: flatten(a, b)}
}

func flatten(a, b Stage) []Stage {
	var out []Stage
	if ac, ok := a.(*ComposeStage); ok {
		out = append(out, ac.Children...)
	} else {
		out = append(out, a)
	}
	if bc, ok := b.(*ComposeStage); ok {
		out = append(out, bc.Children...)
	} else {
		out = append(out, b)
	}
	return out
}

func (c *ComposeStage) Category() Category { return "composite" }

func (c *ComposeStage) Apply(state *State, in Stream) (Stream, error) {
	cur := in
	for _, child := range c.Children {
		next, err := child.Apply(state, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
