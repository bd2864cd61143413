package syntax

import "testing"

func TestParseBindingAndPipeline(t *testing.T) {
	src := `xs := input.json("xs") |> json; xs |> map(_ + 1) |> filter(_ > 2) |> ui.table("out");`
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}

	binding, ok := prog.Statements[0].(*BindingStmt)
	if !ok {
		t.Fatalf("expected BindingStmt, got %T", prog.Statements[0])
	}
	if binding.Name != "xs" {
		t.Errorf("expected binding name xs, got %s", binding.Name)
	}
	pipe, ok := binding.Expr.(*PipelineExpr)
	if !ok {
		t.Fatalf("expected PipelineExpr, got %T", binding.Expr)
	}
	call, ok := pipe.Input.(*CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr input, got %T", pipe.Input)
	}
	name, ok := CalleeName(call.Callee)
	if !ok || name != "input.json" {
		t.Errorf("expected callee input.json, got %v ok=%v", name, ok)
	}
	if len(pipe.Stages) != 1 || pipe.Stages[0].(*IdentExpr).Name != "json" {
		t.Errorf("expected single json stage, got %v", pipe.Stages)
	}

	pipeline, ok := prog.Statements[1].(*PipelineStmt)
	if !ok {
		t.Fatalf("expected PipelineStmt, got %T", prog.Statements[1])
	}
	p2, ok := pipeline.Expr.(*PipelineExpr)
	if !ok {
		t.Fatalf("expected PipelineExpr, got %T", pipeline.Expr)
	}
	if len(p2.Stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(p2.Stages))
	}

	mapCall, ok := p2.Stages[0].(*CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr for map stage, got %T", p2.Stages[0])
	}
	mapName, _ := CalleeName(mapCall.Callee)
	if mapName != "map" {
		t.Errorf("expected map callee, got %s", mapName)
	}
	if len(mapCall.Args) != 1 {
		t.Fatalf("expected 1 arg to map, got %d", len(mapCall.Args))
	}
	raw, ok := mapCall.Args[0].(PositionalArg).Value.(*RawExpr)
	if !ok {
		t.Fatalf("expected map arg to fall back to Raw, got %T", mapCall.Args[0].(PositionalArg).Value)
	}
	if raw.Text != "_ + 1" {
		t.Errorf("expected raw text '_ + 1', got %q", raw.Text)
	}
}

func TestParseComposeAndInverse(t *testing.T) {
	prog, err := Parse(`chain := base64 >> ~base64; input.json("bs") |> chain |> ui.table("t");`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	binding := prog.Statements[0].(*BindingStmt)
	compose, ok := binding.Expr.(*ComposeExpr)
	if !ok {
		t.Fatalf("expected ComposeExpr, got %T", binding.Expr)
	}
	left, ok := compose.Left.(*IdentExpr)
	if !ok || left.Name != "base64" {
		t.Errorf("expected left ident base64, got %v", compose.Left)
	}
	right, ok := compose.Right.(*InverseExpr)
	if !ok {
		t.Fatalf("expected InverseExpr on right, got %T", compose.Right)
	}
	if right.Expr.(*IdentExpr).Name != "base64" {
		t.Errorf("expected inverted base64, got %v", right.Expr)
	}
}

func TestParseNamedArgs(t *testing.T) {
	prog, err := Parse(`xs |> group.collect_all(by_key=_.tag, within_ms=0, limit=10) |> ui.table("t");`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	stmt := prog.Statements[0].(*PipelineStmt)
	pipe := stmt.Expr.(*PipelineExpr)
	call := pipe.Stages[0].(*CallExpr)
	name, _ := CalleeName(call.Callee)
	if name != "group.collect_all" {
		t.Fatalf("expected group.collect_all, got %s", name)
	}
	if len(call.Args) != 3 {
		t.Fatalf("expected 3 named args, got %d", len(call.Args))
	}
	byKey := call.Args[0].(NamedArg)
	if byKey.Name != "by_key" {
		t.Errorf("expected by_key, got %s", byKey.Name)
	}
	field, ok := byKey.Value.(*FieldAccessExpr)
	if !ok {
		t.Fatalf("expected FieldAccessExpr for by_key, got %T", byKey.Value)
	}
	if field.Field != "tag" {
		t.Errorf("expected field tag, got %s", field.Field)
	}
	limit := call.Args[2].(NamedArg)
	if limit.Value.(*NumberExpr).Value != 10 {
		t.Errorf("expected limit 10, got %v", limit.Value)
	}
}

func TestParseArrayAndRecordLiterals(t *testing.T) {
	prog, err := Parse(`x := [1, 2, {a: 1, b: "s"}];`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	arr := prog.Statements[0].(*BindingStmt).Expr.(*ArrayExpr)
	if len(arr.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(arr.Items))
	}
	rec, ok := arr.Items[2].(*RecordExpr)
	if !ok {
		t.Fatalf("expected RecordExpr, got %T", arr.Items[2])
	}
	if len(rec.Fields) != 2 || rec.Fields[0].Name != "a" || rec.Fields[1].Name != "b" {
		t.Errorf("unexpected fields: %+v", rec.Fields)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing semicolon", `x := 1`},
		{"unterminated string", `x := "abc;`},
		{"unexpected token", `x := ;`},
		{"unbalanced paren", `x |> map(_ + 1;`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.src); err == nil {
				t.Errorf("expected error for %q, got nil", tt.src)
			}
		})
	}
}
