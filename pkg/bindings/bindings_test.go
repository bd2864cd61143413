package bindings

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileReturnsDiagnosticsOnParseError(t *testing.T) {
	ok, diagnostics := Compile("x :=")
	assert.False(t, ok)
	assert.NotEmpty(t, diagnostics)
}

func TestCompileAcceptsWellFormedProgram(t *testing.T) {
	ok, diagnostics := Compile(`input.json("xs") |> json |> ui.table("out");`)
	assert.True(t, ok)
	assert.Empty(t, diagnostics)
}

func TestRunReturnsOutputJSONStrings(t *testing.T) {
	program := `
xs := input.json("xs") |> json;
xs |> map(_ + 1) |> ui.table("out");
`
	tablesJSON, logsJSON, explain := Run(program, `{"xs": [1, 2]}`)

	var tables map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(tablesJSON), &tables))
	assert.JSONEq(t, "[2, 3]", string(tables["out"]))

	var logs map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(logsJSON), &logs))

	assert.True(t, strings.HasPrefix(explain, "binding xs") || strings.Contains(explain, "pipeline"))
}

func TestRunReportsInvalidFixturesJSON(t *testing.T) {
	tablesJSON, logsJSON, explain := Run(`input.json("xs") |> json |> ui.table("out");`, `not json`)
	assert.Equal(t, "{}", tablesJSON)
	assert.Equal(t, "{}", logsJSON)
	assert.True(t, strings.HasPrefix(explain, "error: invalid fixtures_json:"))
}

func TestRunReportsRuntimeError(t *testing.T) {
	tablesJSON, logsJSON, explain := Run(`undefined_name |> ui.table("x");`, `{}`)
	assert.Equal(t, "{}", tablesJSON)
	assert.Equal(t, "{}", logsJSON)
	assert.True(t, strings.HasPrefix(explain, "error:"))
}
