// Package bindings is the thin, stable embedding-facing surface: a program
// compiles to a yes/no plus diagnostics, and runs against a JSON fixtures
// blob to produce JSON tables/logs plus a newline-joined explain trace.
// Every function signature here is string-in/string-out so it can sit
// behind a host boundary (CLI flag, HTTP body, FFI) without the caller
// needing to know about this module's internal types.
package bindings

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/runtime"
	"github.com/hall-dev/flowlang/pkg/syntax"
	"github.com/hall-dev/flowlang/pkg/value"
)

// Compile parses program and reports whether it is well-formed. On failure
// diagnostics carries the single diagnostic string; on success it is empty.
func Compile(program string) (ok bool, diagnostics string) {
	if _, err := syntax.Parse(program); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Run parses and executes program against fixturesJSON (a JSON object
// mapping fixture name to its value) and returns tablesJSON/logsJSON (each
// a JSON object keyed by sink name) plus the explain trace joined with
// newlines. On any error tablesJSON/logsJSON are "{}" and explain carries
// "error: <message>", mirroring the original embedding's error convention.
func Run(program string, fixturesJSON string) (tablesJSON string, logsJSON string, explain string) {
	fixtures, err := parseFixtures(fixturesJSON)
	if err != nil {
		return "{}", "{}", "error: invalid fixtures_json: " + err.Error()
	}

	prog, err := syntax.Parse(program)
	if err != nil {
		return "{}", "{}", "error: " + err.Error()
	}

	d := runtime.NewDriver(fixtures, zap.NewNop(), nil)
	outputs, trace, err := d.Run(prog)
	if err != nil {
		return "{}", "{}", "error: " + err.Error()
	}

	tablesBytes, err := json.Marshal(outputs.Tables)
	if err != nil {
		return "{}", "{}", "error: " + err.Error()
	}
	logsBytes, err := json.Marshal(outputs.Logs)
	if err != nil {
		return "{}", "{}", "error: " + err.Error()
	}

	return string(tablesBytes), string(logsBytes), joinLines(trace)
}

func parseFixtures(fixturesJSON string) (map[string]value.Value, error) {
	v, err := value.FromJSON([]byte(fixturesJSON))
	if err != nil {
		return nil, err
	}
	rec, ok := v.(value.Record)
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "fixtures_json must be a JSON object")
	}
	out := make(map[string]value.Value, len(rec))
	for k, val := range rec {
		out[k] = val
	}
	return out, nil
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
