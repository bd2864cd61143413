package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newRouter registers Prometheus collectors on construction, so every test
// in this file shares one router/engine instance rather than building a
// fresh one per test (promauto panics on duplicate registration).
var testRouter = newRouter(zap.NewNop())

func doRequest(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	testRouter.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCompileEndpointRejectsMalformedProgram(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/v1/compile", `{"program": "x :="}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body compileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.OK)
	assert.NotEmpty(t, body.Diagnostics)
}

func TestCompileEndpointAcceptsWellFormedProgram(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/v1/compile", `{"program": "input.json(\"xs\") |> json |> ui.table(\"out\");"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body compileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
}

func TestCompileEndpointRejectsMissingField(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/v1/compile", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunEndpointExecutesProgram(t *testing.T) {
	payload := `{
		"program": "xs := input.json(\"xs\") |> json;\nxs |> map(_ + 1) |> ui.table(\"out\");",
		"fixtures": "{\"xs\": [1, 2]}"
	}`
	rec := doRequest(t, http.MethodPost, "/v1/run", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var body runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{float64(2), float64(3)}, body.Tables["out"])
	assert.NotEmpty(t, body.Explain)
}

func TestMetricsEndpointExposesPrometheusFormat(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flowlang_server_http_requests_total")
}
