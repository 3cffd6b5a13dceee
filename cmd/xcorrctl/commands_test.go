package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xcorr/pkg/correlation/xprop"
	"github.com/omeyang/xcorr/pkg/observability/xlog"
)

const validHeader = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"xcorrctl"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestGen(t *testing.T) {
	code, out, _ := runCLI(t, "gen", "-n", "3")
	require.Equal(t, 0, code)
	lines := strings.Fields(out)
	require.Len(t, lines, 3)
	for _, l := range lines {
		_, err := uuid.Parse(l)
		assert.NoError(t, err)
	}

	code, _, errOut := runCLI(t, "gen", "--kind", "snowflake")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown generator")

	code, _, _ = runCLI(t, "gen", "-n", "0")
	assert.Equal(t, 2, code)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		args []string
		code int
		out  string
	}{
		{[]string{"validate", "abc-123"}, 0, "valid"},
		{[]string{"validate", "has space"}, 1, "invalid"},
		{[]string{"validate", strings.Repeat("a", 129)}, 1, "invalid"},
		{[]string{"validate"}, 2, ""},
	}
	for _, tt := range tests {
		code, out, _ := runCLI(t, tt.args...)
		assert.Equal(t, tt.code, code, tt.args)
		assert.Contains(t, out, tt.out)
	}
}

func TestParse(t *testing.T) {
	code, out, _ := runCLI(t, "parse", strings.ToUpper(validHeader))
	require.Equal(t, 0, code)

	var v traceparentView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", v.TraceID)
	assert.True(t, v.Sampled)
	assert.Equal(t, validHeader, v.Normalized)

	code, _, _ = runCLI(t, "parse", "00-00000000000000000000000000000000-00f067aa0ba902b7-01")
	assert.Equal(t, 1, code)
}

func TestDecide(t *testing.T) {
	code, out, _ := runCLI(t, "decide", "--header", "bad id", "--validate",
		"--ambient", "outer-1", "--traceparent", validHeader)
	require.Equal(t, 0, code)

	var v decisionView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "outer-1", v.CorrelationID)
	assert.Equal(t, "ambient", v.Source)
	assert.Equal(t, "w3c", v.ParentKind)
	assert.Equal(t, validHeader, v.Traceparent)

	code, out, _ = runCLI(t, "decide", "--request-id", "|root.1.")
	require.Equal(t, 0, code)
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "generated", v.Source)
	assert.Equal(t, "legacy", v.ParentKind)
	assert.Equal(t, "|root.1.", v.LegacyParent)
}

func TestDecide_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xcorr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("correlation:\n  always_generate_new: true\n"), 0o600))

	code, out, _ := runCLI(t, "decide", "--config", path, "--header", "keep-me")
	require.Equal(t, 0, code)
	var v decisionView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.NotEqual(t, "keep-me", v.CorrelationID)
	assert.Equal(t, "generated", v.Source)
}

func TestServe_Chain(t *testing.T) {
	t.Cleanup(xprop.ResetDefaultOptions)
	logger, _, err := xlog.New().SetOutput(io.Discard).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	start := func(downstream string) (string, chan error) {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		done := make(chan error, 1)
		go func() { done <- serve(ctx, lis, serveConfig{downstream: downstream, logger: logger}) }()
		return "http://" + lis.Addr().String() + "/", done
	}
	backURL, backDone := start("")
	frontURL, frontDone := start(backURL)
	defer func() {
		cancel()
		require.NoError(t, <-frontDone)
		require.NoError(t, <-backDone)
	}()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, frontURL, nil)
	require.NoError(t, err)
	req.Header.Set(xprop.DefaultHeaderName, "chain-1")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "chain-1", resp.Header.Get(xprop.DefaultHeaderName))

	var v echoView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "chain-1", v.CorrelationID)
	require.NotNil(t, v.Downstream)
	assert.Equal(t, "chain-1", v.Downstream.CorrelationID)
	assert.Equal(t, v.TraceID, v.Downstream.TraceID)

	metrics, err := client.Get(frontURL + "metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	require.NoError(t, metrics.Body.Close())
	assert.Contains(t, string(body), "xcorr_spans_total")
}
