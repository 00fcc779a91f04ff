package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-ddt-reader/internal/descriptions"
)

func TestServerToolsRegistration(t *testing.T) {
	s := newTestServer(t, testConfig(t.TempDir()))

	resp := s.mcpServer.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range descriptions.GetAllToolNames() {
		assert.Contains(t, string(data), `"name":"`+name+`"`)
	}
}

func TestServerToolCallThroughProtocol(t *testing.T) {
	s := newTestServer(t, testConfig(t.TempDir()))

	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "ddt_extract_text",
			"arguments": map[string]any{"text": deliveryNote},
		},
	})
	require.NoError(t, err)

	data, err := json.Marshal(s.mcpServer.HandleMessage(context.Background(), msg))
	require.NoError(t, err)
	assert.Contains(t, string(data), `12345`)
	assert.NotContains(t, string(data), `"isError":true`)
}

func TestServerRunStdio(t *testing.T) {
	s := newTestServer(t, testConfig(t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := s.serveStdio(ctx, strings.NewReader(""), &out)
	assert.NoError(t, err)
}

func TestServerRunServerMode(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Mode = "server"
	cfg.Port = 0
	s := newTestServer(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerRunServerModeCancelled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Mode = "server"
	s := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
}

func TestServerRunInvalidMode(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Mode = "invalid"
	s := newTestServer(t, cfg)

	err := s.Run(context.Background())
	assert.ErrorContains(t, err, "unsupported mode")
}
