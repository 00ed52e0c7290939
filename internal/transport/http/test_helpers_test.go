package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/recipechat-server/internal/auth"
	"github.com/vovakirdan/recipechat-server/internal/config"
	"github.com/vovakirdan/recipechat-server/internal/core"
	"github.com/vovakirdan/recipechat-server/internal/log"
	"github.com/vovakirdan/recipechat-server/internal/proto"
	"github.com/vovakirdan/recipechat-server/internal/store/sqlite"
)

const testSecret = "test-secret"

type testEnv struct {
	ts       *httptest.Server
	server   *Server
	cfg      *config.Config
	jwt      *auth.JWTConfig
	registry *core.Registry
	store    *sqlite.SQLiteStore
}

// startTestServer wires the full HTTP stack over an in-memory SQLite store.
func startTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.JWTSecret = testSecret
	cfg.DatabasePath = ":memory:"
	cfg.SendTimeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	st, err := sqlite.New(cfg.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:    []byte(cfg.JWTSecret),
		Algorithm: cfg.JWTAlgorithm,
		TTL:       cfg.JWTTTL,
		DevMode:   cfg.DevMode,
	}
	verifier, err := auth.NewVerifier(jwtConfig)
	require.NoError(t, err)

	logger := log.Nop()
	registry := core.NewRegistry(cfg.MaxConnections)
	dispatcher := core.NewDispatcher(registry, cfg.SendTimeout, cfg.BroadcastFanout, logger)
	bridge := core.NewBridge(st, dispatcher, core.BridgeConfig{
		MaxTextLength:  cfg.MaxTextLength,
		DefaultHistory: cfg.HistoryLimit,
		MaxHistory:     cfg.MaxHistory,
	}, logger)

	server := NewServer(registry, bridge, verifier, auth.NewService(st, jwtConfig), st, &cfg, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, server: server, cfg: &cfg, jwt: jwtConfig, registry: registry, store: st}
}

func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()

	token, err := auth.GenerateToken(e.jwt, email, "")
	require.NoError(t, err)
	return token
}

func (e *testEnv) wsURL(token string) string {
	return strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws/chat?token=" + url.QueryEscape(token)
}

// dialRaw opens a websocket without consuming the welcome frame.
func (e *testEnv) dialRaw(ctx context.Context, t *testing.T, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, e.wsURL(token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

// dial opens a websocket and reads the welcome frame, which is sent only
// after the connection has been registered.
func (e *testEnv) dial(ctx context.Context, t *testing.T, token string) (*websocket.Conn, proto.ChatMessage) {
	t.Helper()

	conn := e.dialRaw(ctx, t, token)
	welcome := readChat(ctx, t, conn)
	require.Equal(t, core.MessageTypeSystem, welcome.MessageType)
	require.Zero(t, welcome.ID)
	return conn, welcome
}

func readChat(ctx context.Context, t *testing.T, conn *websocket.Conn) proto.ChatMessage {
	t.Helper()

	var msg proto.ChatMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

func sendChat(ctx context.Context, t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, wsjson.Write(ctx, conn, proto.Inbound{Text: text}))
}

// readCloseStatus reads until the server closes the connection.
func readCloseStatus(ctx context.Context, t *testing.T, conn *websocket.Conn) websocket.StatusCode {
	t.Helper()

	for {
		_, _, err := conn.Read(ctx)
		if err != nil {
			return websocket.CloseStatus(err)
		}
	}
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *stdhttp.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := stdhttp.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *stdhttp.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
