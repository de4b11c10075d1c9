package inspect

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/metrics"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/snapshot"
)

type fixture struct {
	app    *vbind.App
	hub    *Hub
	model  *vbind.Object
	target *vbind.Object
	server *httptest.Server
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger)
	reg := prometheus.NewRegistry()
	model := vbind.ObjectFrom(map[string]any{"first": "Ada", "count": 2})

	app := vbind.New(vbind.Config{
		BindingContext: model,
		Monitors:       []reactive.Monitor{hub, metrics.New(metrics.WithRegistry(reg))},
		Logger:         logger,
	})
	target := vbind.NewObject()
	view := app.NewView("main")
	view.Add(app.NewBinding(ast.Scope("first"), target, "text", vbind.ToView))
	require.NoError(t, app.Mount(view, nil))
	require.NoError(t, app.Start())

	opts = append([]Option{WithGatherer(reg)}, opts...)
	srv := httptest.NewServer(New(app, hub, opts...))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &fixture{app: app, hub: hub, model: model, target: target, server: srv}
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(f.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestServer_Healthz(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestServer_Eval(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/eval", `{"type":"Binary","operation":"*","left":{"type":"AccessScope","name":"count"},"right":{"type":"PrimitiveLiteral","value":21}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, float64(42), got["value"])

	_, body = f.post(t, "/eval", `{"type":"AccessScope","name":"nope"}`)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, true, got["undefined"])
}

func TestServer_EvalErrors(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/eval", `{"type":"Bogus"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), `"code":"VB042"`)

	resp, body = f.post(t, "/eval", `{"type":"ValueConverter","name":"currency","expression":{"type":"AccessScope","name":"count"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), `"code":"VB001"`)
	assert.Contains(t, string(body), `currency`)
}

func TestServer_Scope(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/scope")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "count: 2\nfirst: Ada\n", string(body))
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "vbind_phase_drains_total")
}

func TestServer_SnapshotsNeedStore(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.get(t, "/snapshots")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Snapshots(t *testing.T) {
	store, err := snapshot.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	f := newFixture(t, WithStore(store))

	resp, body := f.post(t, "/snapshots?name=home", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var snap snapshot.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "home", snap.Name)

	resp, body = f.get(t, "/snapshots")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []snapshot.Snapshot
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)

	obj, err := snapshot.LoadObject(context.Background(), store, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", obj.Get("first"))
}

func dialEvents(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var e Event
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

// readEventOf reads until an event of type typ arrives.
func readEventOf(t *testing.T, conn *websocket.Conn, typ EventType) Event {
	t.Helper()
	for {
		if e := readEvent(t, conn); e.Type == typ {
			return e
		}
	}
}

func TestServer_EventStream(t *testing.T) {
	f := newFixture(t)
	conn := dialEvents(t, f)

	require.NoError(t, f.app.Do(context.Background(), func() { f.model.Set("first", "Grace") }))
	assert.Equal(t, "Grace", f.target.Get("text"))

	e := readEventOf(t, conn, EventFlush)
	assert.Positive(t, e.Trackers)
	assert.Empty(t, e.Error)

	resp, body := f.post(t, "/signals/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"signal":"refresh","bindings":0}`, string(body))

	e = readEventOf(t, conn, EventSignal)
	assert.Equal(t, "refresh", e.Signal)
}

func TestHub_PhaseEventsAndClose(t *testing.T) {
	f := newFixture(t)
	conn := dialEvents(t, f)

	f.hub.PhaseDrained(reactive.PhaseUnbound, time.Now(), 3)
	e := readEventOf(t, conn, EventPhase)
	assert.Equal(t, "unbound", e.Phase)
	assert.Equal(t, 3, e.Items)

	f.hub.Close()
	assert.Equal(t, 0, f.hub.ClientCount())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "err = %v", err)
}

func TestServer_Serve(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := vbind.New(vbind.Config{Logger: logger})
	s := New(app, NewHub(logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
