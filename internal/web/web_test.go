package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/hexavox/internal/health"
	"github.com/MrWong99/hexavox/internal/web"
	"github.com/MrWong99/hexavox/pkg/braille"
)

// newTestServer mounts the assembled routes on an httptest server and
// returns it with its hub.
func newTestServer(t *testing.T, checkers ...health.Checker) (*httptest.Server, *web.Hub) {
	t.Helper()
	hub := web.NewHub(nil)
	server := web.NewServer("unused:0", hub, nil, checkers...)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	return srv, hub
}

// dial opens a status-feed connection against the test server.
func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

// readMessage reads one frame and decodes it.
func readMessage(t *testing.T, conn *websocket.Conn) web.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var msg web.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode frame %q: %v", data, err)
	}
	return msg
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestViewerStatusFeed(t *testing.T) {
	srv, hub := newTestServer(t)
	conn := dial(t, srv)

	// The first frame is always the LISTENING status.
	if got := readMessage(t, conn); got.Type != web.TypeStatus || got.Value != web.StatusListening {
		t.Fatalf("initial frame: got %+v, want status/LISTENING", got)
	}

	pattern, ok := braille.ForLetter('b')
	if !ok {
		t.Fatal("no pattern for letter b")
	}
	hub.Broadcast(web.Recognition("bee"))
	hub.Broadcast(web.Letter('b', pattern))
	hub.Broadcast(web.Reset())

	if got := readMessage(t, conn); got.Type != web.TypeRecognition || got.Text != "Heard: bee" {
		t.Errorf("recognition frame: got %+v", got)
	}

	got := readMessage(t, conn)
	if got.Type != web.TypeLetter || got.Letter != "b" {
		t.Fatalf("letter frame: got %+v", got)
	}
	wantBits := []int{1, 1, 0, 0, 0, 0}
	if len(got.Pattern) != len(wantBits) {
		t.Fatalf("pattern length: got %d, want %d", len(got.Pattern), len(wantBits))
	}
	for i, b := range wantBits {
		if got.Pattern[i] != b {
			t.Errorf("pattern[%d]: got %d, want %d", i, got.Pattern[i], b)
		}
	}

	if got := readMessage(t, conn); got.Type != web.TypeReset {
		t.Errorf("reset frame: got %+v", got)
	}
}

func TestBroadcastReachesAllViewers(t *testing.T) {
	srv, hub := newTestServer(t)

	first := dial(t, srv)
	second := dial(t, srv)
	readMessage(t, first)  // initial status
	readMessage(t, second) // initial status

	hub.Broadcast(web.Status("SPEAKING"))

	for i, conn := range []*websocket.Conn{first, second} {
		if got := readMessage(t, conn); got.Type != web.TypeStatus || got.Value != "SPEAKING" {
			t.Errorf("viewer %d: got %+v, want status/SPEAKING", i, got)
		}
	}
}

func TestBroadcastWithoutViewers(t *testing.T) {
	_, hub := newTestServer(t)
	hub.Broadcast(web.Reset()) // must not block or panic
}

func TestClientCountTracksDisconnects(t *testing.T) {
	srv, hub := newTestServer(t)

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.Clients() == 1 }, "viewer never registered")

	conn.Close(websocket.StatusNormalClosure, "done")
	waitFor(t, func() bool { return hub.Clients() == 0 }, "viewer never unregistered")
}

func TestHubCloseDisconnectsViewers(t *testing.T) {
	srv, hub := newTestServer(t)
	conn := dial(t, srv)
	readMessage(t, conn) // initial status

	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("read succeeded after hub close, want connection closed")
	}

	// New connections are refused while shutting down.
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer dialCancel()
	if c, _, err := websocket.Dial(dialCtx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil); err == nil {
		c.CloseNow()
		t.Error("dial succeeded after hub close")
	}
}

func TestHTTPEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/", wantStatus: http.StatusOK, wantBody: "<html"},
		{path: "/healthz", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{path: "/readyz", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{path: "/metrics", wantStatus: http.StatusOK, wantBody: "go_goroutines"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s: %v", tt.path, err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body does not contain %q", tt.wantBody)
			}
		})
	}
}

func TestReadyzReportsFailingChecker(t *testing.T) {
	srv, _ := newTestServer(t, health.Checker{
		Name:  "model",
		Check: func(context.Context) error { return errors.New("model file missing") },
	})

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", resp.StatusCode)
	}
	if !strings.Contains(string(body), "model file missing") {
		t.Errorf("body does not name the failing check: %s", body)
	}
}
