package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// feedServer accepts connections and runs handler on each one.
func feedServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		if handler != nil {
			handler(conn)
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url, "live")
	cfg.PingInterval = 0
	cfg.InitialBackoff = 20 * time.Millisecond
	cfg.MaxBackoff = 50 * time.Millisecond
	return cfg
}

func drain(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func TestNew_RejectsNonWebSocketURL(t *testing.T) {
	for _, u := range []string{"", "http://example.com/feed", "::bad::"} {
		if _, err := New(DefaultConfig(u, "live")); err == nil {
			t.Errorf("expected error for url %q", u)
		}
	}
}

func TestClient_ConnectAndState(t *testing.T) {
	server := feedServer(t, drain)
	defer server.Close()

	client, err := New(testConfig(wsURL(server)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	var states []State
	var mu sync.Mutex
	client.OnStateChange(func(state State, err error) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !client.IsConnected() {
		t.Fatalf("expected connected, got %v", client.State())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 || states[0] != StateConnecting || states[1] != StateConnected {
		t.Errorf("unexpected state sequence %v", states)
	}
}

func TestClient_ConnectFailureLeavesDisconnected(t *testing.T) {
	client, err := New(testConfig("ws://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err == nil {
		t.Fatal("expected Connect to fail")
	}
	if client.State() != StateDisconnected {
		t.Errorf("expected %v, got %v", StateDisconnected, client.State())
	}
}

func TestClient_DeliversEvents(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		conn.Write(ctx, websocket.MessageText, []byte(`{"type":"alerts"}`))
		drain(conn)
	})
	defer server.Close()

	client, err := New(testConfig(wsURL(server)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	got := make(chan []byte, 1)
	client.OnMessage(func(ctx context.Context, msg []byte) {
		got <- msg
	})

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case msg := <-got:
		if string(msg) != `{"type":"alerts"}` {
			t.Errorf("unexpected message %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestClient_SendJSON(t *testing.T) {
	received := make(chan []byte, 1)
	server := feedServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.Read(context.Background())
		if err == nil {
			received <- data
		}
		drain(conn)
	})
	defer server.Close()

	client, err := New(testConfig(wsURL(server)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.SendJSON(ctx, map[string]any{"subscribe": []string{"alerts", "wallets"}}); err != nil {
		t.Fatalf("SendJSON: %v", err)
	}

	select {
	case data := <-received:
		var parsed map[string][]string
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("server got invalid JSON %s: %v", data, err)
		}
		if len(parsed["subscribe"]) != 2 {
			t.Errorf("unexpected payload %v", parsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive message")
	}
}

func TestClient_SendWhenDisconnected(t *testing.T) {
	client, err := New(testConfig("ws://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Send(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected send to fail while disconnected")
	}
}

func TestClient_ConcurrentSend(t *testing.T) {
	var count atomic.Int32
	server := feedServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
			count.Add(1)
		}
	})
	defer server.Close()

	client, err := New(testConfig(wsURL(server)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	const senders, perSender = 8, 5
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				if err := client.SendJSON(ctx, map[string]int{"sender": id, "n": j}); err != nil {
					t.Errorf("SendJSON: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() < senders*perSender && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := count.Load(); got != senders*perSender {
		t.Errorf("server received %d messages, want %d", got, senders*perSender)
	}
}

func TestClient_ReconnectsAfterServerDrop(t *testing.T) {
	var accepted atomic.Int32
	server := feedServer(t, func(conn *websocket.Conn) {
		if accepted.Add(1) == 1 {
			// Drop the first connection right away.
			return
		}
		drain(conn)
	})
	defer server.Close()

	client, err := New(testConfig(wsURL(server)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for accepted.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if accepted.Load() < 2 {
		t.Fatal("client did not reconnect")
	}
	for !client.IsConnected() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !client.IsConnected() {
		t.Errorf("expected connected after reconnect, got %v", client.State())
	}
	if client.Reconnects() < 1 {
		t.Errorf("expected reconnect attempts to be counted")
	}
}

func TestClient_OversizedMessageDisconnects(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn) {
		big := []byte(strings.Repeat("A", 4096))
		conn.Write(context.Background(), websocket.MessageText, big)
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	cfg := testConfig(wsURL(server))
	cfg.MaxMessageSize = 100
	cfg.InitialBackoff = time.Second

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if client.State() == StateConnected {
		t.Error("expected client to drop the connection after an oversized message")
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	server := feedServer(t, drain)
	defer server.Close()

	client, err := New(testConfig(wsURL(server)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if client.State() != StateClosed {
		t.Errorf("expected %v, got %v", StateClosed, client.State())
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := client.Connect(context.Background()); err == nil {
		t.Error("Connect after Close should fail")
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(tt.n, time.Second, 30*time.Second); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}
