package stream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"x402-lab/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeServer replies to every connection with msgs, then keeps reading.
func fakeServer(t *testing.T, msgs ...Message) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, m := range msgs {
			if m.Preset == "" {
				m.Preset = r.URL.Query().Get("preset")
			}
			if err := conn.WriteJSON(m); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func resultMsg(s domain.Scheme) Message {
	return Message{Type: TypeResult, Run: &Run{RunID: "id-" + string(s), Result: &domain.SimulationResult{Scheme: s}}}
}

func TestNewClient_Schemes(t *testing.T) {
	c, err := NewClient("http://localhost:8080/", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Endpoint("openai", 2); got != "ws://localhost:8080/stream?load=2&preset=openai" {
		t.Errorf("Endpoint = %s", got)
	}

	c, err = NewClient("https://lab.example", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Endpoint("github", 0); got != "wss://lab.example/stream?preset=github" {
		t.Errorf("Endpoint = %s", got)
	}

	if _, err := NewClient("ftp://x", nil); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestClient_Watch(t *testing.T) {
	server := fakeServer(t,
		resultMsg(domain.SchemeNoX402),
		resultMsg(domain.SchemeSync),
		resultMsg(domain.SchemeAsync),
		Message{Type: TypeDone, Decision: "GO"},
	)

	c, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	var got []domain.Scheme
	done, err := c.Watch(context.Background(), "openai", 0, func(m *Message) error {
		got = append(got, m.Run.Result.Scheme)
		return nil
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if done.Decision != "GO" || done.Preset != "openai" {
		t.Errorf("unexpected done message: %+v", done)
	}
	if len(got) != 3 || got[2] != domain.SchemeAsync {
		t.Errorf("results = %v", got)
	}
}

func TestClient_Watch_RemoteError(t *testing.T) {
	server := fakeServer(t, Message{Type: TypeError, Error: "boom"})

	c, _ := NewClient(server.URL, nil)
	_, err := c.Watch(context.Background(), "openai", 0, nil)
	if !errors.Is(err, ErrRemote) || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected ErrRemote with message, got %v", err)
	}
}

func TestClient_Watch_CallbackAborts(t *testing.T) {
	server := fakeServer(t, resultMsg(domain.SchemeNoX402), Message{Type: TypeDone})

	stop := errors.New("stop")
	c, _ := NewClient(server.URL, nil)
	_, err := c.Watch(context.Background(), "openai", 0, func(*Message) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("expected callback error, got %v", err)
	}
}

func TestClient_Watch_ContextCancel(t *testing.T) {
	// Server never sends anything
	server := fakeServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c, _ := NewClient(server.URL, nil)
	_, err := c.Watch(ctx, "openai", 0, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestClient_Watch_DialError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c, _ := NewClient(server.URL, nil)
	_, err := c.Watch(context.Background(), "openai", 0, nil)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("expected dial error with status, got %v", err)
	}
}
