package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const maxResponseBytes = 64 << 10

// Transport carries one request to the oracle and returns the raw answer.
// Implementations must honour ctx cancellation.
type Transport interface {
	Exchange(ctx context.Context, req Request) ([]byte, error)
}

// TransportFunc adapts an in-process function, mostly for tests.
type TransportFunc func(ctx context.Context, req Request) ([]byte, error)

func (f TransportFunc) Exchange(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// Answerer is an in-process oracle.
type Answerer interface {
	Answer(ctx context.Context, req Request) Response
}

// Local serves requests from an in-process Answerer through the same JSON
// boundary as the remote transports.
func Local(a Answerer) Transport {
	return TransportFunc(func(ctx context.Context, req Request) ([]byte, error) {
		return json.Marshal(a.Answer(ctx, req))
	})
}

// HTTPTransport posts each request to <URL>/decide.
type HTTPTransport struct {
	URL    string
	Client *http.Client
}

func NewHTTPTransport(url string) *HTTPTransport {
	return &HTTPTransport{URL: strings.TrimRight(url, "/"), Client: http.DefaultClient}
}

func (t *HTTPTransport) Exchange(ctx context.Context, req Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL+"/decide", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// WebSocketTransport keeps one connection open and exchanges a text frame per
// request. A failed exchange drops the connection so a late answer can never
// be read as the reply to the next request.
type WebSocketTransport struct {
	url    string
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebSocketTransport(url string) *WebSocketTransport {
	return &WebSocketTransport{url: url, dialer: websocket.DefaultDialer}
}

func (t *WebSocketTransport) Exchange(ctx context.Context, req Request) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to dial oracle: %w", err)
		}
		t.conn = conn
	}
	conn := t.conn

	deadline, _ := ctx.Deadline()
	conn.SetWriteDeadline(deadline)
	conn.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := conn.WriteJSON(req); err != nil {
		t.drop()
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	_, body, err := conn.ReadMessage()
	if err != nil {
		t.drop()
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func (t *WebSocketTransport) drop() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.drop()
	return nil
}
