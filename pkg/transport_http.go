package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/qnkhuat/chessterm/pkg/board"
)

// HTTPTransport talks to the REST API served by NewHTTPServer.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
	Dialer  *fws.Dialer
}

func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Dialer:  &fws.Dialer{HandshakeTimeout: timeout},
	}
}

func (t *HTTPTransport) endpoint(id GameID, op string) string {
	if id == "" {
		return fmt.Sprintf("%s/api/v1/%s", t.BaseURL, op)
	}
	return fmt.Sprintf("%s/api/v1/%s/%s", t.BaseURL, url.PathEscape(string(id)), op)
}

func (t *HTTPTransport) do(ctx context.Context, method, target string, body []byte) (int, []byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, data, fmt.Errorf("%w: %s", ErrGameNotFound, strings.TrimSpace(string(data)))
	}
	return resp.StatusCode, data, nil
}

func (t *HTTPTransport) NewGame(ctx context.Context) (GameID, error) {
	code, data, err := t.do(ctx, http.MethodPost, t.endpoint("", "newGame"), nil)
	if err != nil {
		return "", err
	}
	if code != http.StatusOK {
		return "", fmt.Errorf("newGame: %s", http.StatusText(code))
	}
	return GameID(strings.Trim(strings.TrimSpace(string(data)), `"`)), nil
}

func (t *HTTPTransport) FetchPosition(ctx context.Context, id GameID) (Position, error) {
	code, data, err := t.do(ctx, http.MethodGet, t.endpoint(id, "getPosition"), nil)
	if err != nil {
		return Position{}, err
	}
	if code != http.StatusOK {
		return Position{}, fmt.Errorf("getPosition: %s", http.StatusText(code))
	}
	var pos Position
	if err := json.Unmarshal(data, &pos); err != nil {
		return Position{}, fmt.Errorf("getPosition: %w", err)
	}
	return pos, nil
}

// SubmitMove posts the move as received from the server. A 400 carrying a status is a rejected
// move, not a transport failure.
func (t *HTTPTransport) SubmitMove(ctx context.Context, id GameID, mv board.LegalMove) (Status, error) {
	body, err := json.Marshal(mv)
	if err != nil {
		return "", err
	}
	code, data, err := t.do(ctx, http.MethodPost, t.endpoint(id, "makeMove/"), body)
	if err != nil {
		return "", err
	}
	status := Status(strings.Trim(strings.TrimSpace(string(data)), `"`))
	switch code {
	case http.StatusOK:
		return status, nil
	case http.StatusBadRequest:
		if status == StatusInvalidMove {
			return status, nil
		}
	}
	return "", fmt.Errorf("makeMove: %s: %s", http.StatusText(code), status)
}

// Watch calls fn with every position pushed for the game until ctx is done or the connection
// drops.
func (t *HTTPTransport) Watch(ctx context.Context, id GameID, fn func(Position)) error {
	u, err := url.Parse(t.BaseURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/game/" + url.PathEscape(string(id))

	conn, _, err := t.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg WatchMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if msg.Type == watchTypePosition {
			fn(msg.Position)
		}
	}
}
