// Package channel dials WebSocket channels described by connection
// descriptors such as "WS /chat/:room".
//
// The URL, query and auth token are assembled exactly like an HTTP
// request; only the scheme differs. Reconnection is left to the caller.
package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/adamwoolhether/fetchkit/client/assemble"
	"github.com/adamwoolhether/fetchkit/client/hooks"
	"github.com/adamwoolhether/fetchkit/client/route"
	"github.com/adamwoolhether/fetchkit/client/stream"
)

// Channel is an open WebSocket connection. Sends are serialised; a single
// goroutine may read at a time.
type Channel struct {
	conn     *websocket.Conn
	response *http.Response

	writeMu sync.Mutex
}

// Dial assembles the handshake request for c and opens the connection.
// opts supplies parameters, query, headers and the token; its BaseURL and
// Method are ignored. A nil dialer uses websocket.DefaultDialer.
func Dial(ctx context.Context, dialer *websocket.Dialer, c route.Connection, opts assemble.Options) (*Channel, error) {
	base, err := c.DialBase()
	if err != nil {
		return nil, err
	}

	opts.BaseURL = base
	opts.Method = route.Get
	opts.Body = nil

	rc, err := assemble.Assemble(c.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("assembling handshake: %w", err)
	}

	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := rc.Init.Headers.HTTP()
	conn, resp, err := dialer.DialContext(ctx, rc.URL.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: status %d: %w", rc.URL.Redacted(), resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing %s: %w", rc.URL.Redacted(), err)
	}

	return &Channel{conn: conn, response: resp}, nil
}

// Conn exposes the underlying connection.
func (ch *Channel) Conn() *websocket.Conn {
	return ch.conn
}

// Response is the handshake response.
func (ch *Channel) Response() *http.Response {
	return ch.response
}

// Send writes v as a JSON text message. Strings and byte slices are sent
// verbatim as text and binary messages respectively.
func (ch *Channel) Send(v any) error {
	var (
		kind = websocket.TextMessage
		data []byte
	)

	switch t := v.(type) {
	case string:
		data = []byte(t)
	case []byte:
		kind = websocket.BinaryMessage
		data = t
	default:
		b, err := sonic.ConfigStd.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding message: %w", err)
		}
		data = b
	}

	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()

	if err := ch.conn.WriteMessage(kind, data); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}

	return nil
}

// Receive reads one message. Text messages holding valid JSON are returned
// parsed, other text as a string and binary messages as []byte.
func (ch *Channel) Receive() (any, error) {
	kind, data, err := ch.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	if kind == websocket.BinaryMessage {
		return data, nil
	}

	var v any
	if err := sonic.ConfigStd.Unmarshal(data, &v); err != nil {
		return string(data), nil
	}
	return v, nil
}

// Messages streams received messages until the peer closes the channel.
// A normal or going-away closure ends the stream successfully; any other
// read error goes to OnError or is yielded. OnEnd fires once, after the
// connection is closed. The hooks receive the handshake response.
func (ch *Channel) Messages(h hooks.Hooks) *stream.Stream[any] {
	release := stream.OnceCloser(func() error {
		defer h.End(ch.response)
		return ch.conn.Close()
	})

	seq := func(yield func(any, error) bool) {
		defer release.Close()

		for {
			msg, err := ch.Receive()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.Success(ch.response)
					return
				}
				err = fmt.Errorf("reading message: %w", err)
				if !h.Error(err) {
					yield(nil, err)
				}
				return
			}

			h.Data(msg)
			if !yield(msg, nil) {
				return
			}
		}
	}

	return stream.New(seq, release)
}

// Close sends a normal closure frame and closes the connection.
func (ch *Channel) Close() error {
	ch.writeMu.Lock()
	werr := ch.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ch.writeMu.Unlock()

	cerr := ch.conn.Close()
	if errors.Is(werr, websocket.ErrCloseSent) {
		werr = nil
	}

	return errors.Join(werr, cerr)
}
