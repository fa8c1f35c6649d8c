// Package ws implements transport.Factory over WebSocket connections using
// github.com/coder/websocket, giving pipelines a duplex message channel
// transport alongside tcp.
package ws

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/coder/websocket"

	"github.com/summerhf/go-netty/transport"
)

// New returns a WebSocket transport.Factory. Schemes "ws"/"wss" dial or
// accept plain/TLS WebSocket connections carrying binary frames.
func New() transport.Factory {
	return new(wsFactory)
}

type wsFactory struct{}

func (*wsFactory) Schemes() transport.Schemes {
	return transport.Schemes{"ws", "wss"}
}

func (f *wsFactory) Connect(options *transport.Options) (transport.Transport, error) {
	if err := f.Schemes().FixedURL(options.Address); err != nil {
		return nil, err
	}
	conn, _, err := websocket.Dial(options.Context, options.Address.String(), nil)
	if err != nil {
		return nil, err
	}
	return newTransport(conn, options.Address), nil
}

// Listen is not supported directly: WebSocket listeners are HTTP servers
// upgrading individual requests, not a single net.Listener accept loop.
// Use Upgrade from an http.Handler instead.
func (f *wsFactory) Listen(options *transport.Options) (transport.Acceptor, error) {
	return nil, fmt.Errorf("transport/ws: Listen is not supported, use ws.Upgrade from an http.Handler instead")
}

// Upgrade wraps an already-accepted *websocket.Conn (from an http.Handler
// calling websocket.Accept) as a transport.Transport, for server use.
func Upgrade(conn *websocket.Conn, local, remote net.Addr) transport.Transport {
	return &wsTransport{conn: conn, local: local, remote: remote}
}

type wsTransport struct {
	conn   *websocket.Conn
	local  net.Addr
	remote net.Addr
}

func newTransport(conn *websocket.Conn, addr *url.URL) *wsTransport {
	return &wsTransport{conn: conn, local: wsAddr{"local"}, remote: wsAddr{addr.String()}}
}

type wsAddr struct{ s string }

func (a wsAddr) Network() string { return "ws" }
func (a wsAddr) String() string  { return a.s }

func (t *wsTransport) Read(p []byte) (int, error) {
	ctx := context.Background()
	_, r, err := t.conn.Reader(ctx)
	if err != nil {
		return 0, err
	}
	return r.Read(p)
}

func (t *wsTransport) Write(p []byte) (int, error) {
	if err := t.conn.Write(context.Background(), websocket.MessageBinary, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (t *wsTransport) Writev(buffs transport.Buffers) (int64, error) {
	var total int64
	for _, b := range buffs.Buffers {
		n, err := t.Write(b)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (t *wsTransport) Flush() error { return nil }

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "")
}

func (t *wsTransport) LocalAddr() net.Addr  { return t.local }
func (t *wsTransport) RemoteAddr() net.Addr { return t.remote }

func (t *wsTransport) SetDeadline(time.Time) error      { return nil }
func (t *wsTransport) SetReadDeadline(time.Time) error  { return nil }
func (t *wsTransport) SetWriteDeadline(time.Time) error { return nil }

func (t *wsTransport) RawTransport() interface{} { return t.conn }
