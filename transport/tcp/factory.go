// Package tcp implements transport.Factory over the standard library's TCP
// stack.
package tcp

import (
	"net"
	"time"

	"golang.org/x/net/netutil"

	"github.com/summerhf/go-netty/transport"
)

// New returns a TCP transport.Factory.
func New() transport.Factory {
	return new(tcpFactory)
}

type tcpFactory struct{}

func (*tcpFactory) Schemes() transport.Schemes {
	return transport.Schemes{"tcp", "tcp4", "tcp6"}
}

func (f *tcpFactory) Connect(options *transport.Options) (transport.Transport, error) {
	if err := f.Schemes().FixedURL(options.Address); err != nil {
		return nil, err
	}

	tcpOptions := FromContext(options.Context, DefaultOption)

	// A caller can override the dial timeout per-connect without building
	// a full tcp.Options, e.g. a value sourced from a CLI flag or an
	// env var and stashed as a string via context.WithValue.
	timeoutMillis := options.ValueInt(transport.DialTimeoutMillisKey{}, 0)
	timeout := tcpOptions.Timeout
	if timeoutMillis > 0 {
		timeout = time.Duration(timeoutMillis) * time.Millisecond
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(options.Context, options.Address.Scheme, options.Address.Host)
	if err != nil {
		return nil, err
	}

	return (&tcpTransport{TCPConn: conn.(*net.TCPConn)}).applyOptions(tcpOptions)
}

func (f *tcpFactory) Listen(options *transport.Options) (transport.Acceptor, error) {
	if err := f.Schemes().FixedURL(options.Address); err != nil {
		return nil, err
	}

	l, err := net.Listen(options.Address.Scheme, options.AddressWithoutHost())
	if err != nil {
		return nil, err
	}

	tcpOptions := FromContext(options.Context, DefaultOption)

	// transport.MaxConnectionsKey lets a caller cap accepted connections
	// without constructing a full tcp.Options, falling back to whatever
	// tcp.Options already carries.
	maxConnections := options.ValueInt(transport.MaxConnectionsKey{}, tcpOptions.MaxConnections)
	if maxConnections > 0 {
		l = netutil.LimitListener(l, maxConnections)
	}

	return &tcpAcceptor{listener: l, options: tcpOptions}, nil
}

type tcpAcceptor struct {
	listener net.Listener
	options  *Options
}

func (t *tcpAcceptor) Accept() (transport.Transport, error) {
	conn, err := t.listener.Accept()
	if err != nil {
		return nil, err
	}
	return (&tcpTransport{TCPConn: conn.(*net.TCPConn)}).applyOptions(t.options)
}

func (t *tcpAcceptor) Close() error {
	if t.listener != nil {
		defer func() { t.listener = nil }()
		return t.listener.Close()
	}
	return nil
}
