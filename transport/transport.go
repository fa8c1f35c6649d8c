// Package transport is the wire-level layer beneath a Channel: a Transport
// is an established connection (a net.Conn plus gather-write, flush and
// raw access) that the channel writes to, flushes and closes, and a
// Factory dials or listens for Transports. It has no register, bind or
// connect step on an established Transport. Packages tcp and ws each
// implement Transport and a matching Factory; the in-memory embedded
// driver lives in package netty and does not use this package.
package transport

import (
	"fmt"
	"net"
	"net/url"
)

// Buffers wraps net.Buffers so Writev can batch a gather-write without
// every transport re-declaring the type.
type Buffers struct {
	net.Buffers
}

// Transport is a single, already-established connection. Its read side is
// driven by the owning channel's read loop; its write side is driven by
// the pipeline's head handler.
type Transport interface {
	net.Conn

	// Writev performs a gather-write of buffs, returning the number of
	// bytes written.
	Writev(buffs Buffers) (int64, error)
	// Flush pushes any writes buffered by the transport (most transports
	// are unbuffered and make this a no-op).
	Flush() error
	// RawTransport exposes the underlying connection object (*net.TCPConn,
	// *websocket.Conn, ...) for transport-specific tuning.
	RawTransport() interface{}
}

// Acceptor is a listening server-side transport, handing off newly
// established connections one at a time.
type Acceptor interface {
	Accept() (Transport, error)
	Close() error
}

// Factory builds Transports for one or more URL schemes.
type Factory interface {
	Schemes() Schemes
	Connect(options *Options) (Transport, error)
	Listen(options *Options) (Acceptor, error)
}

// Schemes lists the URL schemes a Factory answers to.
type Schemes []string

// FixedURL validates that addr's scheme is one this Schemes recognizes,
// defaulting addr.Scheme to the first entry when it is empty.
func (s Schemes) FixedURL(addr *url.URL) error {
	if addr.Scheme == "" {
		addr.Scheme = s[0]
		return nil
	}
	for _, scheme := range s {
		if scheme == addr.Scheme {
			return nil
		}
	}
	return fmt.Errorf("transport: unsupported scheme %q, want one of %v", addr.Scheme, []string(s))
}
