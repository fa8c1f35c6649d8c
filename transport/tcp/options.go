package tcp

import (
	"context"
	"time"
)

// Options holds the socket-level tuning tcpTransport.applyOptions sets on
// every accepted or dialed connection.
type Options struct {
	Timeout         time.Duration
	KeepAlive       bool
	KeepAlivePeriod time.Duration
	Linger          int
	NoDelay         bool
	SockBuf         int
	// MaxConnections caps concurrently accepted connections via
	// netutil.LimitListener; zero means unlimited.
	MaxConnections int
}

// DefaultOption matches the historical go-netty TCP defaults.
var DefaultOption = &Options{
	Timeout:         time.Second * 10,
	KeepAlive:       true,
	KeepAlivePeriod: time.Second * 90,
	Linger:          0,
	NoDelay:         true,
	SockBuf:         0,
	MaxConnections:  0,
}

type optionsKey struct{}

// WithOptions stashes tcp.Options in a context.Context for transport.
// Options.Context, picked up by FromContext.
func WithOptions(ctx context.Context, opts *Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

// FromContext extracts tcp.Options from ctx, falling back to def.
func FromContext(ctx context.Context, def *Options) *Options {
	if opts, ok := ctx.Value(optionsKey{}).(*Options); ok && opts != nil {
		return opts
	}
	return def
}
