package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/cast"
	"github.com/summerhf/go-netty/internal/utils"
)

// Option mutates Options while building a connection or listener.
type Option func(options *Options) error

// Options carries the transport-layer configuration for one connect/listen
// call: the parsed address plus whatever else a caller stashed via
// context.WithValue for a specific transport.Factory to pick up.
type Options struct {
	// Address is the listen address (server side) or dial address (client
	// side).
	Address *url.URL

	// Context carries per-transport configuration (e.g. TLS config, max
	// connection count) that doesn't belong in the URL.
	Context context.Context
}

// AddressWithoutHost converts "host:port" to ":port", for Listen.
func (lo *Options) AddressWithoutHost() string {
	_, port, err := net.SplitHostPort(lo.Address.Host)
	utils.Assert(err)
	return net.JoinHostPort("", port)
}

// Apply runs every option against lo in order, stopping at the first
// error.
func (lo *Options) Apply(options ...Option) error {
	for _, option := range options {
		if err := option(lo); err != nil {
			return err
		}
	}
	return nil
}

// MaxConnectionsKey is the context.WithValue key a caller uses to override
// a listening transport's connection cap at Listen time, without needing
// that transport's own typed Options. ValueInt accepts the value as an int
// or a numeric string (e.g. pulled from a flag or environment variable).
type MaxConnectionsKey struct{}

// DialTimeoutMillisKey is the context.WithValue key a caller uses to
// override a dialing transport's connect timeout, in milliseconds.
type DialTimeoutMillisKey struct{}

// ValueInt reads a context value under key and coerces it to int using
// spf13/cast, falling back to def if the key is absent or unparsable. This
// is how transports accept loosely-typed configuration (e.g. a
// "max_connections" string flag) without every transport needing its own
// parsing.
func (lo *Options) ValueInt(key any, def int) int {
	v := lo.Context.Value(key)
	if v == nil {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

// ParseOptions parses rawURL into a fresh Options bound to ctx.
func ParseOptions(ctx context.Context, rawURL string, options ...Option) (*Options, error) {
	option := &Options{Context: ctx}
	return option, option.Apply(append([]Option{withAddress(rawURL)}, options...)...)
}

func withAddress(address string) Option {
	return func(options *Options) (err error) {
		if options.Address, err = url.Parse(address); err != nil {
			switch {
			case strings.Contains(err.Error(), "cannot contain colon"),
				strings.Contains(err.Error(), "missing protocol scheme"):
				options.Address, err = url.Parse(fmt.Sprintf("//%s", address))
			}
		}
		if options.Address != nil && options.Address.Path == "" {
			options.Address.Path = "/"
		}
		return err
	}
}

// WithContext overrides the context carried by Options.
func WithContext(ctx context.Context) Option {
	return func(options *Options) error {
		options.Context = ctx
		return nil
	}
}
