package netty

import (
	"context"

	"github.com/summerhf/go-netty/transport"
)

// PipelineInitializer populates a freshly created Channel's pipeline
// before it starts serving traffic.
type PipelineInitializer func(channel Channel)

// Option configures a Bootstrap at construction time.
type Option func(opts *bootstrapOptions)

type bootstrapOptions struct {
	bootstrapCtx    context.Context
	bootstrapCancel context.CancelFunc

	channelIDFactory  ChannelIDFactory
	pipelineFactory   func() *pipeline
	channelFactory    ChannelFactory
	transportFactory  transport.Factory
	childInitializer  PipelineInitializer
	clientInitializer PipelineInitializer
	metrics           *Metrics
}

// WithChannelIDFactory overrides how channel ids are minted; default is
// SequenceID().
func WithChannelIDFactory(f ChannelIDFactory) Option {
	return func(opts *bootstrapOptions) { opts.channelIDFactory = f }
}

// WithTransportFactory overrides the transport used to dial/listen;
// default is tcp.New().
func WithTransportFactory(f transport.Factory) Option {
	return func(opts *bootstrapOptions) { opts.transportFactory = f }
}

// WithChildInitializer sets the PipelineInitializer run against every
// server-accepted channel.
func WithChildInitializer(init PipelineInitializer) Option {
	return func(opts *bootstrapOptions) { opts.childInitializer = init }
}

// WithClientInitializer sets the PipelineInitializer run against every
// client-dialed channel.
func WithClientInitializer(init PipelineInitializer) Option {
	return func(opts *bootstrapOptions) { opts.clientInitializer = init }
}

// WithBootstrapMetrics attaches a Metrics collector to every pipeline the
// bootstrap creates.
func WithBootstrapMetrics(m *Metrics) Option {
	return func(opts *bootstrapOptions) { opts.metrics = m }
}
