package netty

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"

	"github.com/summerhf/go-netty/transport"
	"github.com/summerhf/go-netty/transport/tcp"
)

// Bootstrap ties a transport.Factory, a ChannelFactory, and a pipeline
// initializer together so callers dial or listen without wiring those
// parts by hand each time.
type Bootstrap interface {
	Context() context.Context
	Listen(url string, option ...transport.Option) Listener
	Connect(url string, attachment Attachment, option ...transport.Option) (Channel, error)
	Shutdown()
}

// NewBootstrap creates a Bootstrap with the default TCP transport and
// sequence-id channel naming, as modified by option.
func NewBootstrap(option ...Option) Bootstrap {
	opts := &bootstrapOptions{
		channelIDFactory:  SequenceID(),
		pipelineFactory:   NewPipeline,
		channelFactory:    NewChannel(4096),
		transportFactory:  tcp.New(),
		childInitializer:  func(Channel) {},
		clientInitializer: func(Channel) {},
	}
	opts.bootstrapCtx, opts.bootstrapCancel = context.WithCancel(context.Background())

	for _, o := range option {
		o(opts)
	}

	return &bootstrap{bootstrapOptions: opts, listeners: xsync.NewMapOf[string, *listener]()}
}

type bootstrap struct {
	*bootstrapOptions
	listeners *xsync.MapOf[string, *listener]
}

func (bs *bootstrap) Context() context.Context {
	return bs.bootstrapCtx
}

func (bs *bootstrap) serveTransport(t transport.Transport, attachment Attachment, childChannel bool) Channel {
	p := bs.pipelineFactory()
	if bs.metrics != nil {
		p.WithMetrics(bs.metrics)
	}

	cid := bs.channelIDFactory()
	channel := bs.channelFactory(cid, bs.bootstrapCtx, p, t)

	if attachment != nil {
		channel.SetAttachment(attachment)
	}

	if childChannel {
		bs.childInitializer(channel)
	} else {
		bs.clientInitializer(channel)
	}

	channel.Pipeline().ServeChannel(channel)
	return channel
}

func (bs *bootstrap) Connect(url string, attachment Attachment, option ...transport.Option) (Channel, error) {
	options, err := transport.ParseOptions(bs.Context(), url, option...)
	if err != nil {
		return nil, err
	}

	t, err := bs.transportFactory.Connect(options)
	if err != nil {
		return nil, err
	}

	return bs.serveTransport(t, attachment, false), nil
}

func (bs *bootstrap) Listen(url string, option ...transport.Option) Listener {
	l := &listener{bs: bs, url: url, option: option}
	bs.listeners.Store(url, l)
	return l
}

// Shutdown cancels the bootstrap's context and closes every live listener
// concurrently, returning once they have all stopped accepting.
func (bs *bootstrap) Shutdown() {
	bs.bootstrapCancel()

	var g errgroup.Group
	bs.listeners.Range(func(url string, l *listener) bool {
		g.Go(l.Close)
		return true
	})
	_ = g.Wait()
}

func (bs *bootstrap) removeListener(url string) {
	bs.listeners.Delete(url)
}

// Listener is the server side of a Bootstrap: one Listen call's accept
// loop.
type Listener interface {
	Close() error
	Sync() error
	Async(func(error))
}

type listener struct {
	bs       *bootstrap
	url      string
	option   []transport.Option
	options  *transport.Options
	acceptor transport.Acceptor
}

func (l *listener) Close() error {
	if l.acceptor != nil {
		l.bs.removeListener(l.url)
		return l.acceptor.Close()
	}
	return nil
}

func (l *listener) Sync() error {
	if l.acceptor != nil {
		return fmt.Errorf("netty: duplicate call to Listener.Sync")
	}

	var err error
	if l.options, err = transport.ParseOptions(l.bs.Context(), l.url, l.option...); err != nil {
		return err
	}

	if l.acceptor, err = l.bs.transportFactory.Listen(l.options); err != nil {
		return err
	}

	for {
		t, err := l.acceptor.Accept()
		if err != nil {
			return err
		}

		select {
		case <-l.bs.Context().Done():
			return t.Close()
		default:
			l.bs.serveTransport(t, nil, true)
		}
	}
}

func (l *listener) Async(fn func(err error)) {
	go func() {
		fn(l.Sync())
	}()
}
