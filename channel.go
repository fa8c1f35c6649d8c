package netty

import (
	"bufio"
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/summerhf/go-netty/transport"
)

// Attachment is arbitrary user data carried alongside a Channel.
type Attachment = any

var (
	_ Channel         = (*channel)(nil)
	_ transportBridge = (*channel)(nil)
	_ starter         = (*channel)(nil)
)

// Channel is the abstract representation of a single network connection:
// it owns exactly one Pipeline and one EventLoop binding for its lifetime.
type Channel interface {
	ID() string
	Context() context.Context
	Pipeline() Pipeline
	EventLoop() EventLoop

	Attachment() Attachment
	SetAttachment(Attachment)

	LocalAddr() net.Addr
	RemoteAddr() net.Addr

	Registered() bool
	Active() bool
	Closed() bool

	// Close requests an orderly shutdown of the channel: the transport is
	// closed, channel_inactive fires, and the pipeline tears down.
	Close() Future
}

// ChannelFactory builds a Channel bound to a freshly-established
// transport, matching a fresh Pipeline to it and starting its EventLoop.
type ChannelFactory func(id string, ctx context.Context, pipeline *pipeline, t transport.Transport) Channel

// NewChannel returns the default ChannelFactory. readBufferSize sizes the
// bufio.Reader used by the per-channel read loop.
func NewChannel(readBufferSize int) ChannelFactory {
	return func(id string, parentCtx context.Context, p *pipeline, t transport.Transport) Channel {
		ctx, cancel := context.WithCancel(parentCtx)
		ch := &channel{
			id:        id,
			ctx:       ctx,
			cancel:    cancel,
			pipeline:  p,
			transport: t,
			loop:      NewEventLoop(),
			reader:    bufio.NewReaderSize(t, readBufferSize),
		}
		// Attach immediately so a PipelineInitializer can populate the
		// pipeline before ServeChannel starts the channel.
		p.channel = ch
		return ch
	}
}

type channel struct {
	id         string
	ctx        context.Context
	cancel     context.CancelFunc
	pipeline   *pipeline
	transport  transport.Transport
	loop       EventLoop
	reader     *bufio.Reader

	attachment atomic.Pointer[any]

	registered atomic.Bool
	active     atomic.Bool
	closed     atomic.Bool

	writeMu    sync.Mutex
	lastError  atomic.Pointer[Exception]
}

func (c *channel) ID() string             { return c.id }
func (c *channel) Context() context.Context { return c.ctx }
func (c *channel) Pipeline() Pipeline      { return c.pipeline }
func (c *channel) EventLoop() EventLoop    { return c.loop }

func (c *channel) Attachment() Attachment {
	if v := c.attachment.Load(); v != nil {
		return *v
	}
	return nil
}

func (c *channel) SetAttachment(a Attachment) {
	c.attachment.Store(&a)
}

func (c *channel) LocalAddr() net.Addr  { return c.transport.LocalAddr() }
func (c *channel) RemoteAddr() net.Addr { return c.transport.RemoteAddr() }

func (c *channel) Registered() bool { return c.registered.Load() }
func (c *channel) Active() bool     { return c.active.Load() }
func (c *channel) Closed() bool     { return c.closed.Load() }

// start registers the channel, fires channel_active, and starts the
// background goroutine that pumps reads into the pipeline. Invoked by
// Pipeline.ServeChannel once the pipeline's initializer has populated it.
func (c *channel) start() {
	c.registered.Store(true)
	c.active.Store(true)
	log().Debug().Str("channel", c.id).Msg("channel active")
	c.pipeline.FireChannelActive()
	go c.readLoop()
}

func (c *channel) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := c.reader.Read(buf)
		if n > 0 {
			msg := make([]byte, n)
			copy(msg, buf[:n])
			c.loop.Execute(func() {
				c.pipeline.FireChannelRead(msg)
				c.pipeline.FireChannelReadComplete()
			})
		}
		if err != nil {
			c.loop.Execute(func() {
				c.teardown(AsException(err, captureStack()))
			})
			return
		}
	}
}

// enqueueWrite is called by headHandler.HandleWrite: msg must already be
// in a form the transport can write ([]byte or transport.Buffers).
func (c *channel) enqueueWrite(msg Message, promise Promise) {
	if c.Closed() {
		promise.Fail(ErrIOOnClosedChannel)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var err error
	switch v := msg.(type) {
	case []byte:
		_, err = c.transport.Write(v)
	case transport.Buffers:
		_, err = c.transport.Writev(v)
	default:
		err = ErrWrongType
	}
	if err != nil {
		promise.Fail(err)
		return
	}
	promise.Succeed(msg)
}

func (c *channel) flush() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.transport.Flush(); err != nil {
		c.pipeline.FireErrorCaught(AsException(err, captureStack()))
	}
}

func (c *channel) requestRead() {
	// The read loop above is free-running; read_request is a no-op hook
	// for transports (e.g. embedded) that gate reads explicitly.
}

func (c *channel) close(promise Promise) {
	c.teardown(nil)
	promise.Succeed(nil)
}

// teardown runs exactly once: it closes the transport, fires
// channel_inactive, and tears down the pipeline. ex is nil for a
// user-requested close, non-nil when the read loop observed an error
// (including a clean EOF, wrapped as Exception).
func (c *channel) teardown(ex Exception) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.active.Store(false)
	c.cancel()
	_ = c.transport.Close()
	log().Debug().Str("channel", c.id).Msg("channel inactive")
	c.pipeline.FireChannelInactive(ex)
	c.pipeline.teardown()
	c.loop.(*eventLoop).Shutdown()
}

func (c *channel) recordUnhandledRead(msg Message) {
	log().Debug().Str("channel", c.id).Msg("unhandled inbound message dropped at tail")
}

func (c *channel) recordLastError(ex Exception) {
	c.lastError.Store(&ex)
	log().Warn().Str("channel", c.id).Msg(ex.Error())
}

func (c *channel) Close() Future {
	promise := c.loop.NewPromise()
	if c.loop.InLoop() {
		c.close(promise)
	} else {
		c.loop.Execute(func() { c.close(promise) })
	}
	return promise
}
