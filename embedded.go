package netty

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// embeddedLoop is a synchronous EventLoop: Execute only enqueues, nothing
// runs until Run is called. InLoop reports true only while a task is
// actively being drained, mirroring how a real worker goroutine's InLoop
// reports true only from inside its own run loop.
type embeddedLoop struct {
	mu      sync.Mutex
	queue   []func()
	running atomic.Bool
}

func newEmbeddedLoop() *embeddedLoop { return &embeddedLoop{} }

func (l *embeddedLoop) InLoop() bool { return l.running.Load() }

func (l *embeddedLoop) Execute(task func()) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()
}

// Schedule has no real clock to wait on: the task is queued immediately
// and runs on the next Run call. The returned cancel is therefore only
// useful before the next Run.
func (l *embeddedLoop) Schedule(_ time.Duration, task func()) (cancel func()) {
	var cancelled atomic.Bool
	l.Execute(func() {
		if !cancelled.Load() {
			task()
		}
	})
	return func() { cancelled.Store(true) }
}

func (l *embeddedLoop) NewPromise() Promise { return newPromise(l) }

// Run drains every currently queued task, including ones queued by tasks
// that ran earlier in the same call, until the queue is empty.
func (l *embeddedLoop) Run() {
	l.running.Store(true)
	defer l.running.Store(false)
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		task()
	}
}

type embeddedAddr struct{ s string }

func (a embeddedAddr) Network() string { return "embedded" }
func (a embeddedAddr) String() string  { return a.s }

// EmbeddedChannel is the in-memory Channel used to observe pipeline
// semantics deterministically in tests, without a real socket. WriteInbound
// and WriteOutbound inject traffic and drain the loop in one step;
// ReadInbound/ReadOutbound pop whatever reached tail/head as a result.
type EmbeddedChannel struct {
	id       string
	ctx      context.Context
	cancel   context.CancelFunc
	pipeline *pipeline
	loop     *embeddedLoop

	attachment atomic.Pointer[any]
	registered atomic.Bool
	active     atomic.Bool
	closed     atomic.Bool

	mu       sync.Mutex
	inbound  []Message
	outbound []Message

	lastError atomic.Pointer[Exception]
}

var (
	_ Channel        = (*EmbeddedChannel)(nil)
	_ transportBridge = (*EmbeddedChannel)(nil)
	_ starter        = (*EmbeddedChannel)(nil)
)

// NewEmbeddedChannel builds a ready-to-use embedded channel, running init
// (if non-nil) against its pipeline before channel_active fires.
func NewEmbeddedChannel(init PipelineInitializer) *EmbeddedChannel {
	ctx, cancel := context.WithCancel(context.Background())
	c := &EmbeddedChannel{
		id:       SequenceID()(),
		ctx:      ctx,
		cancel:   cancel,
		pipeline: NewPipeline(),
		loop:     newEmbeddedLoop(),
	}
	// Attach immediately so init can populate the pipeline before
	// ServeChannel starts the channel.
	c.pipeline.channel = c
	if init != nil {
		init(c)
	}
	c.pipeline.ServeChannel(c)
	return c
}

func (c *EmbeddedChannel) start() {
	c.registered.Store(true)
	c.active.Store(true)
	c.pipeline.FireChannelActive()
	c.Run()
}

func (c *EmbeddedChannel) ID() string               { return c.id }
func (c *EmbeddedChannel) Context() context.Context { return c.ctx }
func (c *EmbeddedChannel) Pipeline() Pipeline       { return c.pipeline }
func (c *EmbeddedChannel) EventLoop() EventLoop      { return c.loop }

func (c *EmbeddedChannel) Attachment() Attachment {
	if v := c.attachment.Load(); v != nil {
		return *v
	}
	return nil
}

func (c *EmbeddedChannel) SetAttachment(a Attachment) { c.attachment.Store(&a) }

func (c *EmbeddedChannel) LocalAddr() net.Addr  { return embeddedAddr{"embedded-local"} }
func (c *EmbeddedChannel) RemoteAddr() net.Addr { return embeddedAddr{"embedded-remote"} }

func (c *EmbeddedChannel) Registered() bool { return c.registered.Load() }
func (c *EmbeddedChannel) Active() bool     { return c.active.Load() }
func (c *EmbeddedChannel) Closed() bool     { return c.closed.Load() }

// Run drains every task currently queued on the channel's loop - the
// deterministic alternative to waiting on a background worker.
func (c *EmbeddedChannel) Run() { c.loop.Run() }

// ReadInbound pops the oldest message that reached tail unhandled.
func (c *EmbeddedChannel) ReadInbound() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inbound) == 0 {
		return nil, false
	}
	msg := c.inbound[0]
	c.inbound = c.inbound[1:]
	return msg, true
}

// ReadOutbound pops the oldest message that reached head going outward.
func (c *EmbeddedChannel) ReadOutbound() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outbound) == 0 {
		return nil, false
	}
	msg := c.outbound[0]
	c.outbound = c.outbound[1:]
	return msg, true
}

// WriteInbound fires channel_read(msg) followed by channel_read_complete,
// drains the loop, and reports whether anything newly reached tail.
func (c *EmbeddedChannel) WriteInbound(msg Message) bool {
	c.mu.Lock()
	before := len(c.inbound)
	c.mu.Unlock()

	c.pipeline.FireChannelRead(msg)
	c.pipeline.FireChannelReadComplete()
	c.Run()

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inbound) > before
}

// WriteOutbound initiates write_and_flush(msg) from the pipeline's tail,
// drains the loop, and reports whether anything newly reached head.
func (c *EmbeddedChannel) WriteOutbound(msg Message) bool {
	c.mu.Lock()
	before := len(c.outbound)
	c.mu.Unlock()

	c.pipeline.WriteAndFlush(msg, nil)
	c.Run()

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outbound) > before
}

// Finish tears the channel down and reports whether either buffer was
// non-empty at that point. A second call fails with ErrAlreadyClosed.
func (c *EmbeddedChannel) Finish() (bool, error) {
	if !c.closed.CompareAndSwap(false, true) {
		return false, ErrAlreadyClosed
	}
	c.mu.Lock()
	nonEmpty := len(c.inbound) > 0 || len(c.outbound) > 0
	c.mu.Unlock()

	c.active.Store(false)
	c.cancel()
	c.pipeline.FireChannelInactive(nil)
	c.pipeline.teardown()
	c.Run()
	return nonEmpty, nil
}

func (c *EmbeddedChannel) Close() Future {
	promise := c.loop.NewPromise()
	_, err := c.Finish()
	if err != nil {
		promise.Fail(err)
	} else {
		promise.Succeed(nil)
	}
	c.Run()
	return promise
}

func (c *EmbeddedChannel) enqueueWrite(msg Message, promise Promise) {
	if c.Closed() {
		promise.Fail(ErrIOOnClosedChannel)
		return
	}
	c.mu.Lock()
	c.outbound = append(c.outbound, msg)
	c.mu.Unlock()
	promise.Succeed(msg)
}

func (c *EmbeddedChannel) flush()        {}
func (c *EmbeddedChannel) requestRead()  {}

func (c *EmbeddedChannel) close(promise Promise) {
	_, err := c.Finish()
	if err != nil {
		promise.Fail(err)
		return
	}
	promise.Succeed(nil)
}

func (c *EmbeddedChannel) recordUnhandledRead(msg Message) {
	c.mu.Lock()
	c.inbound = append(c.inbound, msg)
	c.mu.Unlock()
}

func (c *EmbeddedChannel) recordLastError(ex Exception) {
	c.lastError.Store(&ex)
}

// LastError returns the most recent exception that reached tail unhandled,
// if any.
func (c *EmbeddedChannel) LastError() (Exception, bool) {
	if v := c.lastError.Load(); v != nil {
		return *v, true
	}
	return nil, false
}
