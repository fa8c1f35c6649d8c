package netty

import (
	"fmt"
	"net"
	"reflect"
	"sync/atomic"
	"time"
)

// Position selects which end of the pipeline AddMultiple is anchored at.
type Position int

const (
	First Position = iota
	Last
)

// NamedHandler pairs a handler with an explicit (or empty, for
// auto-generated) name, for AddMultiple.
type NamedHandler struct {
	Name    string
	Handler Handler
}

const (
	headName = "head"
	tailName = "tail"
)

// Pipeline is the ordered, bidirectional chain of handlers for one Channel.
// Every mutation method returns a Future fulfilled once the structural edit
// and any lifecycle callback it triggers have completed. Removing a
// FormalRemovable handler is the exception: the Future is fulfilled once
// HandleFormalRemove returns, and HandlerRemoved runs later, when the
// handler redeems its RemovalToken or when the channel tears down.
type Pipeline interface {
	AddFirst(name string, h Handler) Future
	AddLast(name string, h Handler) Future
	AddBefore(ref, name string, h Handler) Future
	AddAfter(ref, name string, h Handler) Future
	AddMultiple(pos Position, handlers ...NamedHandler) Future

	Remove(name string) Future
	RemoveHandler(h Handler) Future
	RemoveContext(ctx HandlerContext) Future

	ContextByName(name string) (HandlerContext, error)
	ContextByHandlerType(sample Handler) (HandlerContext, error)
	ContextByHandler(h Handler) (HandlerContext, error)

	Size() int
	Channel() Channel
	ServeChannel(channel Channel)

	FireChannelActive()
	FireChannelRead(msg Message)
	FireChannelReadComplete()
	FireChannelInactive(ex Exception)
	FireUserInboundEvent(event Event)
	FireErrorCaught(ex Exception)
	FireChannelWritabilityChanged()

	Write(msg Message, promise Promise) Future
	Flush()
	WriteAndFlush(msg Message, promise Promise) Future
	Bind(addr net.Addr, promise Promise) Future
	Connect(addr net.Addr, promise Promise) Future
	Close(promise Promise) Future
	Read()
	TriggerUserOutboundEvent(event Event, promise Promise) Future
}

// pipeline implements Pipeline as a doubly-linked list bracketed by
// permanent head/tail sentinels. Every mutation below either runs directly
// on the owning loop or is submitted to it: the list itself is never
// touched from two goroutines at once, so it carries no lock of its own.
type pipeline struct {
	head, tail *handlerContext
	channel    Channel
	started    atomic.Bool
	size       atomic.Int32
	autoSeq    atomic.Int64

	// pending holds removal tickets for handlers mid formal-removal
	// handshake. Only ever touched on the owning loop.
	pending map[*handlerContext]*removalTicket

	metrics *Metrics
}

// NewPipeline builds an empty pipeline (head/tail only). ServeChannel
// attaches it to a Channel.
func NewPipeline() *pipeline {
	p := &pipeline{pending: make(map[*handlerContext]*removalTicket)}
	p.head = &handlerContext{name: headName, pipeline: p, handler: new(headHandler)}
	p.tail = &handlerContext{name: tailName, pipeline: p, handler: new(tailHandler)}
	p.head.next = p.tail
	p.tail.prev = p.head
	p.head.state.Store(int32(ctxAdded))
	p.tail.state.Store(int32(ctxAdded))
	p.size.Store(2)
	return p
}

// WithMetrics attaches a Metrics collector for lifecycle/mutation
// observability; the default (nil) disables collection.
func (p *pipeline) WithMetrics(m *Metrics) *pipeline {
	p.metrics = m
	return p
}

func (p *pipeline) Channel() Channel { return p.channel }
func (p *pipeline) Size() int        { return int(p.size.Load()) }

// starter is implemented by the concrete Channel type to begin serving
// once it has been attached to its pipeline.
type starter interface {
	start()
}

// ServeChannel attaches the pipeline to channel, if a ChannelFactory has
// not already done so to let a PipelineInitializer populate the pipeline
// before the channel starts, and starts the channel. A pipeline may be
// started exactly once.
func (p *pipeline) ServeChannel(channel Channel) {
	if p.channel == nil {
		p.channel = channel
	} else if p.channel != channel {
		panic(AsException(fmt.Errorf("netty: pipeline already attached to a different channel"), captureStack()))
	}
	if !p.started.CompareAndSwap(false, true) {
		panic(AsException(fmt.Errorf("netty: pipeline already started"), captureStack()))
	}
	if s, ok := channel.(starter); ok {
		s.start()
	}
}

func (p *pipeline) loop() EventLoop { return p.channel.EventLoop() }

func (p *pipeline) autoName(h Handler) string {
	n := p.autoSeq.Add(1)
	return fmt.Sprintf("%T#%d", h, n)
}

// runMutation executes op on the owning loop - synchronously if the caller
// is already on it, submitted otherwise - and always fulfils promise
// through a further loop.Execute so continuations never run within the
// mutating call's own stack frame. Before the channel has started (a
// PipelineInitializer populating the pipeline pre-activation), op also
// runs synchronously: nothing else can be touching the pipeline yet, and
// the structural edit must be visible by the time channel_active fires.
// The whole call, from here to the promise's fulfilment, is wrapped in a
// span named after operation so a configured TracerProvider can see
// mutation latency end to end.
func (p *pipeline) runMutation(operation string, promise Promise, op func() (any, error)) Future {
	loop := p.loop()
	start := time.Now()
	_, span := startSpan(p.channel.Context(), operation)
	run := func() {
		v, err := op()
		loop.Execute(func() {
			span.End()
			p.metrics.observeMutation(operation, time.Since(start).Seconds())
			if err != nil {
				promise.Fail(err)
			} else {
				promise.Succeed(v)
			}
		})
	}
	if !p.started.Load() || loop.InLoop() {
		run()
	} else {
		loop.Execute(run)
	}
	return promise
}

func (p *pipeline) closed() bool {
	return p.channel != nil && p.channel.Closed()
}

// --- lookup ---

func (p *pipeline) ContextByName(name string) (HandlerContext, error) {
	for c := p.head.next; c != p.tail; c = c.next {
		if c.name == name {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (p *pipeline) ContextByHandlerType(sample Handler) (HandlerContext, error) {
	want := reflect.TypeOf(sample)
	for c := p.head.next; c != p.tail; c = c.next {
		if reflect.TypeOf(c.handler) == want {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (p *pipeline) ContextByHandler(h Handler) (HandlerContext, error) {
	for c := p.head.next; c != p.tail; c = c.next {
		if c.handler == h {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

// findRef resolves a by-name reference to a still-linked, non-sentinel
// context.
func (p *pipeline) findRef(ref string) (*handlerContext, error) {
	if ref == headName || ref == tailName {
		return nil, ErrNotFound
	}
	for c := p.head.next; c != p.tail; c = c.next {
		if c.name == ref {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

// --- add ---

func (p *pipeline) newContext(name string, h Handler) (*handlerContext, error) {
	if name == "" {
		name = p.autoName(h)
	} else if name == headName || name == tailName {
		return nil, ErrDuplicateName
	} else if _, err := p.ContextByName(name); err == nil {
		return nil, ErrDuplicateName
	}
	return &handlerContext{name: name, handler: h, pipeline: p}, nil
}

func (p *pipeline) link(ctx, prev, next *handlerContext) {
	ctx.prev, ctx.next = prev, next
	prev.next, next.prev = ctx, ctx
	p.size.Add(1)
}

func (p *pipeline) activate(ctx *handlerContext) {
	ctx.state.Store(int32(ctxAdded))
	if la, ok := ctx.handler.(interface{ HandlerAdded(HandlerContext) }); ok {
		la.HandlerAdded(ctx)
	}
	p.metrics.observeLifecycle(fmt.Sprintf("%T", ctx.handler), "added")
	log().Debug().Str("handler", ctx.name).Msg("handler added")
}

func (p *pipeline) doAdd(name string, h Handler, prev, next *handlerContext) (*handlerContext, error) {
	if p.closed() {
		return nil, ErrIOOnClosedChannel
	}
	ctx, err := p.newContext(name, h)
	if err != nil {
		return nil, err
	}
	p.link(ctx, prev, next)
	p.activate(ctx)
	return ctx, nil
}

func (p *pipeline) AddFirst(name string, h Handler) Future {
	promise := p.loop().NewPromise()
	return p.runMutation("add_first", promise, func() (any, error) {
		return p.doAdd(name, h, p.head, p.head.next)
	})
}

func (p *pipeline) AddLast(name string, h Handler) Future {
	promise := p.loop().NewPromise()
	return p.runMutation("add_last", promise, func() (any, error) {
		return p.doAdd(name, h, p.tail.prev, p.tail)
	})
}

func (p *pipeline) AddBefore(ref, name string, h Handler) Future {
	promise := p.loop().NewPromise()
	return p.runMutation("add_before", promise, func() (any, error) {
		if p.closed() {
			return nil, ErrIOOnClosedChannel
		}
		r, err := p.findRef(ref)
		if err != nil {
			return nil, err
		}
		return p.doAdd(name, h, r.prev, r)
	})
}

func (p *pipeline) AddAfter(ref, name string, h Handler) Future {
	promise := p.loop().NewPromise()
	return p.runMutation("add_after", promise, func() (any, error) {
		if p.closed() {
			return nil, ErrIOOnClosedChannel
		}
		r, err := p.findRef(ref)
		if err != nil {
			return nil, err
		}
		return p.doAdd(name, h, r, r.next)
	})
}

// AddMultiple inserts handlers atomically with respect to the anchor (head
// or tail): either every context is created and activated, in insertion
// order, or none are.
func (p *pipeline) AddMultiple(pos Position, handlers ...NamedHandler) Future {
	promise := p.loop().NewPromise()
	return p.runMutation("add_multiple", promise, func() (any, error) {
		if p.closed() {
			return nil, ErrIOOnClosedChannel
		}

		seen := make(map[string]bool, len(handlers))
		ctxs := make([]*handlerContext, 0, len(handlers))
		for _, nh := range handlers {
			name := nh.Name
			if name == "" {
				name = p.autoName(nh.Handler)
			} else if name == headName || name == tailName || seen[name] {
				return nil, ErrDuplicateName
			} else if _, err := p.ContextByName(name); err == nil {
				return nil, ErrDuplicateName
			}
			seen[name] = true
			ctxs = append(ctxs, &handlerContext{name: name, handler: nh.Handler, pipeline: p})
		}

		anchorPrev, anchorNext := p.tail.prev, p.tail
		if pos == First {
			anchorPrev, anchorNext = p.head, p.head.next
		}
		for _, ctx := range ctxs {
			p.link(ctx, anchorPrev, anchorNext)
			anchorPrev = ctx
		}
		for _, ctx := range ctxs {
			p.activate(ctx)
		}
		return ctxs, nil
	})
}

// --- remove ---

func (p *pipeline) Remove(name string) Future {
	promise := p.loop().NewPromise()
	return p.runMutation("remove", promise, func() (any, error) {
		ctx, err := p.ContextByName(name)
		if err != nil {
			return nil, err
		}
		return nil, p.beginRemoval(ctx.(*handlerContext))
	})
}

func (p *pipeline) RemoveHandler(h Handler) Future {
	promise := p.loop().NewPromise()
	return p.runMutation("remove", promise, func() (any, error) {
		ctx, err := p.ContextByHandler(h)
		if err != nil {
			return nil, err
		}
		return nil, p.beginRemoval(ctx.(*handlerContext))
	})
}

func (p *pipeline) RemoveContext(ctx HandlerContext) Future {
	promise := p.loop().NewPromise()
	return p.runMutation("remove", promise, func() (any, error) {
		c, ok := ctx.(*handlerContext)
		if !ok || c.pipeline != p || c.state.Load() == int32(ctxRemoved) {
			return nil, ErrNotFound
		}
		return nil, p.beginRemoval(c)
	})
}

// beginRemoval starts (and, for handlers without a formal-remove hook,
// immediately finishes) the removal handshake.
func (p *pipeline) beginRemoval(ctx *handlerContext) error {
	if ctx == p.head || ctx == p.tail {
		return ErrUnremovableHandler
	}
	if ctx.state.Load() != int32(ctxAdded) {
		return ErrNotFound
	}
	r, ok := ctx.handler.(Removable)
	if !ok || !r.IsRemovable() {
		return ErrUnremovableHandler
	}

	ticket := &removalTicket{ctx: ctx}
	ctx.ticket = ticket
	ctx.state.Store(int32(ctxRemovalPending))
	p.pending[ctx] = ticket

	if fr, ok := ctx.handler.(FormalRemovable); ok {
		fr.HandleFormalRemove(ctx, RemovalToken{ticket: ticket})
		return nil
	}

	// No formal-remove hook declared: nothing to drain, finish now.
	if ticket.redeemed.CompareAndSwap(false, true) {
		p.finishRemoval(ctx)
	}
	return nil
}

// finishRemoval unlinks ctx and invokes HandlerRemoved. ctx's own prev/next
// pointers are left untouched until after that callback runs (only its
// neighbors are repointed), so a handler executing inside HandlerRemoved
// can keep firing events through ctx as if it were still live. Once
// finishRemoval returns, ctx's handler and links are cleared and it no
// longer dispatches, including for the rest of a HandleFormalRemove that
// redeemed its token from within.
func (p *pipeline) finishRemoval(ctx *handlerContext) {
	ctx.prev.next = ctx.next
	ctx.next.prev = ctx.prev
	p.size.Add(-1)
	delete(p.pending, ctx)

	ctx.state.Store(int32(ctxRemoved))
	if la, ok := ctx.handler.(interface{ HandlerRemoved(HandlerContext) }); ok {
		la.HandlerRemoved(ctx)
	}
	p.metrics.observeLifecycle(fmt.Sprintf("%T", ctx.handler), "removed")
	log().Debug().Str("handler", ctx.name).Msg("handler removed")

	ctx.handler = nil
	ctx.prev, ctx.next = nil, nil
}

// teardown forces completion of any handshake still pending when the
// channel closes and clears every remaining handler. Always runs on the
// owning loop.
func (p *pipeline) teardown() {
	log().Debug().Int("size", p.Size()).Msg("pipeline teardown")
	for ctx, ticket := range p.pending {
		if ticket.redeemed.CompareAndSwap(false, true) {
			p.finishRemoval(ctx)
		}
	}
	for c := p.head.next; c != p.tail; {
		next := c.next
		if c.state.Load() == int32(ctxAdded) {
			c.state.Store(int32(ctxRemoved))
			if la, ok := c.handler.(interface{ HandlerRemoved(HandlerContext) }); ok {
				la.HandlerRemoved(c)
			}
			p.metrics.observeLifecycle(fmt.Sprintf("%T", c.handler), "removed")
			c.handler = nil
		}
		c = next
	}
	p.head.next, p.tail.prev = p.tail, p.head
	p.size.Store(2)
}

// --- inbound fan-in ---

func (p *pipeline) FireChannelActive()              { p.head.FireChannelActive() }
func (p *pipeline) FireChannelRead(msg Message)      { p.head.FireChannelRead(msg) }
func (p *pipeline) FireChannelReadComplete()         { p.head.FireChannelReadComplete() }
func (p *pipeline) FireChannelInactive(ex Exception) { p.head.FireChannelInactive(ex) }
func (p *pipeline) FireUserInboundEvent(event Event) { p.head.FireUserInboundEvent(event) }
func (p *pipeline) FireErrorCaught(ex Exception)     { p.head.FireErrorCaught(ex) }
func (p *pipeline) FireChannelWritabilityChanged()   { p.head.FireChannelWritabilityChanged() }

// --- outbound fan-in: every pipeline-level outbound call originates at
// the tail and walks the full chain of installed handlers. ---

func (p *pipeline) Write(msg Message, promise Promise) Future {
	return p.tail.Write(msg, promise)
}
func (p *pipeline) Flush() { p.tail.Flush() }
func (p *pipeline) WriteAndFlush(msg Message, promise Promise) Future {
	return p.tail.WriteAndFlush(msg, promise)
}
func (p *pipeline) Bind(addr net.Addr, promise Promise) Future {
	return p.tail.Bind(addr, promise)
}
func (p *pipeline) Connect(addr net.Addr, promise Promise) Future {
	return p.tail.Connect(addr, promise)
}
func (p *pipeline) Close(promise Promise) Future { return p.tail.Close(promise) }
func (p *pipeline) Read()                        { p.tail.Read() }
func (p *pipeline) TriggerUserOutboundEvent(event Event, promise Promise) Future {
	return p.tail.TriggerUserOutboundEvent(event, promise)
}
