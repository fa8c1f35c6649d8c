package netty

import (
	"fmt"
	"net"
	"sync/atomic"
)

// HandlerContext is a handler's view of its position in a Pipeline: it
// carries the fire_* inbound forwarders, the outbound initiators, and
// introspection. The context excludes itself from its own dispatch walk -
// a handler that calls FireChannelRead does not recurse into itself.
type HandlerContext interface {
	Name() string
	Handler() Handler
	Channel() Channel
	EventLoop() EventLoop

	FireChannelRead(msg Message)
	FireChannelReadComplete()
	FireChannelActive()
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

	// LeavePipeline redeems the removal token handed to a FormalRemovable
	// handler's HandleFormalRemove, completing the formal-removal
	// handshake. A token that does not belong to this context is a
	// programmer error. Redeeming an already-inert token (because teardown
	// forced the removal first) is a no-op.
	LeavePipeline(token RemovalToken) error
}

type ctxState int32

const (
	ctxInit ctxState = iota
	ctxAdded
	ctxRemovalPending
	ctxRemoved
)

// RemovalToken is the one-shot credential a FormalRemovable handler must
// present to HandlerContext.LeavePipeline to complete its own removal.
type RemovalToken struct {
	ticket *removalTicket
}

type removalTicket struct {
	ctx      *handlerContext
	redeemed atomic.Bool
}

type handlerContext struct {
	name     string
	handler  Handler
	pipeline *pipeline

	prev, next *handlerContext

	state   atomic.Int32
	ticket  *removalTicket
}

func (c *handlerContext) Name() string       { return c.name }
func (c *handlerContext) Handler() Handler   { return c.handler }
func (c *handlerContext) Channel() Channel   { return c.pipeline.channel }
func (c *handlerContext) EventLoop() EventLoop {
	return c.pipeline.channel.EventLoop()
}

// --- inbound forwarders: walk c.next until a handler implements the
// matching capability. Head/tail always terminate the walk.

func (c *handlerContext) FireChannelRead(msg Message) {
	for n := c.next; n != nil; n = n.next {
		if h, ok := n.handler.(ReadHandler); ok {
			h.HandleRead(n, msg)
			return
		}
	}
}

func (c *handlerContext) FireChannelReadComplete() {
	for n := c.next; n != nil; n = n.next {
		if h, ok := n.handler.(ReadCompleteHandler); ok {
			h.HandleReadComplete(n)
			return
		}
	}
}

func (c *handlerContext) FireChannelActive() {
	for n := c.next; n != nil; n = n.next {
		if h, ok := n.handler.(ActiveHandler); ok {
			h.HandleActive(n)
			return
		}
	}
}

func (c *handlerContext) FireChannelInactive(ex Exception) {
	for n := c.next; n != nil; n = n.next {
		if h, ok := n.handler.(InactiveHandler); ok {
			h.HandleInactive(n, ex)
			return
		}
	}
}

func (c *handlerContext) FireUserInboundEvent(event Event) {
	for n := c.next; n != nil; n = n.next {
		if h, ok := n.handler.(UserEventHandler); ok {
			h.HandleEvent(n, event)
			return
		}
	}
}

func (c *handlerContext) FireErrorCaught(ex Exception) {
	for n := c.next; n != nil; n = n.next {
		if h, ok := n.handler.(ExceptionHandler); ok {
			h.HandleException(n, ex)
			return
		}
	}
}

func (c *handlerContext) FireChannelWritabilityChanged() {
	for n := c.next; n != nil; n = n.next {
		if h, ok := n.handler.(WritabilityHandler); ok {
			h.HandleWritabilityChanged(n)
			return
		}
	}
}

// --- outbound initiators: walk c.prev until a handler implements the
// matching capability. Head always terminates the walk by bridging to the
// transport.

func (c *handlerContext) ensurePromise(p Promise) Promise {
	if p != nil {
		return p
	}
	return c.EventLoop().NewPromise()
}

func (c *handlerContext) Write(msg Message, promise Promise) Future {
	promise = c.ensurePromise(promise)
	for n := c.prev; n != nil; n = n.prev {
		if h, ok := n.handler.(WriteHandler); ok {
			h.HandleWrite(n, msg, promise)
			return promise
		}
	}
	return promise
}

func (c *handlerContext) Flush() {
	for n := c.prev; n != nil; n = n.prev {
		if h, ok := n.handler.(FlushHandler); ok {
			h.HandleFlush(n)
			return
		}
	}
}

func (c *handlerContext) WriteAndFlush(msg Message, promise Promise) Future {
	f := c.Write(msg, promise)
	c.Flush()
	return f
}

func (c *handlerContext) Bind(addr net.Addr, promise Promise) Future {
	promise = c.ensurePromise(promise)
	for n := c.prev; n != nil; n = n.prev {
		if h, ok := n.handler.(BindHandler); ok {
			h.HandleBind(n, addr, promise)
			return promise
		}
	}
	return promise
}

func (c *handlerContext) Connect(addr net.Addr, promise Promise) Future {
	promise = c.ensurePromise(promise)
	for n := c.prev; n != nil; n = n.prev {
		if h, ok := n.handler.(ConnectHandler); ok {
			h.HandleConnect(n, addr, promise)
			return promise
		}
	}
	return promise
}

func (c *handlerContext) Close(promise Promise) Future {
	promise = c.ensurePromise(promise)
	for n := c.prev; n != nil; n = n.prev {
		if h, ok := n.handler.(CloseHandler); ok {
			h.HandleClose(n, promise)
			return promise
		}
	}
	return promise
}

func (c *handlerContext) Read() {
	for n := c.prev; n != nil; n = n.prev {
		if h, ok := n.handler.(ReadRequestHandler); ok {
			h.HandleReadRequested(n)
			return
		}
	}
}

func (c *handlerContext) TriggerUserOutboundEvent(event Event, promise Promise) Future {
	promise = c.ensurePromise(promise)
	for n := c.prev; n != nil; n = n.prev {
		if h, ok := n.handler.(TriggerEventHandler); ok {
			h.HandleTriggerEvent(n, event, promise)
			return promise
		}
	}
	return promise
}

func (c *handlerContext) LeavePipeline(token RemovalToken) error {
	if token.ticket == nil || token.ticket.ctx != c {
		panic(AsException(fmt.Errorf("netty: removal token does not belong to context %q", c.name), captureStack()))
	}
	if !token.ticket.redeemed.CompareAndSwap(false, true) {
		// Already redeemed, or forced inert by teardown: a no-op.
		return nil
	}
	c.pipeline.finishRemoval(c)
	return nil
}
