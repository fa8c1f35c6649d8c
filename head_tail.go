package netty

import "net"

// transportBridge is whatever head_tail needs from a concrete Channel to
// drive its transport and note anything the rest of the pipeline didn't
// claim. The production channel and the embedded test driver both
// implement it with very different backends (a real transport.Transport
// vs. in-memory queues).
type transportBridge interface {
	enqueueWrite(msg Message, promise Promise)
	flush()
	requestRead()
	close(promise Promise)
	recordUnhandledRead(msg Message)
	recordLastError(ex Exception)
}

// headHandler is the permanent first link in every pipeline. It has no
// inbound capability of its own - inbound dispatch simply starts at
// c.head.next - and it is the outbound terminus: writes, flushes, read
// requests and closes that reach it are handed off to the channel's
// transport. Register succeeds without touching the transport; Bind and
// Connect are not handed off and fail with ErrNotFound.
type headHandler struct{}

var _ WriteHandler = (*headHandler)(nil)
var _ FlushHandler = (*headHandler)(nil)
var _ BindHandler = (*headHandler)(nil)
var _ ConnectHandler = (*headHandler)(nil)
var _ CloseHandler = (*headHandler)(nil)
var _ ReadRequestHandler = (*headHandler)(nil)
var _ RegisterHandler = (*headHandler)(nil)

func (*headHandler) HandleRegister(ctx HandlerContext, promise Promise) {
	promise.Succeed(nil)
}

func (*headHandler) HandleBind(ctx HandlerContext, localAddr net.Addr, promise Promise) {
	promise.Fail(ErrNotFound)
}

func (*headHandler) HandleConnect(ctx HandlerContext, remoteAddr net.Addr, promise Promise) {
	promise.Fail(ErrNotFound)
}

func (*headHandler) HandleWrite(ctx HandlerContext, msg Message, promise Promise) {
	ch, ok := ctx.Channel().(transportBridge)
	if !ok {
		promise.Fail(ErrIOOnClosedChannel)
		return
	}
	ch.enqueueWrite(msg, promise)
}

func (*headHandler) HandleFlush(ctx HandlerContext) {
	if ch, ok := ctx.Channel().(transportBridge); ok {
		ch.flush()
	}
}

func (*headHandler) HandleReadRequested(ctx HandlerContext) {
	if ch, ok := ctx.Channel().(transportBridge); ok {
		ch.requestRead()
	}
}

func (*headHandler) HandleClose(ctx HandlerContext, promise Promise) {
	if ch, ok := ctx.Channel().(transportBridge); ok {
		ch.close(promise)
		return
	}
	promise.Succeed(nil)
}

// tailHandler is the permanent last link in every pipeline: the inbound
// terminus. Reads nobody claimed are dropped (after being noted on the
// channel for introspection); errors nobody claimed become the channel's
// last error. It has no outbound capability - outbound dispatch simply
// starts at c.tail.prev.
type tailHandler struct{}

var _ ReadHandler = (*tailHandler)(nil)
var _ ExceptionHandler = (*tailHandler)(nil)
var _ InactiveHandler = (*tailHandler)(nil)
var _ ActiveHandler = (*tailHandler)(nil)

func (*tailHandler) HandleRead(ctx HandlerContext, msg Message) {
	if ch, ok := ctx.Channel().(transportBridge); ok {
		ch.recordUnhandledRead(msg)
	}
}

func (*tailHandler) HandleException(ctx HandlerContext, ex Exception) {
	if ch, ok := ctx.Channel().(transportBridge); ok {
		ch.recordLastError(ex)
	}
}

func (*tailHandler) HandleInactive(ctx HandlerContext, ex Exception) {}

func (*tailHandler) HandleActive(ctx HandlerContext) {}
