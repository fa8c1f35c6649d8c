package netty

import "net"

// Handler is the marker type for anything that can sit in a pipeline. A
// concrete handler implements any non-empty subset of the interfaces below;
// unimplemented inbound methods default to "forward to next", unimplemented
// outbound methods default to "forward to previous".
type Handler interface{}

// Inbound capabilities (head -> tail).

type ReadHandler interface {
	HandleRead(ctx HandlerContext, msg Message)
}

type ReadCompleteHandler interface {
	HandleReadComplete(ctx HandlerContext)
}

type ActiveHandler interface {
	HandleActive(ctx HandlerContext)
}

type InactiveHandler interface {
	HandleInactive(ctx HandlerContext, ex Exception)
}

type UserEventHandler interface {
	HandleEvent(ctx HandlerContext, event Event)
}

type ExceptionHandler interface {
	HandleException(ctx HandlerContext, ex Exception)
}

type WritabilityHandler interface {
	HandleWritabilityChanged(ctx HandlerContext)
}

// Outbound capabilities (tail -> head).

type RegisterHandler interface {
	HandleRegister(ctx HandlerContext, promise Promise)
}

type BindHandler interface {
	HandleBind(ctx HandlerContext, localAddr net.Addr, promise Promise)
}

type ConnectHandler interface {
	HandleConnect(ctx HandlerContext, remoteAddr net.Addr, promise Promise)
}

type WriteHandler interface {
	HandleWrite(ctx HandlerContext, msg Message, promise Promise)
}

type FlushHandler interface {
	HandleFlush(ctx HandlerContext)
}

type ReadRequestHandler interface {
	HandleReadRequested(ctx HandlerContext)
}

type CloseHandler interface {
	HandleClose(ctx HandlerContext, promise Promise)
}

type TriggerEventHandler interface {
	HandleTriggerEvent(ctx HandlerContext, event Event, promise Promise)
}

// Lifecycle capabilities.

// LifecycleAware receives exactly one HandlerAdded call right before the
// handler starts participating in dispatch, and exactly one HandlerRemoved
// call right after it stops (see Pipeline's formal-removal handshake). The
// pipeline calls each method on its own, so a handler may implement
// HandlerAdded or HandlerRemoved alone.
type LifecycleAware interface {
	HandlerAdded(ctx HandlerContext)
	HandlerRemoved(ctx HandlerContext)
}

// Removable is the marker capability a handler must implement for user code
// to be allowed to remove it from a live pipeline. Embed RemovableBase for
// the common case of "always removable".
type Removable interface {
	IsRemovable() bool
}

// RemovableBase is embeddable by handlers that should always be
// user-removable.
type RemovableBase struct{}

func (RemovableBase) IsRemovable() bool { return true }

// FormalRemovable participates in the two-phase removal handshake: when a
// removal is requested, the pipeline invokes HandleFormalRemove instead of
// unlinking immediately, and the handler redeems the token (via
// HandlerContext.LeavePipeline) once it is done draining pending work.
type FormalRemovable interface {
	HandleFormalRemove(ctx HandlerContext, token RemovalToken)
}
