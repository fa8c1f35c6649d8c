package netty

import "runtime/debug"

// captureStack returns the current goroutine's stack trace, for attaching
// to a programmer-error Exception at the point it is raised.
func captureStack() []byte {
	return debug.Stack()
}
