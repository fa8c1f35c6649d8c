package netty

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/summerhf/go-netty/internal/utils"
)

// EventLoop is the thread-affinity oracle and task queue a Pipeline and its
// Channel are bound to. Every dispatch, mutation, and deferred-result
// fulfilment for a given pipeline runs on its EventLoop's single worker.
type EventLoop interface {
	// InLoop reports whether the calling goroutine is this loop's worker.
	InLoop() bool
	// Execute enqueues task to run on the loop. Safe to call from any
	// goroutine, including the loop's own worker (it will simply run after
	// whatever is currently executing finishes).
	Execute(task func())
	// Schedule arranges for task to run on the loop after delay. The
	// returned func cancels the timer if it has not fired yet.
	Schedule(delay time.Duration, task func()) (cancel func())
	// NewPromise creates a Promise fulfilled on this loop.
	NewPromise() Promise
}

// eventLoop is the production EventLoop: a single worker goroutine draining
// a FIFO task queue.
type eventLoop struct {
	queue     chan func()
	ownerGoID atomic.Uint64
	closeOnce sync.Once
	done      chan struct{}
}

// NewEventLoop starts a new EventLoop backed by one worker goroutine.
func NewEventLoop() EventLoop {
	el := &eventLoop{
		queue: make(chan func(), 256),
		done:  make(chan struct{}),
	}
	ready := make(chan struct{})
	go el.run(ready)
	<-ready
	return el
}

func (el *eventLoop) run(ready chan struct{}) {
	el.ownerGoID.Store(utils.GoroutineID())
	close(ready)
	for {
		select {
		case task, ok := <-el.queue:
			if !ok {
				return
			}
			task()
		case <-el.done:
			return
		}
	}
}

func (el *eventLoop) InLoop() bool {
	return utils.GoroutineID() == el.ownerGoID.Load()
}

func (el *eventLoop) Execute(task func()) {
	select {
	case el.queue <- task:
	case <-el.done:
	}
}

func (el *eventLoop) Schedule(delay time.Duration, task func()) (cancel func()) {
	timer := time.AfterFunc(delay, func() { el.Execute(task) })
	return func() { timer.Stop() }
}

func (el *eventLoop) NewPromise() Promise {
	return newPromise(el)
}

// Shutdown stops the worker goroutine. Pending queued tasks are dropped.
func (el *eventLoop) Shutdown() {
	el.closeOnce.Do(func() { close(el.done) })
}
