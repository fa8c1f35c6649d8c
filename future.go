package netty

import (
	"fmt"
	"sync"
)

// Future is a single-assignment, value-or-error result, fulfilled exactly
// once on its owning EventLoop. Continuations registered with OnComplete
// run, in registration order, on that same loop.
type Future interface {
	// IsDone reports whether the future has been fulfilled yet.
	IsDone() bool
	// IsSuccess reports whether the future was fulfilled with a value
	// (false if not yet done, or done with an error).
	IsSuccess() bool
	// Wait blocks the caller until the future is fulfilled and returns its
	// value or error. It must not be called from the owning loop: doing so
	// panics, since the loop would never get to fulfil the future.
	Wait() (any, error)
	// OnComplete registers a continuation to run, on the owning loop, after
	// the future is fulfilled. If the future is already done, cb is still
	// scheduled onto the loop rather than invoked inline.
	OnComplete(cb func(Future))
	// Map derives a new Future by applying fn to this future's value once
	// it succeeds; fn's error (or this future's own failure) fails the
	// derived future.
	Map(fn func(any) (any, error)) Future
	// FlatMap is Map for functions that themselves return a Future.
	FlatMap(fn func(any) (Future, error)) Future
}

// Promise is the writable side of a Future: exactly one of Succeed/Fail may
// be called on it, exactly once.
type Promise interface {
	Future
	// Succeed fulfils the promise with a value. A second call to Succeed
	// or Fail on an already-fulfilled promise is a programmer error and
	// panics.
	Succeed(v any)
	// Fail fulfils the promise with an error.
	Fail(err error)
}

type promise struct {
	loop EventLoop

	mu        sync.Mutex
	done      bool
	success   bool
	value     any
	err       error
	callbacks []func(Future)

	waitCh chan struct{}
}

func newPromise(loop EventLoop) *promise {
	return &promise{loop: loop, waitCh: make(chan struct{})}
}

func (p *promise) Succeed(v any) { p.complete(true, v, nil) }
func (p *promise) Fail(err error) {
	if err == nil {
		err = fmt.Errorf("netty: Fail called with nil error")
	}
	p.complete(false, nil, err)
}

func (p *promise) complete(success bool, v any, err error) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		panic(AsException(fmt.Errorf("netty: promise already fulfilled"), captureStack()))
	}
	p.done = true
	p.success = success
	p.value = v
	p.err = err
	cbs := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	close(p.waitCh)

	if len(cbs) > 0 {
		p.loop.Execute(func() {
			for _, cb := range cbs {
				cb(p)
			}
		})
	}
}

func (p *promise) OnComplete(cb func(Future)) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		p.loop.Execute(func() { cb(p) })
		return
	}
	p.callbacks = append(p.callbacks, cb)
	p.mu.Unlock()
}

func (p *promise) IsDone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *promise) IsSuccess() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done && p.success
}

func (p *promise) Wait() (any, error) {
	if p.loop.InLoop() {
		panic(AsException(fmt.Errorf("netty: Future.Wait called from within its own owning loop"), captureStack()))
	}
	<-p.waitCh
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

func (p *promise) result() (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

func (p *promise) Map(fn func(any) (any, error)) Future {
	derived := newPromise(p.loop)
	p.OnComplete(func(f Future) {
		v, err := f.(*promise).result()
		if err != nil {
			derived.Fail(err)
			return
		}
		rv, rerr := fn(v)
		if rerr != nil {
			derived.Fail(rerr)
			return
		}
		derived.Succeed(rv)
	})
	return derived
}

func (p *promise) FlatMap(fn func(any) (Future, error)) Future {
	derived := newPromise(p.loop)
	p.OnComplete(func(f Future) {
		v, err := f.(*promise).result()
		if err != nil {
			derived.Fail(err)
			return
		}
		next, ferr := fn(v)
		if ferr != nil {
			derived.Fail(ferr)
			return
		}
		next.OnComplete(func(nf Future) {
			nv, nerr := nf.(*promise).result()
			if nerr != nil {
				derived.Fail(nerr)
				return
			}
			derived.Succeed(nv)
		})
	})
	return derived
}
