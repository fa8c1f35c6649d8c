package netty

import (
	"context"
	"sync/atomic"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSpan wraps a real (noop) span, counting End calls while
// delegating everything else, so the test never has to implement the rest
// of trace.Span itself.
type countingSpan struct {
	trace.Span
	ends *int32
}

func (s *countingSpan) End(opts ...trace.SpanEndOption) {
	atomic.AddInt32(s.ends, 1)
	s.Span.End(opts...)
}

type countingTracer struct {
	inner  trace.Tracer
	starts int32
	ends   int32
}

func (t *countingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	atomic.AddInt32(&t.starts, 1)
	ctx, span := t.inner.Start(ctx, name, opts...)
	return ctx, &countingSpan{Span: span, ends: &t.ends}
}

type countingTracerProvider struct{ tracer *countingTracer }

func (p *countingTracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return p.tracer
}

func TestRunMutationWrapsEachOperationInASpan(t *testing.T) {
	counting := &countingTracer{inner: trace.NewNoopTracerProvider().Tracer("test")}
	SetTracerProvider(&countingTracerProvider{tracer: counting})
	defer SetTracerProvider(trace.NewNoopTracerProvider())

	ch := newTestChannel()
	p := ch.Pipeline()

	_, err := drain(ch, p.AddLast("a", &recordingHandler{}))
	require.NoError(t, err)
	_, err = drain(ch, p.Remove("a"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&counting.starts))
	assert.Equal(t, int32(2), atomic.LoadInt32(&counting.ends))
}
