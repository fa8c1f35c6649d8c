package netty

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// tracer is the module-wide tracer used to wrap pipeline mutations in a
// span. It defaults to the global no-op tracer, so call sites never branch
// on "is tracing configured" - they just start a span that costs nothing
// when no SDK is wired in by the caller.
var tracer trace.Tracer = trace.NewNoopTracerProvider().Tracer("github.com/summerhf/go-netty")

// SetTracerProvider installs tp as the source of spans for pipeline
// mutations. Call once, before channels are created.
func SetTracerProvider(tp trace.TracerProvider) {
	tracer = tp.Tracer("github.com/summerhf/go-netty")
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}
