package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vigil-dev/vigil"
)

// Default tracer name for vigil instrumentation.
const defaultTracerName = "vigil"

// OTelConfig configures the OpenTelemetry hooks.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "vigil").
	TracerName string

	// Attributes are added to every revalidation span.
	Attributes []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry hooks.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithAttributes adds constant attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// OTel builds hooks that emit one span per revalidation pass, with the
// diff sizes as attributes. Revalidation is synchronous, so the span
// brackets exactly the work done inside the batch-completion handler.
func OTel(opts ...OTelOption) vigil.Hooks {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	// A revalidation pass never nests, so one pending span is enough.
	var span trace.Span

	return vigil.Hooks{
		RevalidateStart: func() {
			_, span = config.tracer.Start(context.Background(), "vigil.revalidate",
				trace.WithAttributes(config.Attributes...))
		},
		RevalidateEnd: func(elapsed time.Duration, d vigil.Delta) {
			if span == nil {
				return
			}
			span.SetAttributes(
				attribute.Int("vigil.added", d.Added),
				attribute.Int("vigil.updated", d.Updated),
				attribute.Int("vigil.removed", d.Removed),
				attribute.Int64("vigil.duration_us", elapsed.Microseconds()),
			)
			span.End()
			span = nil
		},
	}
}

// Combine fans coordinator notifications out to several hooks values,
// invoked in order.
func Combine(hooks ...vigil.Hooks) vigil.Hooks {
	return vigil.Hooks{
		RevalidateStart: func() {
			for _, h := range hooks {
				if h.RevalidateStart != nil {
					h.RevalidateStart()
				}
			}
		},
		RevalidateEnd: func(elapsed time.Duration, d vigil.Delta) {
			for _, h := range hooks {
				if h.RevalidateEnd != nil {
					h.RevalidateEnd(elapsed, d)
				}
			}
		},
		WatcherRegistered: func(kind vigil.WatcherKind) {
			for _, h := range hooks {
				if h.WatcherRegistered != nil {
					h.WatcherRegistered(kind)
				}
			}
		},
		WatcherReleased: func(kind vigil.WatcherKind) {
			for _, h := range hooks {
				if h.WatcherReleased != nil {
					h.WatcherReleased(kind)
				}
			}
		},
	}
}
