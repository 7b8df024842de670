package transport

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const spanName = "fetchkit.request"

// Tracing starts a client span around each round trip and injects the span
// context into the outgoing headers. A nil tracer falls back to a no-op
// tracer and a nil propagator to the global one.
func Tracing(tracer trace.Tracer, propagator propagation.TextMapPropagator) Middleware {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			ctx, span := tracer.Start(r.Context(), spanName, trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			span.SetAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.full", r.URL.Redacted()),
				attribute.String("server.address", r.URL.Hostname()),
			)

			p := propagator
			if p == nil {
				p = otel.GetTextMapPropagator()
			}

			cpy := r.Clone(ctx)
			p.Inject(ctx, propagation.HeaderCarrier(cpy.Header))

			resp, err := next.RoundTrip(cpy)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			if resp.StatusCode >= http.StatusBadRequest {
				span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
			}

			return resp, nil
		})
	}
}
