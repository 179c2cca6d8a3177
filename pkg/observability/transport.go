package observability

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// httpStatusClientError is the threshold for failed HTTP responses.
const httpStatusClientError = 400

const statusOK = "ok"

// tracingTransport wraps an [http.RoundTripper] with a client span and call
// metrics per request.
type tracingTransport struct {
	next    http.RoundTripper
	tracer  trace.Tracer
	metrics *CallMetrics
}

// NewTracingTransport returns a RoundTripper that creates a client span per
// request, injects W3C trace context into its headers and, when metrics is
// non-nil, records it under the "http <path>" operation. A nil next uses
// [http.DefaultTransport].
func NewTracingTransport(next http.RoundTripper, tracer trace.Tracer, metrics *CallMetrics) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &tracingTransport{next: next, tracer: tracer, metrics: metrics}
}

// RoundTrip implements [http.RoundTripper].
func (tt *tracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	op := "http " + req.URL.Path
	start := time.Now()

	ctx, span := tt.tracer.Start(req.Context(), req.Method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			attribute.String("server.address", req.URL.Host),
			attribute.String("url.path", req.URL.Path),
		),
	)
	defer span.End()

	if hash, ok := CommitFromContext(ctx); ok {
		span.SetAttributes(attribute.String("commit.hash", hash))
	}

	out := req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(out.Header))

	resp, err := tt.next.RoundTrip(out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		tt.record(req, op, statusError, start)

		return nil, fmt.Errorf("round trip: %w", err)
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))

	status := statusOK
	if resp.StatusCode >= httpStatusClientError {
		status = statusError

		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	tt.record(req, op, status, start)

	return resp, nil
}

func (tt *tracingTransport) record(req *http.Request, op, status string, start time.Time) {
	if tt.metrics == nil {
		return
	}

	tt.metrics.RecordCall(req.Context(), op, status, time.Since(start))
}
