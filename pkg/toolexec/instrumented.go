package toolexec

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Recorder receives call measurements of tool runs.
type Recorder interface {
	RecordCall(ctx context.Context, op, status string, duration time.Duration)
	TrackCall(ctx context.Context, op string) func()
}

type instrumented struct {
	next     Runner
	tracer   trace.Tracer
	recorder Recorder
}

// Instrumented wraps next so every run gets a "tool.run" span and, when
// recorder is non-nil, a call measurement under the "tool <name>" operation.
func Instrumented(next Runner, tracer trace.Tracer, recorder Recorder) Runner {
	if tracer == nil {
		tracer = otel.Tracer("smellwalk")
	}

	return &instrumented{next: next, tracer: tracer, recorder: recorder}
}

// Run implements Runner.
func (in *instrumented) Run(ctx context.Context, cmd Command) ([]byte, error) {
	op := "tool " + cmd.Name

	ctx, span := in.tracer.Start(ctx, "tool.run", trace.WithAttributes(
		attribute.String("tool.name", cmd.Name),
		attribute.Int("tool.args", len(cmd.Args)),
	))
	defer span.End()

	done := func() {}
	if in.recorder != nil {
		done = in.recorder.TrackCall(ctx, op)
	}

	start := time.Now()
	out, err := in.next.Run(ctx, cmd)

	done()

	status := statusOK
	if err != nil {
		status = statusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if in.recorder != nil {
		in.recorder.RecordCall(ctx, op, status, time.Since(start))
	}

	return out, err
}
