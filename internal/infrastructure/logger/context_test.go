package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	l, _ := observed()

	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithRequestIDAndJobID(t *testing.T) {
	base, logs := observed()

	ctx, l := WithRequestID(context.Background(), base, "req-1")
	ctx, l = WithJobID(ctx, l, "job-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "job-1", GetJobID(ctx))
	assert.Same(t, l, FromContext(ctx))

	l.Info("staged")
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "job-1", fields["job_id"])

	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetJobID(context.Background()))
}

func TestWithTraceContext(t *testing.T) {
	base, logs := observed()

	assert.Same(t, base, WithTraceContext(context.Background(), base))

	WithTraceContext(spanContext(t), base).Info("traced")
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestContextLogger(t *testing.T) {
	base, logs := observed()

	ctx := WithContext(spanContext(t), base)
	ctx, _ = WithJobID(ctx, base, "job-9")

	cl := L(ctx).With(zap.String("stage", "render"))
	cl.Debug("d")
	cl.Info("i")
	cl.Warn("w")
	cl.Error("e")

	require.Equal(t, 4, logs.Len())
	for _, entry := range logs.All() {
		fields := entry.ContextMap()
		assert.Equal(t, "render", fields["stage"])
		assert.Equal(t, "job-9", fields["job_id"])
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	}
}

func TestContextLogger_EmptyContext(t *testing.T) {
	cl := L(context.Background())
	assert.NotPanics(t, func() {
		cl.Info("nobody listens")
	})
	assert.NotNil(t, cl.Zap())
}
