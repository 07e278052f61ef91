package tracing

import (
	"context"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/jaeger-client-go"

	"github.com/customeros/cardstack/internal/utils"
)

func TestGetTraceId(t *testing.T) {
	tracer, closer := jaeger.NewTracer("cardstack-test", jaeger.NewConstSampler(true), jaeger.NewNullReporter())
	defer closer.Close()
	previous := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(previous)

	span := tracer.StartSpan("request")
	defer span.Finish()

	spanContext, ok := span.Context().(jaeger.SpanContext)
	require.True(t, ok)
	assert.Equal(t, spanContext.TraceID().String(), GetTraceId(span))
}

func TestSetDefaultRestSpanTags(t *testing.T) {
	tracer := mocktracer.New()
	span := tracer.StartSpan("request")

	ctx := utils.SetTenantInContext(context.Background(), "acme")
	SetDefaultRestSpanTags(ctx, span)
	span.Finish()

	finished := tracer.FinishedSpans()
	require.Len(t, finished, 1)
	assert.Equal(t, "acme", finished[0].Tag(SpanTagTenant))
	assert.Equal(t, SpanTagComponentRest, finished[0].Tag(SpanTagComponent))
}
