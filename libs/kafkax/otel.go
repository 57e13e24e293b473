package kafkax

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// InjectTraceHeaders adds the propagator's fields (traceparent, tracestate,
// baggage) for ctx to headers, replacing stale values.
func InjectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	fields := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, fields)
	for _, key := range fields.Keys() {
		headers = SetHeader(headers, key, fields.Get(key))
	}
	return headers
}

// SetHeader replaces the first header named key, or appends one.
func SetHeader(headers []kafka.Header, key, value string) []kafka.Header {
	for i := range headers {
		if headers[i].Key == key {
			headers[i].Value = []byte(value)
			return headers
		}
	}
	return append(headers, kafka.Header{Key: key, Value: []byte(value)})
}
