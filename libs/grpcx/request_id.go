package grpcx

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/halcyon-studio/slotbook/libs/httpx"
	"google.golang.org/grpc/metadata"
)

// RequestIDMetadataKey carries the request id in gRPC metadata (lowercase per gRPC conventions).
const RequestIDMetadataKey = "x-request-id"

const maxRequestIDLen = 128

// Request ids share the httpx context key so an id set by HTTP middleware
// flows into outgoing gRPC calls unchanged.
func RequestIDFromContext(ctx context.Context) string {
	return httpx.RequestIDFromContext(ctx)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return httpx.ContextWithRequestID(ctx, id)
}

func NewRequestID() string {
	return uuid.NewString()
}

// incomingRequestID returns a usable id from metadata, or a fresh one.
func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return NewRequestID()
	}
	for _, v := range md.Get(RequestIDMetadataKey) {
		if v = strings.TrimSpace(v); v != "" && len(v) <= maxRequestIDLen {
			return v
		}
	}
	return NewRequestID()
}
