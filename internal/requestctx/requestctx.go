// Package requestctx carries request metadata below the HTTP layer, so services can
// stamp logs and audit records without seeing the request.
package requestctx

import "context"

type Meta struct {
	RequestID string
	ClientIP  string
}

type metaKey struct{}

func With(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

func From(ctx context.Context) Meta {
	meta, _ := ctx.Value(metaKey{}).(Meta)
	return meta
}

// WithRequestID keeps any client IP already recorded.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	meta := From(ctx)
	meta.RequestID = requestID
	return With(ctx, meta)
}

func GetRequestID(ctx context.Context) string {
	return From(ctx).RequestID
}
