package backend

import (
	"context"

	"github.com/tamshai/hr-gateway/internal/model"
)

type callerKey struct{}

// WithCaller attaches the caller identity to the context for adapter calls
// whose signatures don't carry it (GetByKey, Update). Search requests carry
// the caller explicitly in PageRequest.
func WithCaller(ctx context.Context, caller model.CallerIdentity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the identity attached by WithCaller, or a zero identity
// when none is present (which RLS and role filters treat as no visibility).
func CallerFrom(ctx context.Context) model.CallerIdentity {
	if c, ok := ctx.Value(callerKey{}).(model.CallerIdentity); ok {
		return c
	}
	return model.CallerIdentity{}
}
