package ctxkeys

import (
	"context"

	"github.com/readium/readium/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	PrincipalKey contextKey = "principal"
)

func Principal(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(PrincipalKey).(*model.Principal)
	return p
}

func WithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}
