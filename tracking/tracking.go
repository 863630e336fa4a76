// Package tracking threads a per-request tracking number through contexts so
// every log line of one request can be correlated.
package tracking

import (
	"context"
)

type key struct{}

// None is reported when a context carries no tracking number.
const None = "-"

func With(ctx context.Context, number string) context.Context {
	return context.WithValue(ctx, key{}, number)
}

func From(ctx context.Context) string {
	if ctx == nil {
		return None
	}
	if n, ok := ctx.Value(key{}).(string); ok && n != "" {
		return n
	}
	return None
}
