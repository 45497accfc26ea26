package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/testsheet/internal/core"
)

// WithRequestMetadata tags ctx with the caller of r so service logs can be
// matched to the request. RemoteAddr has already been resolved by
// TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithCaller(ctx, core.Caller{IP: r.RemoteAddr, UserAgent: r.UserAgent()})
}
