package core

import "context"

// Caller identifies who asked for a load or generation. It only feeds logs.
type Caller struct {
	IP        string
	UserAgent string
}

type callerKey struct{}

// WithCaller attaches c to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the Caller stored by WithCaller, or the zero Caller.
func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}

// logArgs renders the non-empty fields as slog key/value pairs.
func (c Caller) logArgs(extra ...any) []any {
	args := make([]any, 0, 4+len(extra))
	if c.IP != "" {
		args = append(args, "client_ip", c.IP)
	}
	if c.UserAgent != "" {
		args = append(args, "user_agent", c.UserAgent)
	}
	return append(args, extra...)
}
