package logger

import "context"

type ctxKey struct{}

// WithContext attaches a Logger to ctx.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the Logger attached to ctx, or a no-op logger
// if none was attached.
func FromContext(ctx context.Context) Logger {
	l, ok := ctx.Value(ctxKey{}).(Logger)
	if !ok {
		return NewNop()
	}
	return l
}
