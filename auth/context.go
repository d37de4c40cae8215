package auth

import "context"

type principalKeyT struct{}

var principalKey principalKeyT

// WithPrincipal attaches the calling principal's identity to ctx.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey, principal)
}

// WithSystem returns a context carrying the elevated system identity. It is
// meant to be held only for the duration of engine-initiated cleanup.
func WithSystem(ctx context.Context) context.Context {
	return WithPrincipal(ctx, System)
}

// PrincipalFromContext extracts the principal identity from ctx. The second
// return value is false when no principal is attached.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(principalKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// Identity returns the principal attached to ctx or Anonymous.
func Identity(ctx context.Context) string {
	if principal, ok := PrincipalFromContext(ctx); ok {
		return principal
	}
	return Anonymous
}

// IsSystem reports whether ctx carries the elevated system identity.
func IsSystem(ctx context.Context) bool {
	principal, _ := PrincipalFromContext(ctx)
	return principal == System
}
