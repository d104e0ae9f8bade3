package auth

import "context"

type identityContextKey struct{}

// ContextWithIdentity attaches the verified identity to the context.
func ContextWithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &ident)
}

// IdentityFromContext extracts the verified identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || v == nil {
		return Identity{}, false
	}
	return *v, true
}

// SubjectIDFromContext returns the authenticated subject id, if any.
func SubjectIDFromContext(ctx context.Context) (string, bool) {
	ident, ok := IdentityFromContext(ctx)
	if !ok || ident.SubjectID == "" {
		return "", false
	}
	return ident.SubjectID, true
}
