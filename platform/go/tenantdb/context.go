package tenantdb

import "context"

type ctxKey struct{}

// WithConn returns a derived context carrying the resolved tenant connection.
// Attached by middleware once the tenant has been resolved from claims.
func WithConn(ctx context.Context, conn *Conn) context.Context {
	return context.WithValue(ctx, ctxKey{}, conn)
}

// FromContext extracts the tenant connection and a boolean indicating presence.
func FromContext(ctx context.Context) (*Conn, bool) {
	conn, ok := ctx.Value(ctxKey{}).(*Conn)
	return conn, ok
}
