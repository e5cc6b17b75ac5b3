package mesh

import "context"

// Audit sources.
const (
	SourceAPI    = "api"
	SourceSystem = "system"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	sourceKey
)

// WithActor returns a context carrying the id of the user issuing commands.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey, userID)
}

// ActorFrom returns the user id set by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	v, _ := ctx.Value(actorKey).(string)
	return v
}

// WithSource returns a context carrying the audit source.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFrom returns the source set by WithSource, defaulting to SourceSystem.
func SourceFrom(ctx context.Context) string {
	if v, ok := ctx.Value(sourceKey).(string); ok && v != "" {
		return v
	}
	return SourceSystem
}
