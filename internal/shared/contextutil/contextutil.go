package contextutil

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is private so keys never collide with other packages.
type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	userIDKey     contextKey = "user_id"
	loggerKey     contextKey = "logger"
	clientInfoKey contextKey = "client_info"
	actorKey      contextKey = "actor"
)

// --- Request ID Helpers ---

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

func GetRequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey).(string); ok {
		return rid
	}
	return ""
}

// --- User ID Helpers ---

func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userIDKey, uid)
}

func GetUserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey).(string); ok {
		return uid
	}
	return ""
}

// --- Logger Helpers ---

// WithLogger stores a request-scoped zap logger in ctx.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger returns the logger stored in ctx, then defaultLogger, then a no-op
// logger, so callers never get nil.
func GetLogger(ctx context.Context, defaultLogger *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
			return l
		}
	}

	if defaultLogger != nil {
		return defaultLogger
	}

	return zap.NewNop()
}

// --- Client info (audit enrichment) ---

// ClientInfo is what the HTTP layer knows about the caller. It is absent for
// work that does not originate from a request, such as the outbox worker.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	SessionID string
}

func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey, info)
}

func GetClientInfo(ctx context.Context) (ClientInfo, bool) {
	if ctx == nil {
		return ClientInfo{}, false
	}
	info, ok := ctx.Value(clientInfoKey).(ClientInfo)
	return info, ok
}

// --- Actor ---

// Actor is the authenticated user performing the request.
type Actor struct {
	UserID    string
	CompanyID string
	Role      string
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func GetActor(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// --- Combined Metadata ---

type Metadata struct {
	RequestID string
	UserID    string
}

func ExtractMetadata(ctx context.Context) Metadata {
	return Metadata{
		RequestID: GetRequestID(ctx),
		UserID:    GetUserID(ctx),
	}
}
