package contextutil_test

import (
	"context"
	"testing"

	"performa/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestClientInfo(t *testing.T) {
	_, ok := contextutil.GetClientInfo(context.Background())
	assert.False(t, ok)

	ctx := contextutil.WithClientInfo(context.Background(), contextutil.ClientInfo{
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8",
		SessionID: "s-1",
	})
	info, ok := contextutil.GetClientInfo(ctx)
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1", info.IPAddress)
	assert.Equal(t, "s-1", info.SessionID)
}

func TestGetLoggerFallbacks(t *testing.T) {
	assert.NotNil(t, contextutil.GetLogger(context.Background(), nil))

	def := zap.NewNop()
	assert.Same(t, def, contextutil.GetLogger(context.Background(), def))

	scoped := zap.NewExample()
	ctx := contextutil.WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, contextutil.GetLogger(ctx, def))
}

func TestActorAndRequestID(t *testing.T) {
	ctx := contextutil.WithRequestID(context.Background(), "rid-1")
	ctx = contextutil.WithActor(ctx, contextutil.Actor{UserID: "u1", CompanyID: "c1", Role: "hr"})

	assert.Equal(t, "rid-1", contextutil.GetRequestID(ctx))
	actor, ok := contextutil.GetActor(ctx)
	assert.True(t, ok)
	assert.Equal(t, "hr", actor.Role)
}
