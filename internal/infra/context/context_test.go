package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrupp/mediagate/internal/domain"
	context_ "github.com/mkrupp/mediagate/internal/infra/context"
)

func TestIdentityRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, ok := context_.IdentityFromContext(ctx)
	require.False(t, ok)

	identity := domain.Identity{ID: "user-1", Verifier: []byte("secret")}
	got, ok := context_.IdentityFromContext(context_.WithIdentity(ctx, identity))
	require.True(t, ok)
	require.Equal(t, identity, got)
}

func TestTraceIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context_.WithTraceID(context.Background(), "req-1")

	got, ok := context_.TraceIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "req-1", got)
}
