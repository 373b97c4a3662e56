package authsvc_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/svc/authsvc"
)

func TestUserDirectory(t *testing.T) {
	t.Parallel()

	directory := authsvc.NewUserDirectory()

	_, ok := directory.Lookup("missing")
	require.False(t, ok)

	verifier := []byte("secret")
	require.NoError(t, directory.Add(domain.Identity{ID: "a", Verifier: verifier}))
	require.NoError(t, directory.Add(domain.Identity{ID: "b", Verifier: []byte("other")}))
	require.ErrorIs(t, directory.Add(domain.Identity{ID: "a"}), domain.ErrIdentityExists)
	require.Equal(t, 2, directory.Len())

	verifier[0] = 'X'

	identity, ok := directory.Lookup("a")
	require.True(t, ok)
	require.Equal(t, []byte("secret"), identity.Verifier, "directory keeps its own copy")

	directory.Remove("a")

	_, ok = directory.Lookup("a")
	require.False(t, ok)
	require.Equal(t, 1, directory.Len())
}

func TestProvisionIdentity(t *testing.T) {
	t.Parallel()

	t.Run("generated id", func(t *testing.T) {
		t.Parallel()

		directory := authsvc.NewUserDirectory()

		identity, err := authsvc.ProvisionIdentity(directory, "", "3f9a2b7c")
		require.NoError(t, err)

		_, err = uuid.Parse(string(identity.ID))
		require.NoError(t, err)
		require.Equal(t, []byte("3f9a2b7c"), identity.Verifier)

		got, ok := directory.Lookup(identity.ID)
		require.True(t, ok)
		require.Equal(t, identity, got)
	})

	t.Run("configured id", func(t *testing.T) {
		t.Parallel()

		directory := authsvc.NewUserDirectory()

		identity, err := authsvc.ProvisionIdentity(directory, "living-room", "3f9a2b7c")
		require.NoError(t, err)
		require.Equal(t, domain.UserID("living-room"), identity.ID)

		_, err = authsvc.ProvisionIdentity(directory, "living-room", "other")
		require.ErrorIs(t, err, domain.ErrIdentityExists)
	})
}
