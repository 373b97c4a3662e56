package authsvc_test

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/svc/authsvc"
)

func TestObtainSecret_CreatesAndReuses(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "var", "storage", "token.txt")

	first, err := authsvc.ObtainSecret(path)
	require.NoError(t, err)

	_, err = uuid.Parse(string(first))
	require.NoError(t, err, "generated secret is a UUID")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, string(first), string(raw), "secret is persisted verbatim")

	second, err := authsvc.ObtainSecret(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}

func TestObtainSecret_TrimsExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token.txt")
	require.NoError(t, os.WriteFile(path, []byte("  3f9a2b7c-handwritten \n"), 0o600))

	secret, err := authsvc.ObtainSecret(path)
	require.NoError(t, err)
	require.Equal(t, domain.Secret("3f9a2b7c-handwritten"), secret)

	again, err := authsvc.ObtainSecret(path)
	require.NoError(t, err)
	require.Equal(t, secret, again)
}

func TestObtainSecret_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "token.txt")
		require.NoError(t, os.WriteFile(path, []byte(" \n\t"), 0o600))

		_, err := authsvc.ObtainSecret(path)
		require.ErrorIs(t, err, domain.ErrEmptySecret)
	})

	t.Run("path is a directory", func(t *testing.T) {
		t.Parallel()

		_, err := authsvc.ObtainSecret(t.TempDir())
		require.Error(t, err)
	})

	t.Run("parent is a file", func(t *testing.T) {
		t.Parallel()

		parent := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(parent, []byte("x"), 0o600))

		_, err := authsvc.ObtainSecret(filepath.Join(parent, "token.txt"))
		require.Error(t, err)
	})
}

func TestObtainSecret_ConcurrentCreation(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "storage")
	path := filepath.Join(dir, "token.txt")

	const workers = 16

	var (
		wg      sync.WaitGroup
		secrets = make([]domain.Secret, workers)
		errs    = make([]error, workers)
	)

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			secrets[i], errs[i] = authsvc.ObtainSecret(path)
		}()
	}

	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		require.NotEmpty(t, secrets[i])
		require.Equal(t, secrets[0], secrets[i], "every caller sees the same secret")
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, string(secrets[0]), string(raw))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files are left behind")
}
