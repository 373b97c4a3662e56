package authsvc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mkrupp/mediagate/internal/domain"
)

// ObtainSecret loads or creates the shared secret at the specified file path.
// If the file exists, its contents with surrounding whitespace trimmed are the secret.
// If the file doesn't exist, a random UUIDv4 is generated and written verbatim to the file.
// Returns an error if any operation fails; callers must not serve requests without a secret.
//
// A new secret is written to a temporary file and hard-linked into place, so the
// file at path is never observed empty or partially written. When several processes
// race to create it, all of them end up with the winner's secret.
func ObtainSecret(path string) (domain.Secret, error) {
	secret, err := readSecret(path)
	if !errors.Is(err, os.ErrNotExist) {
		return secret, err
	}

	generated, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}

	if err := publishSecret(path, generated.String()); err != nil {
		if errors.Is(err, os.ErrExist) {
			// Lost the race; the winner's file is complete
			return readSecret(path)
		}

		return "", err
	}

	return domain.Secret(generated.String()), nil
}

func readSecret(path string) (domain.Secret, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", err //nolint:wrapcheck
		}

		return "", fmt.Errorf("read secret file: %w", err)
	}

	secret := strings.TrimSpace(string(buf))
	if secret == "" {
		return "", fmt.Errorf("read secret file %s: %w", path, domain.ErrEmptySecret)
	}

	return domain.Secret(secret), nil
}

// publishSecret writes secret next to path and links it into place.
// Returns an error wrapping os.ErrExist if path already exists.
func publishSecret(path, secret string) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create secret dir: %w", err)
	}

	// CreateTemp opens with mode 0600
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp secret file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(secret); err != nil {
		tmp.Close()

		return fmt.Errorf("write secret file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()

		return fmt.Errorf("sync secret file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close secret file: %w", err)
	}

	if err := os.Link(tmp.Name(), path); err != nil {
		return fmt.Errorf("link secret file: %w", err)
	}

	return nil
}
