package authsvc

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mkrupp/mediagate/internal/domain"
)

// UserDirectory holds the provisioned identities in memory, keyed by their ID.
// It is safe for concurrent use; lookups do not block each other.
type UserDirectory struct {
	m          sync.RWMutex
	identities map[domain.UserID]domain.Identity
}

// NewUserDirectory creates an empty UserDirectory.
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		identities: make(map[domain.UserID]domain.Identity),
	}
}

// Lookup returns the identity with the given ID.
func (d *UserDirectory) Lookup(id domain.UserID) (domain.Identity, bool) {
	d.m.RLock()
	defer d.m.RUnlock()

	identity, ok := d.identities[id]

	return identity, ok
}

// Add stores an identity. Returns domain.ErrIdentityExists if the ID is taken.
func (d *UserDirectory) Add(identity domain.Identity) error {
	d.m.Lock()
	defer d.m.Unlock()

	if _, exists := d.identities[identity.ID]; exists {
		return fmt.Errorf("add %s: %w", identity.ID, domain.ErrIdentityExists)
	}

	identity.Verifier = bytes.Clone(identity.Verifier)
	d.identities[identity.ID] = identity

	return nil
}

// Remove deletes the identity with the given ID. Sessions bound to it stop validating.
func (d *UserDirectory) Remove(id domain.UserID) {
	d.m.Lock()
	defer d.m.Unlock()

	delete(d.identities, id)
}

// Len returns the number of provisioned identities.
func (d *UserDirectory) Len() int {
	d.m.RLock()
	defer d.m.RUnlock()

	return len(d.identities)
}

// ProvisionIdentity adds the single startup identity to the directory.
// An empty id is replaced by a random UUIDv4. The identity's verifier is the secret.
func ProvisionIdentity(directory *UserDirectory, id string, secret domain.Secret) (domain.Identity, error) {
	if id == "" {
		id = uuid.NewString()
	}

	identity := domain.Identity{
		ID:       domain.UserID(id),
		Verifier: secret.Bytes(),
	}

	if err := directory.Add(identity); err != nil {
		return domain.Identity{}, fmt.Errorf("provision identity: %w", err)
	}

	return identity, nil
}
