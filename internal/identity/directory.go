// Package identity exposes the identity-directory port consumed by the
// payload builder. Resolution is a query interface only; directory writes
// belong to the host platform.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"riskgate/pkg/platform/sentinel"
)

// Profile is the resolved view of a directory identity.
type Profile struct {
	// UniversalID is the stable identifier for the identity across the
	// realm, independent of the login name.
	UniversalID string
	// Attributes holds directory attributes by name, e.g. "mail".
	Attributes map[string][]string
}

// Attribute returns the first value of the named attribute.
func (p *Profile) Attribute(name string) (string, bool) {
	values := p.Attributes[name]
	if len(values) == 0 || values[0] == "" {
		return "", false
	}
	return values[0], true
}

// Directory resolves a username within a realm to a profile. Implementations
// return sentinel.ErrNotFound (optionally wrapped) when the identity does
// not exist, e.g. during a registration flow.
type Directory interface {
	Lookup(ctx context.Context, username, realm string) (*Profile, error)
}

// InMemoryDirectory is a map-backed directory for tests and the demo
// assembly. Safe for concurrent use.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryDirectory creates an empty directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{profiles: make(map[string]*Profile)}
}

// Put registers a profile for username in realm.
func (d *InMemoryDirectory) Put(username, realm string, profile *Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[directoryKey(username, realm)] = profile
}

func (d *InMemoryDirectory) Lookup(_ context.Context, username, realm string) (*Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	profile, ok := d.profiles[directoryKey(username, realm)]
	if !ok {
		return nil, fmt.Errorf("identity %s in realm %s: %w", username, realm, sentinel.ErrNotFound)
	}
	return profile, nil
}

func directoryKey(username, realm string) string {
	return strings.ToLower(username) + "@" + realm
}
