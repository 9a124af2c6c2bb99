package vacation

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// CLOCK - Injectable time source
// =============================================================================

// Clock supplies the current time. Inject a fixed clock in tests so grant
// windows and approval timestamps are deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// =============================================================================
// USER DIRECTORY - External identity capability
// =============================================================================

// UserDirectory resolves user ids. User management itself lives outside the
// engine; this is the only identity surface the engine depends on.
type UserDirectory interface {
	// Exists reports whether the user id is known.
	Exists(ctx context.Context, userID string) (bool, error)

	// DisplayName returns the user's name for display purposes.
	DisplayName(ctx context.Context, userID string) (string, error)
}

// StaticDirectory is an in-memory UserDirectory for development and tests.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[string]string // id -> display name
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{users: make(map[string]string)}
}

func (d *StaticDirectory) Add(userID, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[userID] = name
}

func (d *StaticDirectory) Exists(_ context.Context, userID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[userID]
	return ok, nil
}

func (d *StaticDirectory) DisplayName(_ context.Context, userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.users[userID]
	if !ok {
		return "", &NotFoundError{Kind: "user", ID: userID}
	}
	return name, nil
}
