package statetoken

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/MrEthical07/goFeishuAuth/internal"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

// DefaultLength is the state length used by the Feishu redirect flow.
const DefaultLength = 16

var (
	// ErrStateMismatch is returned by Consume when the returned state does
	// not equal the stored one, or when no state was stored.
	ErrStateMismatch = errors.New("state mismatch")
	// ErrStateUnavailable wraps storage failures while issuing or consuming.
	ErrStateUnavailable = errors.New("state store unavailable")
)

// Generate returns a random alphanumeric token of the given length.
func Generate(length int) (string, error) {
	return internal.RandomString(length, internal.Alphanumeric)
}

// Validate reports whether returned exactly equals stored. An empty value on
// either side never validates.
func Validate(returned, stored string) bool {
	if returned == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(returned), []byte(stored)) == 1
}

// Guard issues and consumes state tokens persisted under a single key.
type Guard struct {
	store  storage.Store
	key    string
	length int
}

// NewGuard returns a Guard storing tokens in store under storage.KeyState.
func NewGuard(store storage.Store, length int) *Guard {
	if length <= 0 {
		length = DefaultLength
	}
	return &Guard{
		store:  store,
		key:    storage.KeyState,
		length: length,
	}
}

// Issue generates a token and overwrites any previously stored one.
func (g *Guard) Issue(ctx context.Context) (string, error) {
	state, err := Generate(g.length)
	if err != nil {
		return "", err
	}
	if err := g.store.Set(ctx, g.key, []byte(state)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}
	return state, nil
}

// Consume validates returned against the stored token. The stored token is
// removed whether or not validation succeeds; if it cannot be removed the
// attempt fails, since the token would otherwise validate again.
func (g *Guard) Consume(ctx context.Context, returned string) error {
	raw, ok, err := g.store.Get(ctx, g.key)
	if err != nil {
		_ = g.store.Delete(ctx, g.key)
		return fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}
	if err := g.store.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}

	var stored string
	if ok {
		stored = string(raw)
	}
	if !Validate(returned, stored) {
		return ErrStateMismatch
	}
	return nil
}
