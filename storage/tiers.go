package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrEthical07/goFeishuAuth/profile"
)

// Tier selects the lifetime of stored identity data.
type Tier int

const (
	// Ephemeral lives as long as the browsing context.
	Ephemeral Tier = iota
	// Durable survives restarts.
	Durable
)

func (t Tier) String() string {
	switch t {
	case Ephemeral:
		return "ephemeral"
	case Durable:
		return "durable"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier maps "ephemeral" or "durable" to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "ephemeral", "session":
		return Ephemeral, nil
	case "durable", "local":
		return Durable, nil
	default:
		return 0, fmt.Errorf("unknown storage tier %q", s)
	}
}

// Tiers is one browsing context's view of the two storage tiers.
type Tiers struct {
	Ephemeral Store
	Durable   Store
}

// NewTiers pairs an ephemeral and a durable store.
func NewTiers(ephemeral, durable Store) *Tiers {
	return &Tiers{Ephemeral: ephemeral, Durable: durable}
}

// Scoped returns a view where both tiers are namespaced under prefix.
func (t *Tiers) Scoped(prefix string) *Tiers {
	if t == nil {
		return nil
	}
	return &Tiers{
		Ephemeral: Namespace(t.Ephemeral, prefix),
		Durable:   Namespace(t.Durable, prefix),
	}
}

func (t *Tiers) store(tier Tier) (Store, error) {
	if t == nil {
		return nil, ErrTierNotConfigured
	}
	var s Store
	switch tier {
	case Ephemeral:
		s = t.Ephemeral
	case Durable:
		s = t.Durable
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrTierNotConfigured, tier)
	}
	return s, nil
}

// Read returns the identity record stored in tier. Backend failures and
// undecodable values are reported as absent.
func (t *Tiers) Read(ctx context.Context, tier Tier) (profile.Payload, bool) {
	s, err := t.store(tier)
	if err != nil {
		return nil, false
	}
	raw, ok, err := s.Get(ctx, KeyUserInfo)
	if err != nil || !ok {
		return nil, false
	}
	var p profile.Payload
	if err := json.Unmarshal(raw, &p); err != nil || p == nil {
		return nil, false
	}
	return p, true
}

// ReadAny reads the ephemeral tier first and falls back to the durable tier.
func (t *Tiers) ReadAny(ctx context.Context) (profile.Payload, Tier, bool) {
	for _, tier := range []Tier{Ephemeral, Durable} {
		if p, ok := t.Read(ctx, tier); ok {
			return p, tier, true
		}
	}
	return nil, 0, false
}

// Write stores the raw identity record in tier, replacing any previous value.
func (t *Tiers) Write(ctx context.Context, tier Tier, p profile.Payload) error {
	if p == nil {
		return ErrNilPayload
	}
	s, err := t.store(tier)
	if err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return s.Set(ctx, KeyUserInfo, data)
}

// Clear removes the identity record from both tiers. Both deletes are
// attempted even when the first fails.
func (t *Tiers) Clear(ctx context.Context) error {
	var errs []error
	for _, tier := range []Tier{Ephemeral, Durable} {
		s, err := t.store(tier)
		if err != nil {
			continue
		}
		if err := s.Delete(ctx, KeyUserInfo); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", tier, err))
		}
	}
	return errors.Join(errs...)
}

// GetString reads an auxiliary key. An empty stored value counts as absent.
func (t *Tiers) GetString(ctx context.Context, tier Tier, key string) (string, bool, error) {
	s, err := t.store(tier)
	if err != nil {
		return "", false, err
	}
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok || len(raw) == 0 {
		return "", false, err
	}
	return string(raw), true, nil
}

// SetString writes an auxiliary key.
func (t *Tiers) SetString(ctx context.Context, tier Tier, key, value string) error {
	s, err := t.store(tier)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, []byte(value))
}

// Delete removes an auxiliary key from tier.
func (t *Tiers) Delete(ctx context.Context, tier Tier, key string) error {
	s, err := t.store(tier)
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}

// Token extracts the credential from the stored identity record using the
// same tier fallback as ReadAny.
func (t *Tiers) Token(ctx context.Context) (string, bool) {
	p, _, ok := t.ReadAny(ctx)
	if !ok {
		return "", false
	}
	return p.Token()
}
