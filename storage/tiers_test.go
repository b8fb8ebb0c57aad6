package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/MrEthical07/goFeishuAuth/profile"
)

type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingStore) Set(context.Context, string, []byte) error        { return f.err }
func (f failingStore) Delete(context.Context, ...string) error          { return f.err }

func newTestTiers(t *testing.T) *Tiers {
	t.Helper()
	_, rdb := newTestRedis(t)
	return NewTiers(newTestMemory(t), NewRedisStore(rdb, "durable:", 0))
}

func TestTiersReadAnyPrefersEphemeral(t *testing.T) {
	ctx := context.Background()
	tiers := newTestTiers(t)

	if err := tiers.Write(ctx, Ephemeral, profile.Payload{"name": "A"}); err != nil {
		t.Fatalf("Write ephemeral failed: %v", err)
	}
	if err := tiers.Write(ctx, Durable, profile.Payload{"name": "B"}); err != nil {
		t.Fatalf("Write durable failed: %v", err)
	}

	p, tier, ok := tiers.ReadAny(ctx)
	if !ok || tier != Ephemeral {
		t.Fatalf("expected ephemeral hit, got tier=%v ok=%v", tier, ok)
	}
	if name, _ := p.String("name"); name != "A" {
		t.Fatalf("expected A, got %q", name)
	}
}

func TestTiersReadAnyFallsBackToDurable(t *testing.T) {
	ctx := context.Background()
	tiers := newTestTiers(t)

	if err := tiers.Write(ctx, Durable, profile.Payload{"name": "B"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	p, tier, ok := tiers.ReadAny(ctx)
	if !ok || tier != Durable {
		t.Fatalf("expected durable hit, got tier=%v ok=%v", tier, ok)
	}
	if name, _ := p.String("name"); name != "B" {
		t.Fatalf("expected B, got %q", name)
	}
}

func TestTiersRoundTripNormalizesIdentically(t *testing.T) {
	ctx := context.Background()
	tiers := newTestTiers(t)
	raw := profile.Payload{
		"name":       "张伟",
		"avatar_url": "https://example.com/a.png",
		"token":      "tok",
		"open_id":    "ou_1",
	}

	if err := tiers.Write(ctx, Durable, raw); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, _, ok := tiers.ReadAny(ctx)
	if !ok {
		t.Fatal("expected stored record")
	}

	want := profile.Normalize(raw, "zh-CN")
	have := profile.Normalize(got, "zh-CN")
	if !reflect.DeepEqual(want, have) {
		t.Fatalf("round trip mismatch:\nwant %+v\nhave %+v", want, have)
	}
}

func TestTiersReadSwallowsFailures(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)
	tiers := NewTiers(mem, failingStore{err: errors.New("boom")})

	if err := mem.Set(ctx, KeyUserInfo, []byte("{not json")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, _, ok := tiers.ReadAny(ctx); ok {
		t.Fatal("expected absent for undecodable ephemeral and failing durable")
	}

	if err := mem.Set(ctx, KeyUserInfo, []byte("null")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := tiers.Read(ctx, Ephemeral); ok {
		t.Fatal("expected null record to read as absent")
	}
}

func TestTiersWriteRejectsNil(t *testing.T) {
	tiers := newTestTiers(t)
	if err := tiers.Write(context.Background(), Durable, nil); !errors.Is(err, ErrNilPayload) {
		t.Fatalf("expected ErrNilPayload, got %v", err)
	}
}

func TestTiersClearRemovesBoth(t *testing.T) {
	ctx := context.Background()
	tiers := newTestTiers(t)
	_ = tiers.Write(ctx, Ephemeral, profile.Payload{"name": "A"})
	_ = tiers.Write(ctx, Durable, profile.Payload{"name": "B"})
	_ = tiers.SetString(ctx, Durable, KeyAppID, "cli_1")

	if err := tiers.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, _, ok := tiers.ReadAny(ctx); ok {
		t.Fatal("expected no identity after Clear")
	}
	if v, ok, _ := tiers.GetString(ctx, Durable, KeyAppID); !ok || v != "cli_1" {
		t.Fatal("Clear must only remove the identity record")
	}
}

func TestTiersClearAttemptsBothOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)
	tiers := NewTiers(failingStore{err: errors.New("boom")}, mem)
	_ = mem.Set(ctx, KeyUserInfo, []byte(`{"name":"B"}`))

	if err := tiers.Clear(ctx); err == nil {
		t.Fatal("expected joined error from failing ephemeral tier")
	}
	if _, ok, _ := mem.Get(ctx, KeyUserInfo); ok {
		t.Fatal("durable tier must be cleared even when ephemeral fails")
	}
}

func TestTiersToken(t *testing.T) {
	ctx := context.Background()
	tiers := newTestTiers(t)

	if _, ok := tiers.Token(ctx); ok {
		t.Fatal("expected no token without identity")
	}
	_ = tiers.Write(ctx, Durable, profile.Payload{"name": "a", "access_token": "at", "accessToken": "x"})
	if tok, ok := tiers.Token(ctx); !ok || tok != "at" {
		t.Fatalf("expected at, got %q ok=%v", tok, ok)
	}
}

func TestTiersMissingBackend(t *testing.T) {
	ctx := context.Background()
	tiers := NewTiers(nil, newTestMemory(t))

	if err := tiers.Write(ctx, Ephemeral, profile.Payload{"name": "a"}); !errors.Is(err, ErrTierNotConfigured) {
		t.Fatalf("expected ErrTierNotConfigured, got %v", err)
	}
	if err := tiers.Clear(ctx); err != nil {
		t.Fatalf("Clear should skip unconfigured tiers, got %v", err)
	}
}

func TestTiersScoped(t *testing.T) {
	ctx := context.Background()
	base := newTestTiers(t)
	a := base.Scoped("a")
	b := base.Scoped("b")

	_ = a.Write(ctx, Durable, profile.Payload{"name": "A"})
	if _, _, ok := b.ReadAny(ctx); ok {
		t.Fatal("scoped views must not share identity")
	}
	if _, _, ok := a.ReadAny(ctx); !ok {
		t.Fatal("expected identity in scope a")
	}
}

func TestParseTier(t *testing.T) {
	for in, want := range map[string]Tier{"ephemeral": Ephemeral, "session": Ephemeral, "durable": Durable, "local": Durable} {
		got, err := ParseTier(in)
		if err != nil || got != want {
			t.Fatalf("ParseTier(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseTier("disk"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}
