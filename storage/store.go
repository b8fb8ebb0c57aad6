package storage

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyUserInfo           = "feishu_user_info"
	KeyAppID              = "feishu_appid"
	KeyState              = "feishu_state"
	KeyRedirectAfterLogin = "redirectAfterLogin"
)

var (
	// ErrStoreUnavailable wraps backend failures from any Store implementation.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNilPayload is returned when writing an absent identity record.
	ErrNilPayload = errors.New("nil identity payload")
	// ErrTierNotConfigured is returned when a tier has no backing Store.
	ErrTierNotConfigured = errors.New("storage tier not configured")
)

// Store is a string-keyed byte store. Implementations must be safe for
// concurrent use. A missing key is reported with ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Namespace scopes every key of s under prefix. An empty prefix returns s.
func Namespace(s Store, prefix string) Store {
	if prefix == "" || s == nil {
		return s
	}
	return &namespaced{inner: s, prefix: prefix + ":"}
}

type namespaced struct {
	inner  Store
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = n.prefix + k
	}
	return n.inner.Delete(ctx, scoped...)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
