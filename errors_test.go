package goFeishuAuth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MrEthical07/goFeishuAuth/hostenv"
	"github.com/MrEthical07/goFeishuAuth/statetoken"
)

var errUnexpected = errors.New("unexpected")

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"security", ErrSecurityViolation, KindSecurity},
		{"wrapped mismatch", fmt.Errorf("%w: %w", ErrSecurityViolation, statetoken.ErrStateMismatch), KindSecurity},
		{"security wins over outage", fmt.Errorf("%w: %w", ErrSecurityViolation, ErrStoreUnavailable), KindSecurity},
		{"empty identity", ErrEmptyIdentity, KindIdentity},
		{"invalid identity", ErrInvalidIdentity, KindIdentity},
		{"bridge", &hostenv.BridgeError{Code: 2, Message: "denied"}, KindBridge},
		{"empty access code", ErrEmptyAccessCode, KindBridge},
		{"no bridge", ErrBridgeUnavailable, KindBridge},
		{"app id", fmt.Errorf("%w: %w", ErrAppIDUnavailable, errUnexpected), KindTransient},
		{"http", fmt.Errorf("wrapped: %w", &HTTPError{StatusCode: 503}), KindTransient},
		{"platform", &PlatformError{Code: 20003}, KindTransient},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"store", ErrStoreUnavailable, KindTransient},
		{"other", errUnexpected, KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestErrorKindString(t *testing.T) {
	if KindSecurity.String() != "security" || ErrorKind(99).String() != "unknown" {
		t.Fatal("unexpected ErrorKind strings")
	}
}
