package hostenv

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyAccessCode is returned when the host reports success without a code.
var ErrEmptyAccessCode = errors.New("host returned empty access code")

// BridgeError is the error object reported by the host SDK.
type BridgeError struct {
	Code    int    `json:"errno"`
	Message string `json:"errString"`
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("host bridge error %d: %s", e.Code, e.Message)
}

// AccessResponse is delivered to AccessRequest.Success.
type AccessResponse struct {
	Code string `json:"code"`
}

// AccessRequest asks the host for a one-time authorization code.
type AccessRequest struct {
	AppID     string
	ScopeList []string
	Success   func(AccessResponse)
	Fail      func(error)
}

// Bridge mirrors the callback protocol exposed by the Feishu host SDK.
// Error and Ready register callbacks; RequestAccess may only be called after
// Ready has fired.
type Bridge interface {
	Error(fn func(error))
	Ready(fn func())
	RequestAccess(req AccessRequest)
}

// Runtime exposes the host bridge when running inside the Feishu app.
type Runtime interface {
	Bridge() (Bridge, bool)
}

type standalone struct{}

func (standalone) Bridge() (Bridge, bool) { return nil, false }

// Standalone is a Runtime without a host bridge.
var Standalone Runtime = standalone{}

type embedded struct {
	bridge Bridge
}

func (e embedded) Bridge() (Bridge, bool) { return e.bridge, e.bridge != nil }

// Embedded returns a Runtime exposing b. A nil bridge behaves as Standalone.
func Embedded(b Bridge) Runtime {
	if b == nil {
		return Standalone
	}
	return embedded{bridge: b}
}

// Detector decides which login route applies to a runtime.
type Detector struct {
	runtime Runtime
}

// NewDetector returns a Detector for rt. A nil runtime is standalone.
func NewDetector(rt Runtime) Detector {
	if rt == nil {
		rt = Standalone
	}
	return Detector{runtime: rt}
}

// IsHostEmbedded reports whether the host bridge is present. It has no side
// effects and may be called any number of times.
func (d Detector) IsHostEmbedded() bool {
	_, ok := d.Bridge()
	return ok
}

// Bridge returns the host bridge, if present.
func (d Detector) Bridge() (Bridge, bool) {
	if d.runtime == nil {
		return nil, false
	}
	return d.runtime.Bridge()
}

type outcome struct {
	code string
	err  error
}

// RequestCode drives the bridge handshake and blocks until the host settles
// it or ctx ends. Only the first of the error, success and fail callbacks is
// observed; later ones are dropped. Host errors are returned unchanged.
func RequestCode(ctx context.Context, bridge Bridge, appID string) (string, error) {
	if bridge == nil {
		return "", errors.New("nil host bridge")
	}

	done := make(chan outcome, 1)
	var once sync.Once
	settle := func(o outcome) {
		once.Do(func() { done <- o })
	}

	bridge.Error(func(err error) {
		if err == nil {
			err = &BridgeError{Message: "unspecified host error"}
		}
		settle(outcome{err: err})
	})
	bridge.Ready(func() {
		bridge.RequestAccess(AccessRequest{
			AppID:     appID,
			ScopeList: []string{},
			Success: func(res AccessResponse) {
				if res.Code == "" {
					settle(outcome{err: ErrEmptyAccessCode})
					return
				}
				settle(outcome{code: res.Code})
			},
			Fail: func(err error) {
				if err == nil {
					err = &BridgeError{Message: "access request failed"}
				}
				settle(outcome{err: err})
			},
		})
	})

	select {
	case o := <-done:
		return o.code, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
