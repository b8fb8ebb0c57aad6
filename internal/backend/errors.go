package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when a response body is not the
	// expected JSON shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrEmptyAppID is returned when get_appid answers without an app id.
	ErrEmptyAppID = errors.New("empty app id")
)

// HTTPError reports a non-2xx response.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Status)
}

// PlatformError reports a Feishu open-platform envelope whose code is not 0.
// Code is -1 when the envelope carried no code at all.
type PlatformError struct {
	Code        int
	Msg         string
	Description string
}

func (e *PlatformError) Error() string {
	msg := e.Description
	if msg == "" {
		msg = e.Msg
	}
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("feishu platform error %d: %s", e.Code, msg)
}
