package goFeishuAuth

import (
	"context"
	"net/url"
)

type languageContextKey struct{}
type locationContextKey struct{}
type browsingContextKey struct{}

// WithLanguage attaches the client's language tag (e.g. "zh_CN") to ctx.
// The normalizer uses it to pick the welcome text.
func WithLanguage(ctx context.Context, tag string) context.Context {
	return context.WithValue(ctx, languageContextKey{}, tag)
}

// WithLocation attaches the URL of the page that started the attempt. When
// Login.RedirectURI is empty, the redirect URI is its origin and path.
func WithLocation(ctx context.Context, u *url.URL) context.Context {
	return context.WithValue(ctx, locationContextKey{}, u)
}

// WithBrowsingContext attaches an opaque browsing-context id that is copied
// into audit events.
func WithBrowsingContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, browsingContextKey{}, id)
}

func languageFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	tag, _ := ctx.Value(languageContextKey{}).(string)
	return tag
}

func locationFromContext(ctx context.Context) *url.URL {
	if ctx == nil {
		return nil
	}

	u, _ := ctx.Value(locationContextKey{}).(*url.URL)
	return u
}

func browsingContextFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(browsingContextKey{}).(string)
	return id
}
