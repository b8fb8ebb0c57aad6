package middleware

import (
	"context"
	"strings"
)

// Resumer returns and clears the path remembered by a denied navigation.
type Resumer interface {
	ResumePath(ctx context.Context) (string, bool)
}

// ResumePath returns where to go after login: the remembered path when it
// is a local absolute path, fallback otherwise.
func ResumePath(ctx context.Context, r Resumer, fallback string) string {
	if r == nil {
		return fallback
	}
	path, ok := r.ResumePath(ctx)
	if !ok || !isLocalPath(path) {
		return fallback
	}
	return path
}

func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	return !strings.ContainsAny(p, "\r\n")
}
