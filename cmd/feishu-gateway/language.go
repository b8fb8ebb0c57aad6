package main

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// languages negotiates the request language against a fixed set. The
// first supported tag is the fallback.
type languages struct {
	supported []language.Tag
	matcher   language.Matcher
}

func newLanguages(tags []string) (languages, error) {
	supported := make([]language.Tag, 0, len(tags))
	for _, raw := range tags {
		tag, err := language.Parse(strings.TrimSpace(raw))
		if err != nil {
			return languages{}, err
		}
		supported = append(supported, tag)
	}
	return languages{supported: supported, matcher: language.NewMatcher(supported)}, nil
}

// resolve picks the tag for r. Preference order is the lang query
// parameter, then remembered (the tag stored in the context cookie), then
// Accept-Language.
func (l languages) resolve(r *http.Request, remembered string) string {
	var candidates []language.Tag
	for _, raw := range []string{r.URL.Query().Get("lang"), remembered} {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		if tag, err := language.Parse(raw); err == nil {
			candidates = append(candidates, tag)
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			candidates = append(candidates, tags...)
		}
	}
	if len(candidates) == 0 {
		return l.supported[0].String()
	}
	_, idx, conf := l.matcher.Match(candidates...)
	if conf == language.No {
		return l.supported[0].String()
	}
	return l.supported[idx].String()
}
