package profile

import "encoding/json"

// Payload is a raw identity record as returned by the backend or the platform.
// Field sets differ between the SDK-code and API-code paths.
type Payload map[string]any

// ParsePayload decodes a JSON object. A JSON null decodes to a nil Payload.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// String returns the value at key when it is a non-empty string.
func (p Payload) String(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	s, ok := p[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// First returns the first key in keys holding a non-empty string.
func (p Payload) First(keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := p.String(k); ok {
			return s, true
		}
	}
	return "", false
}

// Token extracts the credential embedded in an identity record.
func (p Payload) Token() (string, bool) {
	return p.First(TokenFields...)
}

// Clone returns a shallow copy. Nested values are shared.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

