// Package jwt signs and verifies the browsing-context cookie. Each token
// carries an opaque context id that selects the caller's isolated storage
// tiers; it never carries identity data.
package jwt
