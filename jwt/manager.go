package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the algorithm used for browsing-context tokens.
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret of at least 32 bytes.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 SigningMethod = "ed25519"
)

// MinHSKeyBytes is the shortest accepted HS256 secret.
const MinHSKeyBytes = 32

var (
	// ErrMissingContextID is returned when a token is issued or parsed
	// without a browsing-context id.
	ErrMissingContextID = errors.New("context id is required")
	// ErrUnknownKeyID is returned when a token names a key the manager does
	// not hold, or names none while the manager requires one.
	ErrUnknownKeyID = errors.New("unknown signing key id")
)

// ParseSigningMethod maps a configuration string onto a SigningMethod.
// Matching is case-insensitive; an empty string selects HS256.
func ParseSigningMethod(s string) (SigningMethod, error) {
	switch m := SigningMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodHS256, nil
	case MethodHS256, MethodEd25519:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported signing method %q", s)
	}
}

// Config configures a Manager.
//
// PrivateKey always signs. For HS256 it is the shared secret; for Ed25519
// it is a raw 64-byte key or a PKCS#8 PEM block, and PublicKey may be
// omitted because it is derived. VerifyKeys holds retired keys by key id so
// cookies signed before a rotation stay valid; it requires KeyID.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

// Manager signs and verifies the cookie that pins a browser to its
// browsing context. The context id scopes that browser's storage tiers.
type Manager struct {
	config  Config
	method  jwt.SigningMethod
	signKey any
	verify  any
	keyring map[string]any
	now     func() time.Time
}

// ContextClaims are the claims carried by a browsing-context token.
type ContextClaims struct {
	CID  string `json:"cid"`
	Lang string `json:"lang,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and resolves every key once.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg, now: time.Now}
	var err error
	switch cfg.SigningMethod {
	case MethodHS256:
		m.method = jwt.SigningMethodHS256
		err = m.resolveHS()
	case MethodEd25519:
		m.method = jwt.SigningMethodEdDSA
		err = m.resolveEd()
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	if err != nil {
		return nil, err
	}
	if err := m.buildKeyring(); err != nil {
		return nil, err
	}
	return m, nil
}

func (j *Manager) resolveHS() error {
	if len(j.config.PrivateKey) < MinHSKeyBytes {
		return fmt.Errorf("hs256 requires a key of at least %d bytes", MinHSKeyBytes)
	}
	if len(j.config.PublicKey) > 0 {
		return errors.New("hs256 does not use a public key")
	}
	j.signKey = j.config.PrivateKey
	j.verify = j.config.PrivateKey
	return nil
}

func (j *Manager) resolveEd() error {
	if len(j.config.PrivateKey) == 0 {
		return errors.New("ed25519 requires a private key")
	}
	priv, err := parseEdPrivateKey(j.config.PrivateKey)
	if err != nil {
		return err
	}
	pub := priv.Public().(ed25519.PublicKey)
	if len(j.config.PublicKey) > 0 {
		given, err := parseEdPublicKey(j.config.PublicKey)
		if err != nil {
			return err
		}
		if !given.Equal(pub) {
			return errors.New("ed25519 public key does not match private key")
		}
	}
	j.signKey = priv
	j.verify = pub
	return nil
}

// buildKeyring indexes the active key and every retired key by key id.
func (j *Manager) buildKeyring() error {
	if len(j.config.VerifyKeys) == 0 {
		return nil
	}
	if j.config.KeyID == "" {
		return errors.New("VerifyKeys requires KeyID")
	}
	j.keyring = make(map[string]any, len(j.config.VerifyKeys)+1)
	for kid, raw := range j.config.VerifyKeys {
		kid = strings.TrimSpace(kid)
		if kid == "" {
			return errors.New("verify key map contains empty kid")
		}
		key, err := j.verifyKeyFromBytes(raw)
		if err != nil {
			return fmt.Errorf("verify key %q: %w", kid, err)
		}
		j.keyring[kid] = key
	}
	if existing, ok := j.keyring[j.config.KeyID]; ok && !sameKey(existing, j.verify) {
		return fmt.Errorf("verify key %q does not match the signing key", j.config.KeyID)
	}
	j.keyring[j.config.KeyID] = j.verify
	return nil
}

func (j *Manager) verifyKeyFromBytes(raw []byte) (any, error) {
	if j.config.SigningMethod == MethodHS256 {
		if len(raw) < MinHSKeyBytes {
			return nil, fmt.Errorf("hs256 requires a key of at least %d bytes", MinHSKeyBytes)
		}
		return raw, nil
	}
	return parseEdPublicKey(raw)
}

func sameKey(a, b any) bool {
	switch ak := a.(type) {
	case []byte:
		bk, ok := b.([]byte)
		return ok && bytes.Equal(ak, bk)
	case ed25519.PublicKey:
		bk, ok := b.(ed25519.PublicKey)
		return ok && ak.Equal(bk)
	}
	return false
}

// TTL returns the configured token lifetime.
func (j *Manager) TTL() time.Duration {
	return j.config.TTL
}

// KeyID returns the id stamped on issued tokens, or "" when none is set.
func (j *Manager) KeyID() string {
	return j.config.KeyID
}

// Issue signs a token for contextID. lang records the negotiated language
// so the browser keeps it when a later request carries no preference.
func (j *Manager) Issue(contextID, lang string) (string, error) {
	if strings.TrimSpace(contextID) == "" {
		return "", ErrMissingContextID
	}
	now := j.now()
	claims := ContextClaims{
		CID:  contextID,
		Lang: lang,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}
	if j.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.config.Audience}
	}

	token := jwt.NewWithClaims(j.method, claims)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}
	return token.SignedString(j.signKey)
}

// Parse verifies tokenStr and returns its claims. Tokens without a context
// id, signed with another algorithm, or naming an unknown key are rejected.
func (j *Manager) Parse(tokenStr string) (*ContextClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithTimeFunc(j.now),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}
	if j.config.Audience != "" {
		options = append(options, jwt.WithAudience(j.config.Audience))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &ContextClaims{}, j.keyFor)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ContextClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if strings.TrimSpace(claims.CID) == "" {
		return nil, ErrMissingContextID
	}
	if claims.IssuedAt != nil && claims.IssuedAt.After(j.now().Add(j.config.MaxFutureIAT)) {
		return nil, errors.New("token iat too far in the future")
	}
	return claims, nil
}

// keyFor picks the verification key named by the token's kid header.
func (j *Manager) keyFor(t *jwt.Token) (any, error) {
	if j.config.KeyID == "" {
		return j.verify, nil
	}
	kid, _ := t.Header["kid"].(string)
	if j.keyring != nil {
		if key, ok := j.keyring[kid]; ok {
			return key, nil
		}
		return nil, ErrUnknownKeyID
	}
	if kid != j.config.KeyID {
		return nil, ErrUnknownKeyID
	}
	return j.verify, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
