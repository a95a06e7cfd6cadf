package jwt

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the accepted token signature algorithm.
type SigningMethod string

const (
	// MethodEd25519 verifies EdDSA signatures (default).
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 verifies HMAC-SHA256 signatures.
	MethodHS256 SigningMethod = "hs256"
)

var (
	// ErrExpired indicates a token past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrRevoked indicates a token present in the revocation list.
	ErrRevoked = errors.New("token revoked")
	// ErrInvalid indicates a token that failed verification.
	ErrInvalid = errors.New("token invalid")
)

// RevocationList answers whether a token ID has been revoked. Implemented
// by the identity service's revocation store; nil disables the check.
type RevocationList interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// Config holds verification parameters. Immutable after NewManager.
type Config struct {
	SigningMethod SigningMethod
	// Secret is the HMAC key for hs256.
	Secret []byte
	// PublicKey and PrivateKey are raw Ed25519 key bytes. PrivateKey is
	// only needed by [Manager.Issue].
	PublicKey  []byte
	PrivateKey []byte

	Issuer   string
	Audience string
	Leeway   time.Duration

	Revocations RevocationList
}

// Claims is the decoded payload of a gateway bearer token.
type Claims struct {
	UserID        string   `json:"uid"`
	Email         string   `json:"email,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	IsMasterAdmin bool     `json:"master,omitempty"`
	jwt.RegisteredClaims
}

// Manager verifies bearer tokens.
type Manager struct {
	config Config
}

// NewManager validates the configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodEd25519
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) == 0 {
			return nil, errors.New("hs256 requires a secret")
		}
	case MethodEd25519:
		if len(cfg.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.New("ed25519 requires a 32-byte public key")
		}
		if len(cfg.PrivateKey) > 0 && len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("ed25519 private key must be 64 bytes")
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	return &Manager{config: cfg}, nil
}

// Verify parses and validates a token, returning its claims. Expired and
// revoked tokens are reported through [ErrExpired] and [ErrRevoked]; every
// other failure is [ErrInvalid].
func (m *Manager) Verify(ctx context.Context, token string) (*Claims, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(m.validMethods()),
		jwt.WithLeeway(m.config.Leeway),
		jwt.WithExpirationRequired(),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.config.Audience))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, m.keyFunc, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalid
	}

	if m.config.Revocations != nil && claims.ID != "" {
		if m.config.Revocations.IsRevoked(ctx, claims.ID) {
			return nil, ErrRevoked
		}
	}

	return claims, nil
}

// Issue signs a token for the given claims. Test and tooling use only.
func (m *Manager) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	switch m.config.SigningMethod {
	case MethodHS256:
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		return token.SignedString(m.config.Secret)
	case MethodEd25519:
		if len(m.config.PrivateKey) == 0 {
			return "", errors.New("issuing requires a private key")
		}
		token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
		return token.SignedString(ed25519.PrivateKey(m.config.PrivateKey))
	default:
		return "", fmt.Errorf("unsupported signing method %q", m.config.SigningMethod)
	}
}

func (m *Manager) validMethods() []string {
	if m.config.SigningMethod == MethodHS256 {
		return []string{jwt.SigningMethodHS256.Alg()}
	}
	return []string{jwt.SigningMethodEdDSA.Alg()}
}

func (m *Manager) keyFunc(*jwt.Token) (any, error) {
	if m.config.SigningMethod == MethodHS256 {
		return m.config.Secret, nil
	}
	return ed25519.PublicKey(m.config.PublicKey), nil
}
