package jwt

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

func newHS256Manager(t *testing.T, mutate func(*Config)) *Manager {
	t.Helper()

	cfg := Config{
		SigningMethod: MethodHS256,
		Secret:        []byte("test-secret-0123456789abcdef"),
		Issuer:        "gatekeeper-test",
	}
	if mutate != nil {
		mutate(&cfg)
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func issueToken(t *testing.T, m *Manager, claims Claims, ttl time.Duration) string {
	t.Helper()

	token, err := m.Issue(claims, ttl)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return token
}

func TestManagerVerifyRoundTrip(t *testing.T) {
	m := newHS256Manager(t, nil)

	token := issueToken(t, m, Claims{
		UserID: "user-1",
		Email:  "alice@example.com",
		Roles:  []string{"ADMIN", "MANAGER"},
	}, time.Hour)

	claims, err := m.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "alice@example.com" {
		t.Fatalf("claims = %+v, want issued identity", claims)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "ADMIN" {
		t.Fatalf("roles = %v, want issued roles", claims.Roles)
	}
}

func TestManagerVerifyExpired(t *testing.T) {
	m := newHS256Manager(t, nil)
	token := issueToken(t, m, Claims{UserID: "user-1"}, -time.Minute)

	if _, err := m.Verify(context.Background(), token); !errors.Is(err, ErrExpired) {
		t.Fatalf("Verify error = %v, want ErrExpired", err)
	}
}

func TestManagerVerifyExpiredWithinLeeway(t *testing.T) {
	m := newHS256Manager(t, func(c *Config) { c.Leeway = 90 * time.Second })
	token := issueToken(t, m, Claims{UserID: "user-1"}, -time.Minute)

	if _, err := m.Verify(context.Background(), token); err != nil {
		t.Fatalf("Verify within leeway failed: %v", err)
	}
}

func TestManagerVerifyGarbage(t *testing.T) {
	m := newHS256Manager(t, nil)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(context.Background(), token); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Verify(%q) error = %v, want ErrInvalid", token, err)
		}
	}
}

func TestManagerVerifyWrongSecret(t *testing.T) {
	issuer := newHS256Manager(t, func(c *Config) { c.Secret = []byte("other-secret-0123456789abcdef") })
	verifier := newHS256Manager(t, nil)

	token := issueToken(t, issuer, Claims{UserID: "user-1"}, time.Hour)
	if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Verify error = %v, want ErrInvalid for foreign signature", err)
	}
}

func TestManagerVerifyIssuerMismatch(t *testing.T) {
	issuer := newHS256Manager(t, func(c *Config) { c.Issuer = "someone-else" })
	verifier := newHS256Manager(t, nil)

	token := issueToken(t, issuer, Claims{UserID: "user-1"}, time.Hour)
	if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Verify error = %v, want ErrInvalid for issuer mismatch", err)
	}
}

func TestManagerVerifyMissingUserID(t *testing.T) {
	m := newHS256Manager(t, nil)
	token := issueToken(t, m, Claims{Email: "no-uid@example.com"}, time.Hour)

	if _, err := m.Verify(context.Background(), token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Verify error = %v, want ErrInvalid for missing uid", err)
	}
}

type staticRevocations map[string]bool

func (s staticRevocations) IsRevoked(_ context.Context, tokenID string) bool {
	return s[tokenID]
}

func TestManagerVerifyRevoked(t *testing.T) {
	m := newHS256Manager(t, func(c *Config) {
		c.Revocations = staticRevocations{"revoked-1": true}
	})

	revoked := issueToken(t, m, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwtv5.RegisteredClaims{ID: "revoked-1"},
	}, time.Hour)
	if _, err := m.Verify(context.Background(), revoked); !errors.Is(err, ErrRevoked) {
		t.Fatalf("Verify error = %v, want ErrRevoked", err)
	}

	live := issueToken(t, m, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwtv5.RegisteredClaims{ID: "live-1"},
	}, time.Hour)
	if _, err := m.Verify(context.Background(), live); err != nil {
		t.Fatalf("Verify of unrevoked token failed: %v", err)
	}
}

func TestManagerVerifyCancelledContext(t *testing.T) {
	m := newHS256Manager(t, nil)
	token := issueToken(t, m, Claims{UserID: "user-1"}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Verify(ctx, token); !errors.Is(err, context.Canceled) {
		t.Fatalf("Verify error = %v, want context.Canceled", err)
	}
}

func TestManagerEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PublicKey:     pub,
		PrivateKey:    priv,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token := issueToken(t, m, Claims{UserID: "user-1"}, time.Hour)
	claims, err := m.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("UserID = %q, want user-1", claims.UserID)
	}
}

func TestManagerRejectsCrossAlgorithmTokens(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	edManager, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PublicKey:     pub,
		PrivateKey:    priv,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	hsManager := newHS256Manager(t, func(c *Config) { c.Issuer = "" })

	// An HS256 token must never satisfy an Ed25519 verifier, and vice versa.
	hsToken := issueToken(t, hsManager, Claims{UserID: "user-1"}, time.Hour)
	if _, err := edManager.Verify(context.Background(), hsToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("ed25519 Verify of hs256 token = %v, want ErrInvalid", err)
	}

	edToken := issueToken(t, edManager, Claims{UserID: "user-1"}, time.Hour)
	if _, err := hsManager.Verify(context.Background(), edToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("hs256 Verify of ed25519 token = %v, want ErrInvalid", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"hs256 without secret", Config{SigningMethod: MethodHS256}, true},
		{"ed25519 without key", Config{SigningMethod: MethodEd25519}, true},
		{"ed25519 short key", Config{SigningMethod: MethodEd25519, PublicKey: []byte("short")}, true},
		{"unknown method", Config{SigningMethod: "rs256", Secret: []byte("x")}, true},
		{"leeway too long", Config{SigningMethod: MethodHS256, Secret: []byte("x"), Leeway: 3 * time.Minute}, true},
		{"negative leeway", Config{SigningMethod: MethodHS256, Secret: []byte("x"), Leeway: -time.Second}, true},
		{"valid hs256", Config{SigningMethod: MethodHS256, Secret: []byte("x")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewManager error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
