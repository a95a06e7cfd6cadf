package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb, "gs", 30*time.Minute), mr
}

func TestStoreValidateRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "sess-1", Record{UserID: "user-1", Role: "ADMIN"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ok, err := s.Validate(ctx, "sess-1", "user-1", "ADMIN")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !ok {
		t.Fatal("valid session rejected")
	}
}

func TestStoreValidateMissingIsFalseNotError(t *testing.T) {
	s, _ := newTestStore(t)

	ok, err := s.Validate(context.Background(), "absent", "user-1", "ADMIN")
	if err != nil {
		t.Fatalf("Validate of missing session errored: %v", err)
	}
	if ok {
		t.Fatal("missing session validated")
	}
}

func TestStoreValidateBindingMismatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "sess-1", Record{UserID: "user-1", Role: "ADMIN"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	tests := []struct {
		name   string
		userID string
		role   string
		want   bool
	}{
		{"wrong user", "user-2", "ADMIN", false},
		{"wrong role", "user-1", "EMPLOYEE", false},
		{"role unchecked when empty", "user-1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.Validate(ctx, "sess-1", tt.userID, tt.role)
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if ok != tt.want {
				t.Fatalf("Validate = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestStoreValidateCorruptRecord(t *testing.T) {
	s, mr := newTestStore(t)

	if err := mr.Set("gs:sess-1", "{not json"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	ok, err := s.Validate(context.Background(), "sess-1", "user-1", "")
	if err != nil {
		t.Fatalf("Validate of corrupt record errored: %v", err)
	}
	if ok {
		t.Fatal("corrupt record validated")
	}
}

func TestStoreTouchExtendsTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "sess-1", Record{UserID: "user-1"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(20 * time.Minute)
	if err := s.Touch(ctx, "sess-1"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	// Without the touch the record would expire 10 minutes from now.
	mr.FastForward(20 * time.Minute)
	ok, err := s.Validate(ctx, "sess-1", "user-1", "")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !ok {
		t.Fatal("touched session expired inside the refreshed window")
	}
}

func TestStoreExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "sess-1", Record{UserID: "user-1"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(31 * time.Minute)

	ok, err := s.Validate(ctx, "sess-1", "user-1", "")
	if err != nil || ok {
		t.Fatalf("Validate after expiry = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestStoreDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "sess-1", Record{UserID: "user-1"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok, _ := s.Validate(ctx, "sess-1", "user-1", ""); ok {
		t.Fatal("deleted session validated")
	}
}

func TestStoreUnavailableWrapsSentinel(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewStore(rdb, "gs", time.Minute)

	mr.Close()

	if _, err := s.Validate(context.Background(), "sess-1", "user-1", ""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Validate error = %v, want ErrUnavailable", err)
	}
	if err := s.Touch(context.Background(), "sess-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Touch error = %v, want ErrUnavailable", err)
	}
}
