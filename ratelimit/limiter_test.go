package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limiterRequest(ip string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	r.RemoteAddr = ip + ":54321"
	return r
}

func TestLimiterAllowsWithinBudget(t *testing.T) {
	l := New(NewMemoryStore(), Config{
		Budget: Budget{Window: time.Minute, Max: 3},
	})
	ctx := context.Background()
	r := limiterRequest("1.2.3.4")

	for i := 0; i < 3; i++ {
		out, err := l.Check(ctx, r)
		if err != nil {
			t.Fatalf("Check %d failed: %v", i, err)
		}
		if !out.Allowed {
			t.Fatalf("request %d denied within budget", i)
		}
		if want := 3 - (i + 1); out.Remaining != want {
			t.Fatalf("request %d Remaining = %d, want %d", i, out.Remaining, want)
		}
		if out.Limit != 3 {
			t.Fatalf("Limit = %d, want 3", out.Limit)
		}
	}
}

func TestLimiterDeniesOverBudget(t *testing.T) {
	l := New(NewMemoryStore(), Config{
		Budget:  Budget{Window: time.Minute, Max: 2},
		Message: "slow down",
	})
	ctx := context.Background()
	r := limiterRequest("1.2.3.4")

	for i := 0; i < 2; i++ {
		if _, err := l.Check(ctx, r); err != nil {
			t.Fatalf("Check failed: %v", err)
		}
	}

	out, err := l.Check(ctx, r)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if out.Allowed {
		t.Fatal("third request allowed over a budget of 2")
	}
	if out.Remaining != 0 {
		t.Fatalf("denied Remaining = %d, want 0", out.Remaining)
	}
	if out.RetryAfter < time.Second || out.RetryAfter > time.Minute {
		t.Fatalf("RetryAfter = %v, want within (1s, window]", out.RetryAfter)
	}
	if out.RetryAfter%time.Second != 0 {
		t.Fatalf("RetryAfter = %v, want whole seconds", out.RetryAfter)
	}
	if out.Message != "slow down" {
		t.Fatalf("Message = %q, want configured text", out.Message)
	}
}

func TestLimiterDeniedRequestsStillCost(t *testing.T) {
	store := NewMemoryStore()
	l := New(store, Config{
		Budget: Budget{Window: time.Minute, Max: 1},
	})
	ctx := context.Background()
	r := limiterRequest("1.2.3.4")

	for i := 0; i < 5; i++ {
		if _, err := l.Check(ctx, r); err != nil {
			t.Fatalf("Check failed: %v", err)
		}
	}

	// Every check consumed a slot, denied ones included.
	w, ok, err := store.Peek(ctx, ByIP(r))
	if err != nil || !ok {
		t.Fatalf("Peek = (ok=%v, err=%v), want live window", ok, err)
	}
	if w.Count != 5 {
		t.Fatalf("window count = %d, want 5 (denied requests must cost)", w.Count)
	}
}

func TestLimiterFirstRequestAlwaysAllowed(t *testing.T) {
	// A zero Max is clamped to 1 so the first request of any window passes.
	l := New(NewMemoryStore(), Config{
		Budget: Budget{Window: time.Minute, Max: 0},
	})

	out, err := l.Check(context.Background(), limiterRequest("9.9.9.9"))
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !out.Allowed {
		t.Fatal("first request of a fresh window was denied")
	}
}

func TestLimiterKeysIsolateClients(t *testing.T) {
	l := New(NewMemoryStore(), Config{
		Budget: Budget{Window: time.Minute, Max: 1},
	})
	ctx := context.Background()

	if out, _ := l.Check(ctx, limiterRequest("1.1.1.1")); !out.Allowed {
		t.Fatal("first client denied")
	}
	if out, _ := l.Check(ctx, limiterRequest("1.1.1.1")); out.Allowed {
		t.Fatal("first client allowed over budget")
	}
	// The second client's budget is untouched.
	if out, _ := l.Check(ctx, limiterRequest("2.2.2.2")); !out.Allowed {
		t.Fatal("second client denied by first client's budget")
	}
}

func TestLimiterReset(t *testing.T) {
	l := New(NewMemoryStore(), Config{
		Budget: Budget{Window: time.Minute, Max: 1},
	})
	ctx := context.Background()
	r := limiterRequest("1.2.3.4")

	if _, err := l.Check(ctx, r); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if out, _ := l.Check(ctx, r); out.Allowed {
		t.Fatal("second request allowed over budget")
	}

	if err := l.Reset(ctx, r); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if out, _ := l.Check(ctx, r); !out.Allowed {
		t.Fatal("request denied after reset")
	}
}

func TestRetryAfterRoundsUp(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		reset time.Time
		want  time.Duration
	}{
		{"past reset clamps to one second", now.Add(-time.Second), time.Second},
		{"sub-second rounds up", now.Add(300 * time.Millisecond), time.Second},
		{"mid-window rounds up", now.Add(2500 * time.Millisecond), 3 * time.Second},
		{"exact seconds unchanged", now.Add(5 * time.Second), 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryAfter(now, tt.reset); got != tt.want {
				t.Fatalf("retryAfter = %v, want %v", got, tt.want)
			}
		})
	}
}
