package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	gatekeeper "github.com/crazybass81/dot-gatekeeper"
	"github.com/crazybass81/dot-gatekeeper/jwt"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

type userState struct {
	id    string
	token string
}

func main() {
	var (
		users       = flag.Int("users", 10000, "number of users to seed tokens for")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "evaluations per phase (public + authed)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	jwtCfg := jwt.Config{
		SigningMethod: jwt.MethodHS256,
		Secret:        []byte("loadtest-secret-do-not-use-in-production"),
		Issuer:        "gatekeeper-loadtest",
	}
	manager, err := jwt.NewManager(jwtCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jwt manager: %v\n", err)
		os.Exit(1)
	}

	cfg := gatekeeper.DefaultConfig()
	// The point is pipeline throughput, not limiter exhaustion: give every
	// preset a budget the run cannot hit, and keep events off the hot path.
	cfg.Limits.Auth.Max = 1 << 30
	cfg.Limits.API.Max = 1 << 30
	cfg.Limits.Read.Max = 1 << 30
	cfg.Limits.Write.Max = 1 << 30
	cfg.Limits.Admin.Max = 1 << 30
	cfg.Audit.Enabled = false

	gate, err := gatekeeper.New().
		WithConfig(cfg).
		WithRedis(client).
		WithJWT(jwtCfg).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build gate: %v\n", err)
		os.Exit(1)
	}
	defer gate.Close()

	states := make([]userState, *users)
	fmt.Printf("seeding %d user tokens...\n", *users)
	startSeed := time.Now()
	for i := 0; i < *users; i++ {
		uid := fmt.Sprintf("user-%d", i)
		token, err := manager.Issue(jwt.Claims{
			UserID: uid,
			Email:  uid + "@example.com",
			Roles:  []string{"EMPLOYEE"},
			RegisteredClaims: jwtv5.RegisteredClaims{
				ID: fmt.Sprintf("tok-%d", i),
			},
		}, 24*time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = userState{id: uid, token: token}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	publicStats := runPhase(gate, states, *ops, *concurrency, publicRequest)
	authedStats := runPhase(gate, states, *ops, *concurrency, authedRequest)

	fmt.Println("---- results ----")
	printStats("public", publicStats)
	printStats("authed", authedStats)

	snap := gate.MetricsSnapshot()
	fmt.Printf("gate: allowed=%d rate_limited=%d auth_invalid=%d\n",
		snap.Counters[gatekeeper.MetricAllowed],
		snap.Counters[gatekeeper.MetricRateLimited],
		snap.Counters[gatekeeper.MetricAuthInvalid],
	)
}

func publicRequest(state userState, worker int) *http.Request {
	r, _ := http.NewRequest(http.MethodGet, "http://gate.local/api/health", nil)
	r.RemoteAddr = fmt.Sprintf("10.0.%d.%d:40000", worker%256, worker/256%256)
	return r
}

func authedRequest(state userState, worker int) *http.Request {
	r, _ := http.NewRequest(http.MethodGet, "http://gate.local/api/profile", nil)
	r.RemoteAddr = fmt.Sprintf("10.0.%d.%d:40000", worker%256, worker/256%256)
	r.Header.Set("Authorization", "Bearer "+state.token)
	return r
}

func runPhase(gate *gatekeeper.Gate, states []userState, ops, concurrency int, build func(userState, int) *http.Request) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				req := build(states[idx], worker)
				t0 := time.Now()
				d := gate.Evaluate(req)
				elapsed := time.Since(t0)
				if d.Kind != gatekeeper.DecisionAllow {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
