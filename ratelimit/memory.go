package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

type memoryShard struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is an in-process [CounterStore]: a sharded map with per-shard
// locking so concurrent increments on hot keys serialize without a global
// bottleneck. Expired windows are treated as absent on read and physically
// removed by the janitor sweep.
type MemoryStore struct {
	shards [shardCount]memoryShard
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory counter store. The caller that
// owns the store should also run [MemoryStore.StartJanitor] to bound memory
// growth; request-path correctness does not depend on the sweep.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for i := range s.shards {
		s.shards[i].windows = make(map[string]*memoryWindow)
	}
	return s
}

func (s *MemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.shards[h.Sum32()%shardCount]
}

// Increment atomically adds one request to the key's live window, creating a
// fresh window when none is live. It never fails.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Window, error) {
	now := s.now()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[key]
	if !ok || !now.Before(w.resetAt) {
		// Expired entries are absent regardless of sweep timing.
		w = &memoryWindow{count: 1, resetAt: now.Add(window)}
		sh.windows[key] = w
		return Window{Count: 1, ResetAt: w.resetAt}, nil
	}

	w.count++
	return Window{Count: w.count, ResetAt: w.resetAt}, nil
}

// Peek returns the live window for key without consuming a slot.
func (s *MemoryStore) Peek(_ context.Context, key string) (Window, bool, error) {
	now := s.now()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[key]
	if !ok || !now.Before(w.resetAt) {
		return Window{}, false, nil
	}
	return Window{Count: w.count, ResetAt: w.resetAt}, true, nil
}

// Reset force-expires a key.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.windows, key)
	return nil
}

// StartJanitor launches the periodic sweep that deletes expired windows and
// returns a stop function. Stopping waits for the sweep goroutine to exit;
// the store remains usable (and correct) after the janitor stops.
func (s *MemoryStore) StartJanitor(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, w := range sh.windows {
			if !now.Before(w.resetAt) {
				delete(sh.windows, key)
			}
		}
		sh.mu.Unlock()
	}
}
