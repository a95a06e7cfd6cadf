// Package ratelimit implements fixed-window request counting for the
// gatekeeper pipeline.
//
// # Components
//
//   - [CounterStore] — the atomic increment-and-read contract over rate-limit
//     windows. [MemoryStore] is the in-process sharded implementation with a
//     cancellable janitor sweep; [RedisStore] shares budgets across processes.
//   - [KeyFunc] strategies — pure derivations of a budget key from request
//     attributes (client IP, authenticated user, or a composite hash).
//   - [Limiter] — binds a [Config] to a store and answers Check per request.
//
// # Invariants
//
// Increment is atomic per key: concurrent callers never lose an update. An
// entry whose reset time has passed is absent regardless of physical deletion
// timing. Every Check costs one slot whether the outcome is allowed or
// denied, so a denied client cannot probe for free.
package ratelimit
