// Package rate provides the Redis-backed fixed-window limiter used to
// throttle password-change initiation per (ip, bucket, actor) triple.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. When the
// budget is exhausted the remaining window TTL is surfaced as a retry-after
// hint. Key prefix: aarl:.
//
// # What this package must NOT do
//
//   - Implement workflow policy (which buckets exist, what exceeding one
//     means); that lives in the root package.
//   - Be imported outside the adminauth module.
package rate
