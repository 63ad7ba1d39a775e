// Package adminauth implements the identity verification and password-change
// workflow that gates credential changes for administrator and
// super-administrator accounts: a multi-step, time-bound authorization state
// machine with multi-party verification, rate limiting, an emergency-override
// cooldown, and security-event correlation over a rolling window.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// adminauth is the public surface. It exposes [Engine], [Builder], [Config],
// the collaborator interfaces ([IdentityProvider], [SessionStore],
// [PasswordPolicy], [RateLimiter], [CodeSender], [AuditSink]), and the value
// types they exchange. Token generation, record codecs, and the default rate
// limiter live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Store, log, or audit plaintext passwords, verification codes, or
//     generated temporary passwords.
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//   - Perform credential storage or session bookkeeping itself; those belong
//     to the injected collaborators.
//
// # Completion contract
//
// A pending password-change request completes successfully at most once. The
// verification record is consumed with an atomic compare-and-delete before
// the credential is mutated, so two racing Complete calls can never both
// update the credential.
package adminauth
