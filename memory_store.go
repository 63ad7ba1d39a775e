package adminauth

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// In-memory store implementations. They mirror the Redis stores' observable
// behavior, including storage deadlines, so the engine can run without any
// external dependency in tests and single-process deployments.

type memoryRequestEntry struct {
	request  PendingRequest
	deadline time.Time
}

// MemoryRequestStore is a process-local RequestStore safe for concurrent use.
type MemoryRequestStore struct {
	mu      sync.Mutex
	entries map[string]memoryRequestEntry
}

// NewMemoryRequestStore describes the newmemoryrequeststore operation and its observable behavior.
//
// NewMemoryRequestStore may return an error when input validation, dependency calls, or security checks fail.
// NewMemoryRequestStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{entries: make(map[string]memoryRequestEntry)}
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRequestStore) Save(ctx context.Context, request *PendingRequest, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[request.RequestID] = memoryRequestEntry{
		request:  *request,
		deadline: time.Now().Add(ttl),
	}
	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRequestStore) Get(ctx context.Context, requestID string) (*PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[requestID]
	if !ok {
		return nil, errRecordNotFound
	}
	if time.Now().After(entry.deadline) {
		delete(s.entries, requestID)
		return nil, errRecordNotFound
	}

	request := entry.request
	return &request, nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRequestStore) Delete(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, requestID)
	return nil
}

// SweepExpired describes the sweepexpired operation and its observable behavior.
//
// SweepExpired may return an error when input validation, dependency calls, or security checks fail.
// SweepExpired does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRequestStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, entry := range s.entries {
		if now.After(entry.deadline) {
			delete(s.entries, id)
			purged++
		}
	}
	return purged, nil
}

type memoryVerificationEntry struct {
	record   VerificationRecord
	deadline time.Time
}

// MemoryVerificationStore is a process-local VerificationStore safe for
// concurrent use. Consume holds the store mutex for the full
// check-and-delete, which gives the same at-most-once guarantee the Redis
// WATCH transaction provides.
type MemoryVerificationStore struct {
	mu      sync.Mutex
	entries map[string]memoryVerificationEntry
}

// NewMemoryVerificationStore describes the newmemoryverificationstore operation and its observable behavior.
//
// NewMemoryVerificationStore may return an error when input validation, dependency calls, or security checks fail.
// NewMemoryVerificationStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryVerificationStore() *MemoryVerificationStore {
	return &MemoryVerificationStore{entries: make(map[string]memoryVerificationEntry)}
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryVerificationStore) Save(ctx context.Context, token string, record *VerificationRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[token] = memoryVerificationEntry{
		record:   *record,
		deadline: time.Now().Add(ttl),
	}
	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryVerificationStore) Get(ctx context.Context, token string) (*VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return nil, errRecordNotFound
	}
	if time.Now().After(entry.deadline) {
		delete(s.entries, token)
		return nil, errRecordNotFound
	}

	record := entry.record
	return &record, nil
}

// Consume describes the consume operation and its observable behavior.
//
// Consume may return an error when input validation, dependency calls, or security checks fail.
// Consume does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryVerificationStore) Consume(
	ctx context.Context,
	token, requestID string,
	codeHash [32]byte,
	codeRequired bool,
	maxAttempts int,
) (*VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return nil, errRecordNotFound
	}
	if time.Now().After(entry.deadline) ||
		time.Now().Unix() >= entry.record.ExpiresAt ||
		entry.record.RequestID != requestID {
		delete(s.entries, token)
		return nil, errRecordNotFound
	}

	if codeRequired && subtle.ConstantTimeCompare(entry.record.CodeHash[:], codeHash[:]) != 1 {
		entry.record.Attempts++
		if int(entry.record.Attempts) >= maxAttempts {
			delete(s.entries, token)
			return nil, errAttemptsExceeded
		}
		s.entries[token] = entry
		return nil, errCodeMismatch
	}

	delete(s.entries, token)
	record := entry.record
	return &record, nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryVerificationStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, token)
	return nil
}

// SweepExpired describes the sweepexpired operation and its observable behavior.
//
// SweepExpired may return an error when input validation, dependency calls, or security checks fail.
// SweepExpired does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryVerificationStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for token, entry := range s.entries {
		if now.After(entry.deadline) {
			delete(s.entries, token)
			purged++
		}
	}
	return purged, nil
}

// MemoryCooldownStore is a process-local CooldownStore safe for concurrent
// use.
type MemoryCooldownStore struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
}

// NewMemoryCooldownStore describes the newmemorycooldownstore operation and its observable behavior.
//
// NewMemoryCooldownStore may return an error when input validation, dependency calls, or security checks fail.
// NewMemoryCooldownStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{deadlines: make(map[string]time.Time)}
}

// Active describes the active operation and its observable behavior.
//
// Active may return an error when input validation, dependency calls, or security checks fail.
// Active does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryCooldownStore) Active(ctx context.Context, actorID string, now time.Time) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.deadlines[actorID]
	if !ok {
		return false, 0, nil
	}
	if !now.Before(until) {
		delete(s.deadlines, actorID)
		return false, 0, nil
	}
	return true, until.Sub(now), nil
}

// Set describes the set operation and its observable behavior.
//
// Set may return an error when input validation, dependency calls, or security checks fail.
// Set does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryCooldownStore) Set(ctx context.Context, actorID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deadlines[actorID] = until
	return nil
}

// SweepExpired describes the sweepexpired operation and its observable behavior.
//
// SweepExpired may return an error when input validation, dependency calls, or security checks fail.
// SweepExpired does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryCooldownStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for actorID, until := range s.deadlines {
		if !now.Before(until) {
			delete(s.deadlines, actorID)
			purged++
		}
	}
	return purged, nil
}
