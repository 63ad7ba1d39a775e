package adminauth

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	verificationKeyPrefix     = "aav"
	verificationRecordVersion = 1
)

type redisVerificationStore struct {
	redis  redis.UniversalClient
	prefix string
}

func newRedisVerificationStore(client redis.UniversalClient) *redisVerificationStore {
	return &redisVerificationStore{
		redis:  client,
		prefix: verificationKeyPrefix,
	}
}

func (s *redisVerificationStore) key(token string) string {
	return s.prefix + ":" + token
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisVerificationStore) Save(
	ctx context.Context,
	token string,
	record *VerificationRecord,
	ttl time.Duration,
) error {
	encoded, err := encodeVerificationRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisVerificationStore) Get(ctx context.Context, token string) (*VerificationRecord, error) {
	data, err := s.redis.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return decodeVerificationRecord(data)
}

// Consume atomically validates the request pairing and, when required, the
// email code digest, then deletes the record. A code mismatch increments the
// attempts counter in place without consuming the record; exceeding
// maxAttempts deletes it. The WATCH transaction guarantees two concurrent
// consumers can never both observe a successful delete of the same token.
func (s *redisVerificationStore) Consume(
	ctx context.Context,
	token, requestID string,
	codeHash [32]byte,
	codeRequired bool,
	maxAttempts int,
) (*VerificationRecord, error) {
	const maxRetries = 4
	key := s.key(token)

	for i := 0; i < maxRetries; i++ {
		var matched *VerificationRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeVerificationRecord(data)
			if err != nil {
				return err
			}

			if time.Now().Unix() >= record.ExpiresAt || record.RequestID != requestID {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return errRecordNotFound
			}

			if codeRequired && subtle.ConstantTimeCompare(record.CodeHash[:], codeHash[:]) != 1 {
				record.Attempts++
				if int(record.Attempts) >= maxAttempts {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return errAttemptsExceeded
				}

				updated, err := encodeVerificationRecord(record)
				if err != nil {
					return err
				}

				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, redis.KeepTTL)
					return nil
				})
				if err != nil {
					return err
				}
				return errCodeMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			matched = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return nil, errRecordNotFound
			case errors.Is(err, errRecordNotFound), errors.Is(err, errCodeMismatch), errors.Is(err, errAttemptsExceeded):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, errRecordNotFound
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisVerificationStore) Delete(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// SweepExpired is a no-op for the Redis-backed store because key TTLs handle
// eviction server-side.
func (s *redisVerificationStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func encodeVerificationRecord(record *VerificationRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(verificationRecordVersion)
	buf.WriteByte(encodeVerificationFlags(record))

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.RequestID) > 65535 {
		return nil, errors.New("verification record request id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.RequestID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.RequestID)
	buf.Write(record.CodeHash[:])
	buf.Write(record.OverrideHash[:])
	buf.Write(record.NewPasswordHash[:])

	return buf.Bytes(), nil
}

func encodeVerificationFlags(record *VerificationRecord) byte {
	var flags byte
	if record.CurrentPasswordVerified {
		flags |= 1 << 0
	}
	if record.EmailVerificationSent {
		flags |= 1 << 1
	}
	if record.TwoFactorRequired {
		flags |= 1 << 2
	}
	if record.EmergencyOverride {
		flags |= 1 << 3
	}
	return flags
}

func decodeVerificationRecord(data []byte) (*VerificationRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != verificationRecordVersion {
		return nil, errors.New("invalid verification record version")
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &VerificationRecord{
		CurrentPasswordVerified: flags&(1<<0) != 0,
		EmailVerificationSent:   flags&(1<<1) != 0,
		TwoFactorRequired:       flags&(1<<2) != 0,
		EmergencyOverride:       flags&(1<<3) != 0,
	}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var requestIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &requestIDLen); err != nil {
		return nil, err
	}

	requestID := make([]byte, requestIDLen)
	if _, err := io.ReadFull(reader, requestID); err != nil {
		return nil, err
	}
	record.RequestID = string(requestID)

	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.OverrideHash[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.NewPasswordHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
