package adminauth

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	requestKeyPrefix     = "aar"
	requestRecordVersion = 1
)

type redisRequestStore struct {
	redis  redis.UniversalClient
	prefix string
}

func newRedisRequestStore(client redis.UniversalClient) *redisRequestStore {
	return &redisRequestStore{
		redis:  client,
		prefix: requestKeyPrefix,
	}
}

func (s *redisRequestStore) key(requestID string) string {
	return s.prefix + ":" + requestID
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisRequestStore) Save(ctx context.Context, request *PendingRequest, ttl time.Duration) error {
	encoded, err := encodePendingRequest(request)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(request.RequestID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisRequestStore) Get(ctx context.Context, requestID string) (*PendingRequest, error) {
	data, err := s.redis.Get(ctx, s.key(requestID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return decodePendingRequest(data)
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisRequestStore) Delete(ctx context.Context, requestID string) error {
	if err := s.redis.Del(ctx, s.key(requestID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// SweepExpired is a no-op for the Redis-backed store because key TTLs handle
// eviction server-side.
func (s *redisRequestStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func encodePendingRequest(request *PendingRequest) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(requestRecordVersion)
	if request.Emergency {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := binary.Write(&buf, binary.BigEndian, request.CreatedAt); err != nil {
		return nil, err
	}

	fields := []string{
		request.RequestID,
		request.RequestorID,
		request.RequestorEmail,
		request.TargetID,
		request.TargetEmail,
		request.Reason,
	}
	for _, field := range fields {
		if len(field) > 65535 {
			return nil, errors.New("pending request field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodePendingRequest(data []byte) (*PendingRequest, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != requestRecordVersion {
		return nil, errors.New("invalid pending request version")
	}

	emergency, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	request := &PendingRequest{Emergency: emergency == 1}

	if err := binary.Read(reader, binary.BigEndian, &request.CreatedAt); err != nil {
		return nil, err
	}

	fields := []*string{
		&request.RequestID,
		&request.RequestorID,
		&request.RequestorEmail,
		&request.TargetID,
		&request.TargetEmail,
		&request.Reason,
	}
	for _, field := range fields {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		value := make([]byte, length)
		if _, err := io.ReadFull(reader, value); err != nil {
			return nil, err
		}
		*field = string(value)
	}

	return request, nil
}
