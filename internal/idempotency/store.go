package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("idempotency key not found")
	ErrHashMismatch = errors.New("idempotency key body mismatch")
	ErrInProgress   = errors.New("idempotency key in progress")
)

const redisKeyPrefix = "exchange:idempotency"

// Row is the durable form of a key as persisted by Durable.
type Row struct {
	Key         string
	RequestHash string
	Status      int
	Body        []byte
	ContentType string
	InProgress  bool
}

// Durable is the source of truth for reservations; the repository implements it.
type Durable interface {
	GetIdempotencyKey(ctx context.Context, key string) (*Row, error)
	ReserveIdempotencyKey(ctx context.Context, key, requestHash, method, path string) (bool, error)
	FinalizeIdempotencyKey(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*Row, error)
	ReleaseIdempotencyKey(ctx context.Context, key, requestHash string) error
}

// Record is a completed response ready for replay.
type Record struct {
	Key         string
	RequestHash string
	Status      int
	Body        []byte
	ContentType string
	ServedBy    string
}

// Store fronts the durable table with an optional redis cache of finished
// responses. A nil redis client disables the cache.
type Store struct {
	redis   redis.Cmdable
	durable Durable
	ttl     time.Duration
	poll    time.Duration
}

func NewStore(redis redis.Cmdable, durable Durable, ttl time.Duration) *Store {
	return &Store{redis: redis, durable: durable, ttl: ttl, poll: 50 * time.Millisecond}
}

type cacheEnvelope struct {
	Key         string `json:"key"`
	Hash        string `json:"hash"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

func (s *Store) Lookup(ctx context.Context, key, requestHash string) (*Record, error) {
	if s.redis != nil {
		val, err := s.redis.Get(ctx, redisKey(key)).Result()
		if err == nil {
			var env cacheEnvelope
			if json.Unmarshal([]byte(val), &env) == nil {
				if env.Hash != requestHash {
					return nil, ErrHashMismatch
				}
				return &Record{
					Key:         env.Key,
					RequestHash: env.Hash,
					Status:      env.Status,
					Body:        env.Body,
					ContentType: env.ContentType,
					ServedBy:    "redis",
				}, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			zap.L().Warn("redis idempotency lookup failed", zap.Error(err))
		}
	}

	row, err := s.durable.GetIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if row.RequestHash != requestHash {
		return nil, ErrHashMismatch
	}
	if row.InProgress {
		return nil, ErrInProgress
	}
	rec := fromRow(row, "postgres")
	s.cache(ctx, rec)
	return &rec, nil
}

func (s *Store) Reserve(ctx context.Context, key, requestHash, method, path string) (bool, error) {
	return s.durable.ReserveIdempotencyKey(ctx, key, requestHash, method, path)
}

func (s *Store) Finalize(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*Record, error) {
	row, err := s.durable.FinalizeIdempotencyKey(ctx, key, requestHash, status, body, contentType)
	if err != nil {
		return nil, err
	}
	rec := fromRow(row, "postgres")
	s.cache(ctx, rec)
	return &rec, nil
}

// Release forgets an in-flight reservation whose request failed server side.
func (s *Store) Release(ctx context.Context, key, requestHash string) error {
	return s.durable.ReleaseIdempotencyKey(ctx, key, requestHash)
}

func (s *Store) WaitForCompletion(ctx context.Context, key, requestHash string) (*Record, error) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		rec, err := s.Lookup(ctx, key, requestHash)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrInProgress) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Store) cache(ctx context.Context, rec Record) {
	if s.redis == nil {
		return
	}
	env := cacheEnvelope{
		Key:         rec.Key,
		Hash:        rec.RequestHash,
		Status:      rec.Status,
		Body:        rec.Body,
		ContentType: rec.ContentType,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		zap.L().Warn("marshal idempotency cache", zap.Error(err))
		return
	}
	if err := s.redis.Set(ctx, redisKey(rec.Key), payload, s.ttl).Err(); err != nil {
		zap.L().Warn("redis idempotency cache set failed", zap.Error(err))
	}
}

func fromRow(row *Row, servedBy string) Record {
	return Record{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Status:      row.Status,
		Body:        row.Body,
		ContentType: row.ContentType,
		ServedBy:    servedBy,
	}
}

func redisKey(key string) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, key)
}
