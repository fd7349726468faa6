// Package redis keeps job status in Redis hashes. Transition checks run inside a
// Lua script so concurrent writers on the same key cannot interleave a read and a write.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

// DefaultKeyPrefix namespaces the status hashes.
const DefaultKeyPrefix = "syncwave:job_status"

// terminalRank must match model.JobStatus.Rank for SUCCEEDED and FAILED.
const terminalRank = 3

// compareAndSetStatusScript moves a run forward atomically.
// KEYS[1] = status hash key
// ARGV[1] = target status
// ARGV[2] = target rank
// ARGV[3] = terminal rank
// ARGV[4] = ttl in seconds, 0 keeps the key forever
// Returns {code, current status}: 1 written, 0 already at target, -1 rejected.
var compareAndSetStatusScript = goredis.NewScript(`
local key = KEYS[1]
local target = ARGV[1]
local targetRank = tonumber(ARGV[2])
local terminal = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local current = redis.call("HGET", key, "status")
local currentRank = tonumber(redis.call("HGET", key, "rank") or "0")
if not current then
    current = "NOT_STARTED"
    currentRank = 0
end

if current == target then
    return {0, current}
end
if currentRank >= terminal or targetRank <= currentRank then
    return {-1, current}
end

redis.call("HSET", key, "status", target, "rank", targetRank)
if ttl > 0 then
    redis.call("EXPIRE", key, ttl)
end
return {1, target}
`)

// Client is the subset of the go-redis client the store needs.
type Client interface {
	goredis.Scripter
	HGet(ctx context.Context, key, field string) *goredis.StringCmd
}

// JobStatusStore is a Redis-backed repository.JobStatusStore.
type JobStatusStore struct {
	client    Client
	keyPrefix string
	ttl       time.Duration
}

var _ repository.JobStatusStore = (*JobStatusStore)(nil)

// NewJobStatusStore creates a store. ttl bounds how long finished runs are kept; zero keeps them.
func NewJobStatusStore(client Client, keyPrefix string, ttl time.Duration) *JobStatusStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &JobStatusStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// NewClient opens a go-redis client for addr.
func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *JobStatusStore) key(key model.JobRunKey) string {
	return fmt.Sprintf("%s:%s:%d", s.keyPrefix, key.JobID, key.AttemptID)
}

// Write moves key to status if the move goes forward.
func (s *JobStatusStore) Write(ctx context.Context, key model.JobRunKey, status model.JobStatus) error {
	const op = "RedisJobStatusStore.Write"

	if !status.IsValid() {
		_, err := model.CheckTransition(key, model.JobStatusNotStarted, status)
		return err
	}
	res, err := compareAndSetStatusScript.Run(ctx, s.client, []string{s.key(key)},
		string(status), status.Rank(), terminalRank, int64(s.ttl/time.Second)).Result()
	if err != nil {
		return exception.New(exception.InternalError, op, fmt.Sprintf("status script failed for %s", key), err)
	}

	results, ok := res.([]interface{})
	if !ok || len(results) != 2 {
		return exception.New(exception.InternalError, op, fmt.Sprintf("unexpected script reply %v for %s", res, key), nil)
	}
	code, _ := results[0].(int64)
	current, _ := results[1].(string)
	if code < 0 {
		_, err := model.CheckTransition(key, model.JobStatus(current), status)
		if err == nil {
			err = fmt.Errorf("JobRun (%s): %s -> %s: %w", key, current, status, model.ErrInvalidStatusTransition)
		}
		return err
	}
	return nil
}

// Read returns the status of key, NOT_STARTED if it was never written.
func (s *JobStatusStore) Read(ctx context.Context, key model.JobRunKey) (model.JobStatus, error) {
	const op = "RedisJobStatusStore.Read"

	v, err := s.client.HGet(ctx, s.key(key), "status").Result()
	if errors.Is(err, goredis.Nil) {
		return model.JobStatusNotStarted, nil
	}
	if err != nil {
		return "", exception.New(exception.InternalError, op, fmt.Sprintf("failed to read status of %s", key), err)
	}
	status, err := model.ParseJobStatus(v)
	if err != nil {
		return "", exception.New(exception.InternalError, op, fmt.Sprintf("corrupt status hash for %s", key), err)
	}
	return status, nil
}
