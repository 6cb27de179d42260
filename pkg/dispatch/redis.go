package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/coderunner/sandbox/pkg/sandbox"
)

const (
	queueKey        = "sandbox:jobs"
	stateKeyPrefix  = "sandbox:state:"
	resultKeyPrefix = "sandbox:result:"
	resultTTL       = 24 * time.Hour
)

// RedisQueue implements Queue against a single Redis instance: a list for
// FIFO job dispatch and string keys for per-job state and result.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue parses url (a redis:// URL) and verifies the connection
// before returning.
func NewRedisQueue(ctx context.Context, url string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisQueue{client: client}, nil
}

// NewRedisQueueFromClient wraps an already-constructed client, used by
// tests running against miniredis.
func NewRedisQueueFromClient(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Submit(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return q.SetState(ctx, job.ID, StateAccepted)
}

func (q *RedisQueue) Fetch(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}

	// BLPOP returns [key, value]; the payload is the second element.
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (q *RedisQueue) SetState(ctx context.Context, jobID sandbox.JobID, state JobState) error {
	if err := q.client.Set(ctx, stateKeyPrefix+jobID.String(), string(state), resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to set job state: %w", err)
	}
	return nil
}

func (q *RedisQueue) GetState(ctx context.Context, jobID sandbox.JobID) (JobState, error) {
	val, err := q.client.Get(ctx, stateKeyPrefix+jobID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("job %s: %w", jobID, ErrUnknownJob)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get job state: %w", err)
	}
	return JobState(val), nil
}

func (q *RedisQueue) PutResult(ctx context.Context, jobID sandbox.JobID, result sandbox.TaskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := q.client.Set(ctx, resultKeyPrefix+jobID.String(), data, resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return q.SetState(ctx, jobID, StateDone)
}

func (q *RedisQueue) GetResult(ctx context.Context, jobID sandbox.JobID) (*sandbox.TaskResult, error) {
	data, err := q.client.Get(ctx, resultKeyPrefix+jobID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrUnknownJob)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var result sandbox.TaskResult
	if err := json.Unmarshal(normalizeSterrKey([]byte(data)), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// normalizeSterrKey migrates the legacy "sterr" result key (§9 Open
// Question) into "stderr" before decoding. Nothing written by PutResult
// ever produces "sterr" again; this only accounts for blobs a pre-existing
// result store may still hold from the legacy path.
func normalizeSterrKey(data []byte) []byte {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return data
	}
	if _, hasStderr := raw["stderr"]; hasStderr {
		return data
	}
	legacy, hasSterr := raw["sterr"]
	if !hasSterr {
		return data
	}
	raw["stderr"] = legacy
	delete(raw, "sterr")
	migrated, err := json.Marshal(raw)
	if err != nil {
		return data
	}
	return migrated
}

// Close releases the underlying Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Client exposes the underlying Redis client, used by callers that need it
// for purposes outside the Queue interface (e.g. health checks).
func (q *RedisQueue) Client() *redis.Client {
	return q.client
}
