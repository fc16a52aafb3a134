package store

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/local/pdfmerger/internal/pipeline"
)

// RedisJobs records merge-job state transitions in Redis with a TTL.
// It satisfies pipeline.StatusStore.
type RedisJobs struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJobs(redisURL string, ttl time.Duration) (*RedisJobs, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisJobs{client: c, ttl: ttl}, nil
}

func (s *RedisJobs) key(jobID string) string { return fmt.Sprintf("mergejob:%s:status", jobID) }

// Set records the job's current state, refreshing the key TTL.
func (s *RedisJobs) Set(ctx context.Context, jobID string, st pipeline.JobStatus) error {
	m := map[string]interface{}{
		"state":       st.State,
		"environment": st.Environment,
		"updated":     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if st.Error != "" {
		m["error"] = st.Error
	}
	if st.Key != "" {
		m["s3_key"] = st.Key
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(jobID), m)
	pipe.Expire(ctx, s.key(jobID), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns the last recorded status for jobID.
func (s *RedisJobs) Get(ctx context.Context, jobID string) (pipeline.JobStatus, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(jobID)).Result()
	if err != nil {
		return pipeline.JobStatus{}, false, err
	}
	if len(res) == 0 {
		return pipeline.JobStatus{}, false, nil
	}
	return pipeline.JobStatus{
		State:       res["state"],
		Environment: res["environment"],
		Error:       res["error"],
		Key:         res["s3_key"],
	}, true, nil
}

func (s *RedisJobs) Close() error { return s.client.Close() }
