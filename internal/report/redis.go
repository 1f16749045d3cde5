package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// summaryTTL keeps published summaries around long enough for a dashboard
// refresh cycle without accumulating forever.
const summaryTTL = 7 * 24 * time.Hour

// RedisSink publishes run summaries to Redis, keyed by run tag. It is
// optional: the harness only constructs one when a Redis URL is configured.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink connects and pings within a short timeout so a misconfigured
// sink fails at startup, not after a two-hour soak run.
func NewRedisSink(redisURL string) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.WithField("redis_addr", opts.Addr).Info("Connected to Redis summary sink")
	return &RedisSink{client: client}, nil
}

// SummaryKey is the Redis key a run's summary is published under.
func SummaryKey(runTag string) string {
	return "loadgen:summary:" + runTag
}

// Publish stores the JSON-encoded result under the run-tag key.
func (s *RedisSink) Publish(ctx context.Context, result *RunResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}

	key := SummaryKey(result.RunTag)
	if err := s.client.Set(ctx, key, payload, summaryTTL).Err(); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}

	logrus.WithField("key", key).Info("Run summary published to Redis")
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
