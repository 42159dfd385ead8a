package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"classgen-server-go/models"
)

const (
	runsKey       = "runs" // Sorted set: run IDs scored by creation time
	runInfoPrefix = "run:" // Hash prefix: run:{id} -> run fields and payload
)

// Helper to generate run hash key
func getRunKey(runID string) string {
	return runInfoPrefix + runID
}

// RedisStore keeps allocation runs in Redis.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration // Zero keeps runs forever
	logger *zap.Logger
}

// NewRedisStore creates a RedisStore on an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{Client: client, TTL: ttl, logger: logger}
}

// ConnectRedis creates a client and pings it.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// runFields flattens a run into hash fields.
func runFields(run *models.Run) (map[string]interface{}, error) {
	payload, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}
	summary, err := json.Marshal(run.Summary())
	if err != nil {
		return nil, fmt.Errorf("failed to encode run summary %s: %w", run.ID, err)
	}
	return map[string]interface{}{
		"id":        run.ID,
		"createdAt": run.CreatedAt.UTC().Format(time.RFC3339Nano),
		"seed":      strconv.FormatInt(run.Seed, 10),
		"source":    run.Source,
		"summary":   string(summary),
		"payload":   string(payload),
	}, nil
}

// runFromFields rebuilds a run from its hash fields.
func runFromFields(data map[string]string) (*models.Run, error) {
	payload, ok := data["payload"]
	if !ok {
		return nil, errors.New("run hash has no payload")
	}
	var run models.Run
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, fmt.Errorf("failed to decode run payload: %w", err)
	}
	return &run, nil
}

// SaveRun stores run and indexes it by creation time.
func (s *RedisStore) SaveRun(ctx context.Context, run *models.Run) error {
	if run == nil || run.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	fields, err := runFields(run)
	if err != nil {
		return err
	}

	runKey := getRunKey(run.ID)
	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, runKey, fields)
	pipe.ZAdd(ctx, runsKey, &redis.Z{Score: float64(run.CreatedAt.Unix()), Member: run.ID})
	if s.TTL > 0 {
		pipe.Expire(ctx, runKey, s.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("saving run failed", zap.String("run", run.ID), zap.Error(err))
		return fmt.Errorf("failed to save run to Redis: %w", err)
	}
	s.logger.Debug("saved run", zap.String("run", run.ID))
	return nil
}

// GetRun loads a run by ID.
func (s *RedisStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	data, err := s.Client.HGetAll(ctx, getRunKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run %s from Redis: %w", id, err)
	}
	if len(data) == 0 {
		return nil, ErrRunNotFound
	}
	return runFromFields(data)
}

// ListRuns returns up to limit run summaries, newest first. IDs whose hash
// has expired are dropped from the index as they are found and the window
// moves on until limit live runs are collected or the index runs out.
func (s *RedisStore) ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	out := []models.RunSummary{}
	start := int64(0)
	for {
		want := limit - len(out)
		stop := int64(-1)
		if limit > 0 {
			stop = start + int64(want) - 1
		}
		ids, err := s.Client.ZRevRange(ctx, runsKey, start, stop).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return out, nil
			}
			return nil, fmt.Errorf("failed to list run IDs from Redis: %w", err)
		}

		summaries, stale, err := s.summaries(ctx, ids)
		if err != nil {
			return nil, err
		}
		out = append(out, summaries...)

		// Pruned members shift the later ranks down.
		start += int64(len(ids))
		if len(stale) > 0 {
			if err := s.Client.ZRem(ctx, runsKey, stale...).Err(); err != nil {
				s.logger.Warn("pruning expired runs failed", zap.Error(err))
			} else {
				start -= int64(len(stale))
			}
		}

		// A short window means the index is exhausted.
		if limit <= 0 || len(out) >= limit || len(ids) < want {
			return out, nil
		}
	}
}

// summaries fetches the stored summaries of ids. IDs whose hash has expired
// come back as stale.
func (s *RedisStore) summaries(ctx context.Context, ids []string) ([]models.RunSummary, []interface{}, error) {
	pipe := s.Client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGet(ctx, getRunKey(id), "summary")
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, nil, fmt.Errorf("failed to fetch run summaries: %w", err)
		}
	}

	out := make([]models.RunSummary, 0, len(ids))
	var stale []interface{}
	for i, cmd := range cmds {
		raw, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			stale = append(stale, ids[i])
			continue
		}
		if err != nil {
			s.logger.Warn("fetching run summary failed", zap.String("run", ids[i]), zap.Error(err))
			continue
		}
		var summary models.RunSummary
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			s.logger.Warn("decoding run summary failed", zap.String("run", ids[i]), zap.Error(err))
			continue
		}
		out = append(out, summary)
	}
	return out, stale, nil
}
