package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// RedisStore persists state in Redis so status and alerts survive restarts.
// Keys mirror the mobile app's per-user storage layout.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func statusKey(userID string) string { return "plant_status:" + userID }
func alertsKey(userID string) string { return "notifications:" + userID }

func (r *RedisStore) PlantStatus(ctx context.Context, userID string) (model.PlantStatus, bool, error) {
	raw, err := r.client.Get(ctx, statusKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.PlantStatus{}, false, nil
	}
	if err != nil {
		return model.PlantStatus{}, false, fmt.Errorf("state: get status: %w", err)
	}
	var st model.PlantStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return model.PlantStatus{}, false, fmt.Errorf("state: decode status: %w", err)
	}
	return st, true, nil
}

func (r *RedisStore) SetPlantStatus(ctx context.Context, userID string, st model.PlantStatus) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("state: encode status: %w", err)
	}
	if err := r.client.Set(ctx, statusKey(userID), b, 0).Err(); err != nil {
		return fmt.Errorf("state: set status: %w", err)
	}
	return nil
}

func (r *RedisStore) Alerts(ctx context.Context, userID string) ([]model.AlertEvent, error) {
	raw, err := r.client.Get(ctx, alertsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: get alerts: %w", err)
	}
	var alerts []model.AlertEvent
	if err := json.Unmarshal(raw, &alerts); err != nil {
		return nil, fmt.Errorf("state: decode alerts: %w", err)
	}
	return alerts, nil
}

func (r *RedisStore) SetAlerts(ctx context.Context, userID string, alerts []model.AlertEvent) error {
	b, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("state: encode alerts: %w", err)
	}
	if err := r.client.Set(ctx, alertsKey(userID), b, 0).Err(); err != nil {
		return fmt.Errorf("state: set alerts: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, statusKey(userID), alertsKey(userID)).Err(); err != nil {
		return fmt.Errorf("state: clear: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error { return r.client.Close() }
