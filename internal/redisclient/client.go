package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquireSyncLock takes the per-store lock so two passes for one
// credential never overlap. Returns false when a pass already holds it.
func (c *Client) AcquireSyncLock(ctx context.Context, storeID int64, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("sync:lock:%d", storeID), "1", ttl).Result()
}

// ReleaseSyncLock releases the per-store sync lock
func (c *Client) ReleaseSyncLock(ctx context.Context, storeID int64) error {
	return c.rdb.Del(ctx, fmt.Sprintf("sync:lock:%d", storeID)).Err()
}

// SyncStatus is the last observable outcome of a fire-and-forget pass.
type SyncStatus struct {
	Succeeded  bool                `json:"succeeded"`
	Message    string              `json:"message"`
	Summary    *models.SyncSummary `json:"summary,omitempty"`
	FinishedAt time.Time           `json:"finished_at"`
}

// SetSyncStatus caches the outcome of the latest pass for a store
func (c *Client) SetSyncStatus(ctx context.Context, storeID int64, status SyncStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal sync status: %w", err)
	}
	return c.rdb.Set(ctx, fmt.Sprintf("sync:last:%d", storeID), payload, 0).Err()
}

// GetSyncStatus retrieves the latest pass outcome for a store. Returns
// nil when no pass has run yet.
func (c *Client) GetSyncStatus(ctx context.Context, storeID int64) (*SyncStatus, error) {
	payload, err := c.rdb.Get(ctx, fmt.Sprintf("sync:last:%d", storeID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var status SyncStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync status: %w", err)
	}
	return &status, nil
}
