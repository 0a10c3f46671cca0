// Package redisstore persists review items as JSON documents in Redis.
//
// Items are stored under review:<id>. Queued items are also indexed in the
// review:open sorted set, scored by enqueue time, so the queue can be rebuilt
// in FIFO order after a restart.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports"
)

const (
	keyPrefix = "review:"
	openKey   = "review:open"
)

// Store is a Redis-backed ports.ReviewStore.
type Store struct {
	client     redis.UniversalClient
	decidedTTL time.Duration
	logger     *zerolog.Logger
}

var (
	_ ports.ReviewStore = (*Store)(nil)
	_ ports.OpenLister  = (*Store)(nil)
)

// New creates a store over client. Decided items expire after decidedTTL; zero keeps them.
func New(client redis.UniversalClient, decidedTTL time.Duration, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Store{client: client, decidedTTL: decidedTTL, logger: logger}
}

// Connect opens a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, storageError("connect to redis", err)
	}

	return client, nil
}

func itemKey(id string) string { return keyPrefix + id }

// Get loads the review item with id.
func (s *Store) Get(ctx context.Context, id string) (domain.ReviewItem, error) {
	data, err := s.client.Get(ctx, itemKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ReviewItem{}, fmt.Errorf("get review item %s: %w", id, errors.ErrItemNotFound)
	}

	if err != nil {
		return domain.ReviewItem{}, storageError("get review item", err)
	}

	return decode(data)
}

// Save writes the item and updates the open index in one transaction.
func (s *Store) Save(ctx context.Context, item domain.ReviewItem) error {
	if item.ID == "" {
		return fmt.Errorf("%w: review item without id", errors.ErrInvalidInput)
	}

	data, err := json.Marshal(item)
	if err != nil {
		return storageError("encode review item", err)
	}

	ttl := time.Duration(0)
	if item.State.Decided() {
		ttl = s.decidedTTL
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, itemKey(item.ID), data, ttl)

		if item.State.Queued() {
			pipe.ZAdd(ctx, openKey, redis.Z{Score: float64(item.EnqueuedAt.UnixNano()), Member: item.ID})
		} else {
			pipe.ZRem(ctx, openKey, item.ID)
		}

		return nil
	})
	if err != nil {
		return storageError("save review item", err)
	}

	s.logger.Debug().Str("item_id", item.ID).Str("state", string(item.State)).Msg("review item saved")

	return nil
}

// Delete removes the item and its index entry. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, itemKey(id))
		pipe.ZRem(ctx, openKey, id)

		return nil
	})
	if err != nil {
		return storageError("delete review item", err)
	}

	return nil
}

// ListOpen returns queued items, oldest first. Index entries whose document is gone are
// pruned.
func (s *Store) ListOpen(ctx context.Context) ([]domain.ReviewItem, error) {
	ids, err := s.client.ZRange(ctx, openKey, 0, -1).Result()
	if err != nil {
		return nil, storageError("list open review items", err)
	}

	items := make([]domain.ReviewItem, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storageError("load open review items", err)
	}

	var stale []interface{}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])

			continue
		}

		item, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, openKey, stale...).Err(); err != nil {
			s.logger.Warn().Err(err).Int("count", len(stale)).Msg("failed to prune open review index")
		}
	}

	return items, nil
}

func decode(data []byte) (domain.ReviewItem, error) {
	var item domain.ReviewItem
	if err := json.Unmarshal(data, &item); err != nil {
		return domain.ReviewItem{}, storageError("decode review item", err)
	}

	return item, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(errors.ErrStorage, err))
}
