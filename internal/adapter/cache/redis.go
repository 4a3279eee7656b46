package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

const generationKey = "stocks:generation"

var _ port.StockCache = (*RedisAdapter)(nil)

// RedisAdapter caches stock query results. Entries are namespaced by a
// generation counter; Invalidate bumps it so older entries are never read
// again and expire on their own.
type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and checks the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

type cachedStock struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	LastPrice decimal.Decimal `json:"last_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r *RedisAdapter) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func (r *RedisAdapter) entryKey(ctx context.Context, key string) (string, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("stocks:%d:%s", gen, key), nil
}

func (r *RedisAdapter) GetStocks(ctx context.Context, key string) ([]domain.Stock, bool, error) {
	entry, err := r.entryKey(ctx, key)
	if err != nil {
		return nil, false, err
	}

	data, err := r.client.Get(ctx, entry).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached stocks: %w", err)
	}

	var cached []cachedStock
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached stocks: %w", err)
	}
	stocks := make([]domain.Stock, len(cached))
	for i, c := range cached {
		stocks[i] = domain.Stock{Symbol: c.Symbol, Name: c.Name, LastPrice: c.LastPrice, UpdatedAt: c.UpdatedAt}
	}
	return stocks, true, nil
}

func (r *RedisAdapter) SetStocks(ctx context.Context, key string, stocks []domain.Stock) error {
	entry, err := r.entryKey(ctx, key)
	if err != nil {
		return err
	}

	cached := make([]cachedStock, len(stocks))
	for i, st := range stocks {
		cached[i] = cachedStock{Symbol: st.Symbol, Name: st.Name, LastPrice: st.LastPrice, UpdatedAt: st.UpdatedAt}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal stocks: %w", err)
	}

	if err := r.client.Set(ctx, entry, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache stocks: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Invalidate(ctx context.Context) error {
	if err := r.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

// Ping checks Redis connection health
func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
