package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"smartcity-air/internal/metrics"
	"smartcity-air/internal/models"
	"smartcity-air/internal/scenario"
)

// ErrNotFound ключ отсутствует или истек
var ErrNotFound = errors.New("cache: not found")

// Options сроки хранения
type Options struct {
	SnapshotTTL time.Duration
	ReportTTL   time.Duration
	AlertTTL    time.Duration
}

func (o Options) withDefaults() Options {
	if o.SnapshotTTL <= 0 {
		o.SnapshotTTL = time.Minute
	}
	if o.ReportTTL <= 0 {
		o.ReportTTL = 24 * time.Hour
	}
	if o.AlertTTL <= 0 {
		o.AlertTTL = 24 * time.Hour
	}
	return o
}

// RedisCache обертка для Redis клиента
type RedisCache struct {
	client *redis.Client
	opts   Options
	group  singleflight.Group
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

// NewRedisCache создает новый Redis кэш и проверяет подключение
func NewRedisCache(ctx context.Context, addr, password string, db int, opts Options) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &RedisCache{
		client: client,
		opts:   opts.withDefaults(),
		enc:    enc,
		dec:    dec,
	}, nil
}

func snapshotKey(seed string) string { return "snapshot:" + seed }

// GetSnapshot снимок по ключу сценария
func (r *RedisCache) GetSnapshot(ctx context.Context, seed string) (scenario.Snapshot, error) {
	var snap scenario.Snapshot
	raw, err := r.client.Get(ctx, snapshotKey(seed)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, ErrNotFound
	}
	if err != nil {
		return snap, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// StoreSnapshot сохраняет снимок на SnapshotTTL
func (r *RedisCache) StoreSnapshot(ctx context.Context, seed string, snap scenario.Snapshot) error {
	jsonData, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return r.client.Set(ctx, snapshotKey(seed), jsonData, r.opts.SnapshotTTL).Err()
}

// SnapshotOrCompute отдает снимок из кэша или вычисляет и сохраняет его.
// Одновременные запросы одного ключа вычисляются один раз. Ошибки Redis
// не мешают ответу: снимок всегда можно пересчитать.
func (r *RedisCache) SnapshotOrCompute(ctx context.Context, seed string, compute func() scenario.Snapshot) scenario.Snapshot {
	v, _, _ := r.group.Do(seed, func() (any, error) {
		snap, err := r.GetSnapshot(ctx, seed)
		if err == nil {
			metrics.SnapshotCache.WithLabelValues("hit").Inc()
			return snap, nil
		}
		if !errors.Is(err, ErrNotFound) {
			metrics.RedisOperations.WithLabelValues("get_snapshot", "error").Inc()
			slog.Warn("snapshot cache read failed", "key", seed, "error", err)
		}
		metrics.SnapshotCache.WithLabelValues("miss").Inc()

		snap = compute()
		err = r.StoreSnapshot(ctx, seed, snap)
		metrics.RedisOperations.WithLabelValues("store_snapshot", metrics.Status(err)).Inc()
		if err != nil {
			slog.Warn("snapshot cache write failed", "key", seed, "error", err)
		}
		return snap, nil
	})
	return v.(scenario.Snapshot)
}

func alertListKey(zone string) string { return "alerts:" + zone }

// StoreAlert сохраняет оповещение и добавляет его в ленты зоны и общую
func (r *RedisCache) StoreAlert(ctx context.Context, zone string, at time.Time, alert models.Alert) error {
	key := "alert:" + alert.ID

	jsonData, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	score := float64(at.UnixMilli())
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, jsonData, r.opts.AlertTTL)
	for _, list := range []string{alertListKey(zone), alertListKey(scenario.ZoneAll)} {
		pipe.ZAdd(ctx, list, redis.Z{Score: score, Member: key})
		pipe.Expire(ctx, list, r.opts.AlertTTL)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// RecentAlerts последние оповещения зоны, новые первыми
func (r *RedisCache) RecentAlerts(ctx context.Context, zone string, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		return nil, nil
	}
	if zone == "" {
		zone = scenario.ZoneAll
	}

	keys, err := r.client.ZRevRange(ctx, alertListKey(zone), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}

	alerts := make([]models.Alert, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// запись истекла раньше ленты
			continue
		}
		var a models.Alert
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// IncrementCounter увеличивает счетчик
func (r *RedisCache) IncrementCounter(ctx context.Context, key string) error {
	return r.client.Incr(ctx, "counter:"+key).Err()
}

// GetCounter получает значение счетчика
func (r *RedisCache) GetCounter(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Get(ctx, "counter:"+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	r.enc.Close()
	r.dec.Close()
	return r.client.Close()
}

// Ping проверяет доступность Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetStats возвращает статистику пула соединений
func (r *RedisCache) GetStats() map[string]any {
	stats := r.client.PoolStats()

	return map[string]any{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
