package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"smartcity-air/internal/models"
)

func reportMetaKey(id string) string { return "report:" + id + ":meta" }
func reportBodyKey(id string) string { return "report:" + id + ":pdf" }

// StoreReport архивирует PDF (zstd) вместе с описанием на ReportTTL
func (r *RedisCache) StoreReport(ctx context.Context, info models.ReportInfo, pdf []byte) error {
	meta, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal report info: %w", err)
	}
	body := r.enc.EncodeAll(pdf, make([]byte, 0, len(pdf)/2))

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, reportMetaKey(info.ID), meta, r.opts.ReportTTL)
	pipe.Set(ctx, reportBodyKey(info.ID), body, r.opts.ReportTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}

// LoadReport описание и распакованный PDF
func (r *RedisCache) LoadReport(ctx context.Context, id string) (models.ReportInfo, []byte, error) {
	var info models.ReportInfo

	values, err := r.client.MGet(ctx, reportMetaKey(id), reportBodyKey(id)).Result()
	if err != nil {
		return info, nil, fmt.Errorf("failed to load report: %w", err)
	}
	meta, ok1 := values[0].(string)
	body, ok2 := values[1].(string)
	if !ok1 || !ok2 {
		return info, nil, ErrNotFound
	}

	if err := json.Unmarshal([]byte(meta), &info); err != nil {
		return info, nil, fmt.Errorf("failed to unmarshal report info: %w", err)
	}
	pdf, err := r.dec.DecodeAll([]byte(body), nil)
	if err != nil {
		return info, nil, fmt.Errorf("failed to decompress report: %w", err)
	}
	return info, pdf, nil
}

func settingsKey(user string) string { return "settings:" + user }

// SaveSettings настройки пользователя, без срока хранения
func (r *RedisCache) SaveSettings(ctx context.Context, user string, s models.Settings) error {
	jsonData, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return r.client.Set(ctx, settingsKey(user), jsonData, 0).Err()
}

// LoadSettings настройки пользователя или ErrNotFound
func (r *RedisCache) LoadSettings(ctx context.Context, user string) (models.Settings, error) {
	var s models.Settings
	raw, err := r.client.Get(ctx, settingsKey(user)).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("failed to get settings: %w", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}
