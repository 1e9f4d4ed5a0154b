// Package cache guarda en Redis los reportes de dashboard ya calculados.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/ports"
)

var _ ports.ReportCache = (*ReportCache)(nil)

const keyPrefix = "crm:"

// NewClient conecta a Redis a partir de una URL redis://.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: url inválida: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// ReportCache implementa ports.ReportCache serializando el reporte como JSON.
type ReportCache struct {
	rdb *redis.Client
}

// NewReportCache construye la caché sobre un cliente ya conectado.
func NewReportCache(rdb *redis.Client) *ReportCache {
	return &ReportCache{rdb: rdb}
}

// Get devuelve (nil, false, nil) si la clave no existe o expiró.
func (c *ReportCache) Get(ctx context.Context, key string) (*dto.DashboardDTO, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var report dto.DashboardDTO
	if err := json.Unmarshal(raw, &report); err != nil {
		// entrada corrupta: se trata como miss y se descarta
		_ = c.rdb.Del(ctx, keyPrefix+key).Err()
		return nil, false, nil
	}
	return &report, true, nil
}

// Set guarda el reporte con expiración ttl.
func (c *ReportCache) Set(ctx context.Context, key string, report *dto.DashboardDTO, ttl time.Duration) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate borra las claves con el prefijo. SCAN en lotes para no bloquear Redis con KEYS.
func (c *ReportCache) Invalidate(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+prefix+"*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", prefix, err)
	}
	return nil
}
