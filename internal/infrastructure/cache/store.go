package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/erp/inventory/internal/infrastructure/config"
)

type storeOptions struct {
	logger   *zap.Logger
	fallback bool
}

// StoreOption adjusts how the idempotency backend is selected.
type StoreOption func(*storeOptions)

// WithLogger routes selection and fallback messages through log.
func WithLogger(log *zap.Logger) StoreOption {
	return func(o *storeOptions) { o.logger = log }
}

// WithoutFallback makes an unreachable Redis a hard error instead of
// degrading to the in-memory store.
func WithoutFallback() StoreOption {
	return func(o *storeOptions) { o.fallback = false }
}

// NewIdempotencyStore selects the idempotency backend from cfg. An
// empty host means in-memory, fine for a single instance. When Redis
// is configured but cannot be reached the in-memory store is used
// instead, unless WithoutFallback was given. The degraded store only
// suppresses duplicates within this process.
func NewIdempotencyStore(cfg config.RedisConfig, opts ...StoreOption) (shared.IdempotencyStore, error) {
	o := storeOptions{logger: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Host == "" {
		o.logger.Info("Idempotency store: in-memory (no Redis host configured)")
		return NewMemoryStore(), nil
	}

	store, err := NewRedisStore(cfg)
	if err == nil {
		o.logger.Info("Idempotency store: Redis", zap.String("addr", cfg.RedisAddr()))
		return store, nil
	}
	if !o.fallback {
		return nil, fmt.Errorf("redis idempotency store: %w", err)
	}

	o.logger.Warn("Redis unreachable, using in-memory idempotency store. Duplicate suppression is limited to this instance.",
		zap.String("addr", cfg.RedisAddr()),
		zap.Error(err),
	)
	return NewMemoryStore(), nil
}
