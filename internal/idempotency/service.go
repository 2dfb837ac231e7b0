package idempotency

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"retailops/internal/config"
	"retailops/internal/constants"
	"retailops/internal/logger"
	"retailops/pkg/metrics"
	"retailops/pkg/tracing"
)

const (
	keyField   = "idempotency_key"
	defaultTTL = 24 * time.Hour
)

// Service claims idempotency keys for write requests. The first request with
// a given key and scope wins; later ones are reported as duplicates until the
// claim expires or is released.
type Service struct {
	repo   Repository
	hasher *Hasher
	cfg    config.IdempotencyConfig
	logger logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, cfg config.IdempotencyConfig, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Service{
		repo:   repo,
		hasher: NewHasher(cfg.HashAlgorithm),
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// Claim reports whether this is the first request carrying key within scope.
// An empty key or a disabled service always claims successfully.
func (s *Service) Claim(ctx context.Context, key string, scope map[string]interface{}) (bool, error) {
	ctx, span := tracing.Tracer(tracing.ScopeIdempotency).Start(ctx, "idempotency.claim")
	defer span.End()

	key = strings.TrimSpace(key)
	if s == nil || !s.cfg.Enabled || key == "" {
		metrics.ObserveIdempotencyCheck(0, "skipped")
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	redisKey, err := s.redisKey(key, scope)
	if err != nil {
		return false, err
	}

	start := time.Now()
	first, err := s.repo.SetNX(ctx, redisKey, s.now().Unix(), s.ttl())
	duration := time.Since(start)

	if err != nil {
		return s.handleRedisError(ctx, err, duration, key)
	}

	status := "duplicate"
	if first {
		status = "first"
	}
	metrics.ObserveIdempotencyCheck(duration, status)
	return first, nil
}

// Release drops a claim so the client may retry after a failed request.
func (s *Service) Release(ctx context.Context, key string, scope map[string]interface{}) {
	key = strings.TrimSpace(key)
	if s == nil || !s.cfg.Enabled || key == "" {
		return
	}

	redisKey, err := s.redisKey(key, scope)
	if err != nil {
		return
	}
	if err := s.repo.Delete(context.WithoutCancel(ctx), redisKey); err != nil {
		s.logger.WarnwCtx(ctx, "Failed to release idempotency key",
			"idempotency_key", key,
			"error", err,
		)
	}
}

func (s *Service) redisKey(key string, scope map[string]interface{}) (string, error) {
	values := make(map[string]interface{}, len(scope)+1)
	fields := make([]string, 0, len(scope))
	for field, value := range scope {
		values[field] = value
		fields = append(fields, field)
	}
	sort.Strings(fields)
	values[keyField] = key
	fields = append([]string{keyField}, fields...)

	hash, err := s.hasher.ComputeHash(values, fields)
	if err != nil {
		return "", fmt.Errorf("failed to compute hash for idempotency key %s: %w", key, err)
	}
	return constants.CacheKeyPrefixIdempotency + hash, nil
}

func (s *Service) ttl() time.Duration {
	if s.cfg.TTLSeconds <= 0 {
		return defaultTTL
	}
	return time.Duration(s.cfg.TTLSeconds) * time.Second
}

func (s *Service) handleRedisError(ctx context.Context, err error, duration time.Duration, key string) (bool, error) {
	metrics.ObserveIdempotencyCheck(duration, "error")

	if s.cfg.OnRedisError == constants.FallbackAllow {
		metrics.FallbackUsageTotal.WithLabelValues("idempotency", "allow_on_error", "redis").Inc()
		s.logger.WarnwCtx(ctx, "Redis error during idempotency check, allowing request (fallback: allow)",
			"idempotency_key", key,
			"error", err,
		)
		return true, nil
	}

	metrics.FallbackUsageTotal.WithLabelValues("idempotency", "deny_on_error", "redis").Inc()
	return false, fmt.Errorf("redis error during idempotency check for key %s: %w", key, err)
}
