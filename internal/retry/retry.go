package retry

import (
	"context"
	"errors"
	"time"

	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     uint64
}

var DefaultConfig = Config{
	InitialInterval: time.Second,
	MaxInterval:     5 * time.Second,
	MaxAttempts:     3,
}

// NoRetryConfig используется в тестах и там, где повтор недопустим.
var NoRetryConfig = Config{MaxAttempts: 0}

// IsRetriable — повторяем только временные ошибки соединения и сериализации.
func IsRetriable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func (cfg Config) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxAttempts), ctx)
}

func DoRetry(ctx context.Context, fn func() error, configs ...Config) error {
	_, err := DoRetryWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	}, configs...)
	return err
}

func DoRetryWithResult[T any](ctx context.Context, fn func() (T, error), configs ...Config) (T, error) {
	cfg := DefaultConfig
	if len(configs) > 0 {
		cfg = configs[0]
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsRetriable(err) {
			return result, backoff.Permanent(err)
		}
		logger.Log.Warn("retrying database operation", zap.Int("attempt", attempt), zap.Error(err))
		return result, err
	}

	result, err := backoff.RetryWithData(operation, cfg.policy(ctx))
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return result, permanent.Err
	}
	return result, err
}
