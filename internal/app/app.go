// Package app связывает хранилища, сервисы и импорт по конфигурации.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bessima/orderflow/internal/config"
	"github.com/Bessima/orderflow/internal/config/db"
	"github.com/Bessima/orderflow/internal/documents"
	"github.com/Bessima/orderflow/internal/handlers"
	"github.com/Bessima/orderflow/internal/importer"
	"github.com/Bessima/orderflow/internal/metrics"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/Bessima/orderflow/internal/notify"
	"github.com/Bessima/orderflow/internal/repository"
	"github.com/Bessima/orderflow/internal/risk"
	"github.com/Bessima/orderflow/internal/service"
	"github.com/Bessima/orderflow/internal/sessions"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	DB       *db.DB
	Metrics  *metrics.Metrics
	Orders   *service.OrderService
	Products *repository.ProductRepository
	Imports  *importer.Pipeline
	Auth     *handlers.AuthHandler

	closers []func() error
}

// Build открывает подключения и собирает сервисы. Kafka и Redis необязательны:
// без брокеров изменения не рассылаются, без Redis сессии импорта живут в памяти.
func Build(ctx context.Context, conf *config.Config) (*App, error) {
	if err := db.Migrate(conf.DatabaseDNS); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	database, err := db.NewDB(ctx, conf.DatabaseDNS)
	if err != nil {
		return nil, err
	}

	a := &App{DB: database, Metrics: metrics.New()}
	a.closers = append(a.closers, func() error {
		database.Close()
		return nil
	})

	store, err := a.sessionStore(ctx, conf)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	docs, err := documents.NewFileStore(conf.DocumentsDir)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var publisher service.ChangePublisher
	if brokers := conf.KafkaBrokerList(); len(brokers) > 0 {
		kafkaPublisher := notify.NewPublisher(brokers, conf.KafkaTopic)
		a.closers = append(a.closers, kafkaPublisher.Close)
		publisher = kafkaPublisher
		logger.Log.Info("Publishing order changes", zap.Strings("brokers", brokers), zap.String("topic", conf.KafkaTopic))
	}

	orderRepository := repository.NewOrderRepository(database)
	a.Products = repository.NewProductRepository(database)

	eventLog := service.NewEventLog(repository.NewEventRepository(database), publisher)
	rules := service.NewInvoiceRules(
		repository.NewInvoiceRepository(database),
		eventLog,
		docs,
		documents.Renderer{},
		a.Metrics,
	)
	a.Orders = service.NewOrderService(orderRepository, rules, eventLog, risk.Heuristic{}, a.Metrics)
	a.Imports = importer.NewPipeline(a.Products, orderRepository, a.Orders, store, a.Metrics, conf.ImportChunkSize)
	a.Auth = handlers.NewAuthHandler(&handlers.JWTConfig{SecretKey: conf.JWTSecret})

	return a, nil
}

func (a *App) sessionStore(ctx context.Context, conf *config.Config) (sessions.Store, error) {
	ttl := time.Duration(conf.ImportSessionTTLSeconds) * time.Second
	if conf.RedisAddress == "" {
		memory := sessions.NewMemoryStore(ttl)
		a.closers = append(a.closers, func() error {
			memory.Close()
			return nil
		})
		return memory, nil
	}

	client := rd.NewClient(&rd.Options{Addr: conf.RedisAddress})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	logger.Log.Info("Import sessions are stored in redis", zap.String("address", conf.RedisAddress))
	return sessions.NewRedisStore(client, ttl), nil
}

// Close закрывает подключения в обратном порядке.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
