package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// Dependencies содержит инфраструктурные зависимости приложения.
type Dependencies struct {
	Customers domain.CustomerRepository
	Products  domain.ProductRepository
	Orders    domain.OrderRepository

	// Postgres не nil только при StorageDriver=postgres.
	Postgres *postgres.Store
	// KafkaProducer не nil только при настроенных брокерах.
	KafkaProducer *kafka.Producer
}

// NewDependencies строит репозитории и внешние подключения по конфигурации.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{}

	switch cfg.StorageDriver {
	case StoragePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		deps.Postgres = store
		deps.Customers = postgres.NewCustomerRepository(store)
		deps.Products = postgres.NewProductRepository(store)
		deps.Orders = postgres.NewOrderRepository(store)
		logger.Info("postgres storage initialized")
	default:
		store := memory.NewStore()
		deps.Customers = memory.NewCustomerRepository(store)
		deps.Products = memory.NewProductRepository(store)
		deps.Orders = memory.NewOrderRepository(store)
		logger.Info("in-memory storage initialized")
	}

	// Kafka опциональна: ошибка инициализации не мешает запуску.
	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err == nil {
		deps.KafkaProducer = producer
	}

	return deps, nil
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close(logger *log.Entry) {
	closeKafka(d.KafkaProducer, logger)
	if d.Postgres != nil {
		if err := d.Postgres.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
