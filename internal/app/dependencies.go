package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/service/catalog"
	"github.com/vladislavdragonenkov/commerce/internal/service/coupon"
	"github.com/vladislavdragonenkov/commerce/internal/service/gateway"
	"github.com/vladislavdragonenkov/commerce/internal/storage/memory"
	"github.com/vladislavdragonenkov/commerce/internal/storage/postgres"
	"github.com/vladislavdragonenkov/commerce/internal/storage/redisrank"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Orders         domain.OrderRepository
	Payments       domain.PaymentRepository
	Stock          domain.StockLedger
	Balances       domain.BalanceLedger
	Outbox         domain.OutboxRepository
	UnitOfWork     domain.UnitOfWork
	Consumed       domain.ConsumedEventRepository
	Metrics        domain.MetricsRepository
	Ranking        domain.RankingStore
	PeriodRankings domain.PeriodRankingRepository
	Invalidator    domain.CacheInvalidator

	// NOTE: внешние сервисы заменяются реальными клиентами в production;
	// по умолчанию используются mock-реализации для demo-режима.
	Products   domain.ProductReader
	Coupons    domain.CouponService
	RawGateway domain.PaymentGateway

	Logger *log.Entry

	store *postgres.Store
	redis *redis.Client
}

// NewDependencies собирает зависимости по конфигурации: PostgreSQL и Redis
// подключаются при заданных DSN, иначе используются in-memory реализации.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Orders:         memory.NewOrderRepository(),
		Payments:       memory.NewPaymentRepository(),
		Outbox:         memory.NewOutboxRepository(),
		Consumed:       memory.NewConsumedEventRepository(),
		Metrics:        memory.NewMetricsRepository(),
		Ranking:        memory.NewRankingStore(),
		PeriodRankings: memory.NewPeriodRankingRepository(),
		Invalidator:    memory.NewCacheInvalidator(),
		Products:       demoCatalog(),
		Coupons:        coupon.NewMockService(),
		RawGateway:     gateway.NewMockGateway(),
		Logger:         logger,
	}

	stock := memory.NewStockLedger()
	balances := memory.NewBalanceLedger()
	deps.Stock = stock
	deps.Balances = balances

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}

		deps.store = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Payments = postgres.NewPaymentRepository(store)
		deps.Stock = postgres.NewStockLedger(store)
		deps.Balances = postgres.NewBalanceLedger(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.UnitOfWork = postgres.NewUnitOfWork(store)
		deps.Consumed = postgres.NewConsumedEventRepository(store)
		deps.Metrics = postgres.NewMetricsRepository(store)
		deps.PeriodRankings = postgres.NewPeriodRankingRepository(store)
		logger.Info("postgres storage initialized")
	} else {
		seedDemoData(stock, balances)
		logger.Info("using in-memory storage")
	}

	if deps.UnitOfWork == nil {
		deps.UnitOfWork = domain.NewPassthroughUnitOfWork(deps.Orders, deps.Payments, deps.Outbox)
	}

	if cfg.RedisAddr != "" {
		client, err := redisrank.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		deps.redis = client
		deps.Ranking = redisrank.NewRankingStore(client)
		deps.Invalidator = redisrank.NewCacheInvalidator(client)
		logger.WithField("addr", cfg.RedisAddr).Info("redis ranking store initialized")
	}

	return deps, nil
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres connection")
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis connection")
		}
	}
}

// Store возвращает postgres-подключение или nil в memory-режиме.
func (d *Dependencies) Store() *postgres.Store { return d.store }

// Redis возвращает redis-клиент или nil в memory-режиме.
func (d *Dependencies) Redis() *redis.Client { return d.redis }

func demoCatalog() *catalog.MockCatalog {
	return catalog.NewMockCatalog(
		domain.Product{ID: 1, Name: "mechanical keyboard", Price: 10000},
		domain.Product{ID: 2, Name: "4k monitor", Price: 20000},
		domain.Product{ID: 3, Name: "usb-c cable", Price: 1000},
	)
}

type stockSeeder interface {
	SetStock(productID, qty int64)
}

type balanceSeeder interface {
	SetBalance(userID string, amount int64)
}

func seedDemoData(stock stockSeeder, balances balanceSeeder) {
	stock.SetStock(1, 100)
	stock.SetStock(2, 50)
	stock.SetStock(3, 500)
	balances.SetBalance("demo-user", 100000)
}
