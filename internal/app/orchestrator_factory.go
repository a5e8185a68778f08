package app

import (
	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/metrics"
	"github.com/vladislavdragonenkov/commerce/internal/service/gateway"
	"github.com/vladislavdragonenkov/commerce/internal/service/payment"
	"github.com/vladislavdragonenkov/commerce/internal/service/saga"
)

// createOrchestrator собирает платёжный стек: resilient-обёртку над шлюзом,
// реестр стратегий, reconciler для зависших транзакций и saga orchestrator.
// Reconciler замыкается на оркестратор через позднее связывание: итоговый
// статус транзакции разрешается уже созданным оркестратором.
func createOrchestrator(deps *Dependencies, sagaMetrics *metrics.SagaMetrics) (saga.Orchestrator, *gateway.Reconciler) {
	logger := deps.Logger

	client := gateway.NewResilientClient(deps.RawGateway, logger.WithField("component", "gateway-client"))
	registry := payment.NewRegistry(deps.Balances, client, logger.WithField("component", "payment-registry"))

	var orchestrator saga.Orchestrator
	reconciler := gateway.NewReconciler(
		client,
		func(txID string, status domain.GatewayStatus, reason string) error {
			return orchestrator.ResolveByTransaction(txID, status, reason)
		},
		logger.WithField("component", "gateway-reconciler"),
	)

	orchestrator = saga.NewOrchestrator(saga.Deps{
		Orders:     deps.Orders,
		Payments:   deps.Payments,
		Stock:      deps.Stock,
		Products:   deps.Products,
		Coupons:    deps.Coupons,
		Outbox:     deps.Outbox,
		UnitOfWork: deps.UnitOfWork,
		Registry:   registry,
		Watch:      reconciler.Watch,
		Logger:     logger.WithField("component", "saga"),
		Metrics:    sagaMetrics,
	})

	return orchestrator, reconciler
}
