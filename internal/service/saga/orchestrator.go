// Package saga оркестрирует оформление заказа: резерв стока, оплату через
// стратегию, подтверждение и компенсацию с записью событий в outbox.
package saga

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/commerce/internal/metrics"
	"github.com/vladislavdragonenkov/commerce/internal/service/payment"
)

// ItemRequest — запрошенная позиция заказа.
type ItemRequest struct {
	ProductID int64
	Quantity  int64
}

// PaymentSpec — запрошенный способ оплаты с разбивкой суммы.
type PaymentSpec struct {
	Type        domain.PaymentType
	PointAmount int64
	CardAmount  int64
	Card        domain.CardDetails
}

// CreateOrderRequest — входные данные оформления заказа.
type CreateOrderRequest struct {
	UserID   string
	Items    []ItemRequest
	Payment  PaymentSpec
	CouponID *string
}

// Orchestrator описывает интерфейс пайплайна оформления заказа.
type Orchestrator interface {
	// CreateOrder проводит заказ через резерв, оплату и подтверждение.
	// Заказ, зависший в ожидании шлюза, возвращается в статусе paying без ошибки.
	CreateOrder(req CreateOrderRequest) (domain.Order, error)
	// HandleGatewayCallback применяет итоговый статус шлюза к платежу заказа.
	HandleGatewayCallback(orderID, txID string, status domain.GatewayStatus, reason string) error
	// ResolveByTransaction — вход для reconciliation: платёж ищется по
	// идентификатору транзакции шлюза.
	ResolveByTransaction(txID string, status domain.GatewayStatus, reason string) error
}

// orchestrator реализует последовательность шагов: Reserve → Pay → Confirm.
type orchestrator struct {
	orders   domain.OrderRepository
	payments domain.PaymentRepository
	stock    domain.StockLedger
	products domain.ProductReader
	coupons  domain.CouponService
	uow      domain.UnitOfWork
	registry *payment.Registry

	compensator *Compensator
	watch       func(txID string) // регистрация pending-транзакции в reconciler
	logger      *log.Entry
	metrics     *metrics.SagaMetrics
}

// Deps собирает зависимости оркестратора.
type Deps struct {
	Orders   domain.OrderRepository
	Payments domain.PaymentRepository
	Stock    domain.StockLedger
	Products domain.ProductReader
	Coupons  domain.CouponService
	Outbox   domain.OutboxRepository
	Registry *payment.Registry

	// UnitOfWork объединяет записи заказа, платежа и outbox в одну
	// транзакцию. При nil записи идут в репозитории напрямую.
	UnitOfWork domain.UnitOfWork

	// Watch опционально регистрирует транзакцию шлюза для reconciliation.
	Watch   func(txID string)
	Logger  *log.Entry
	Metrics *metrics.SagaMetrics
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(deps Deps) Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "saga")
	}
	uow := deps.UnitOfWork
	if uow == nil {
		uow = domain.NewPassthroughUnitOfWork(deps.Orders, deps.Payments, deps.Outbox)
	}
	return &orchestrator{
		orders:   deps.Orders,
		payments: deps.Payments,
		stock:    deps.Stock,
		products: deps.Products,
		coupons:  deps.Coupons,
		uow:      uow,
		registry: deps.Registry,
		compensator: NewCompensator(
			deps.Orders, deps.Payments, deps.Stock, deps.Outbox, uow, logger, deps.Metrics,
		),
		watch:   deps.Watch,
		logger:  logger,
		metrics: deps.Metrics,
	}
}

// CreateOrder оформляет заказ. До создания строк заказа все отказы откатываются
// освобождением резервов; после — через компенсацию.
func (o *orchestrator) CreateOrder(req CreateOrderRequest) (domain.Order, error) {
	start := time.Now()
	if o.metrics != nil {
		o.metrics.RecordOrderStarted()
	}
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordOrderDuration(time.Since(start))
			o.metrics.RecordOrderFinished()
		}
	}()

	if len(req.Items) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}

	strategy, err := o.registry.Resolve(req.Payment.Type)
	if err != nil {
		return domain.Order{}, err
	}

	items, err := o.snapshotItems(req.Items)
	if err != nil {
		return domain.Order{}, err
	}

	depleted, err := o.reserveAll(items)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordOrderFailed()
		}
		return domain.Order{}, err
	}

	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}

	discount, err := o.applyCoupon(req.UserID, req.CouponID, total)
	if err != nil {
		o.releaseAll(items)
		if o.metrics != nil {
			o.metrics.RecordOrderFailed()
		}
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		Items:          items,
		TotalAmount:    total,
		DiscountAmount: discount,
		CouponID:       req.CouponID,
		Status:         domain.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	payable := order.PaymentAmount()

	// Полностью покрытый скидкой заказ подтверждается без платежа.
	if payable == 0 {
		if err := order.StartPayment(); err != nil {
			o.releaseAll(items)
			return domain.Order{}, err
		}
		if err := order.Confirm(); err != nil {
			o.releaseAll(items)
			return domain.Order{}, err
		}
		err := o.uow.Within(func(scope domain.TxScope) error {
			if err := scope.Orders.Create(order); err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			if err := o.emitDepleted(scope.Outbox, depleted); err != nil {
				return err
			}
			return o.emitConfirmed(scope.Outbox, &order)
		})
		if err != nil {
			o.releaseAll(items)
			if o.metrics != nil {
				o.metrics.RecordOrderFailed()
			}
			return domain.Order{}, err
		}
		if o.metrics != nil {
			o.metrics.RecordOrderConfirmed()
		}
		o.logger.WithField("order_id", order.ID).Info("order confirmed without payment")
		return order, nil
	}

	pc := o.paymentContext(&order, req.Payment, payable)
	if err := strategy.Validate(pc); err != nil {
		o.releaseAll(items)
		if o.metrics != nil {
			o.metrics.RecordOrderFailed()
		}
		return domain.Order{}, err
	}

	if err := order.StartPayment(); err != nil {
		o.releaseAll(items)
		return domain.Order{}, err
	}

	pay := domain.Payment{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		UserID:    req.UserID,
		Amount:    payable,
		Type:      req.Payment.Type,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Заказ, платёж и события об исчерпании стока фиксируются атомарно:
	// при откате ни одной строки не остаётся и резервы просто возвращаются.
	err = o.uow.Within(func(scope domain.TxScope) error {
		if err := scope.Orders.Create(order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := scope.Payments.Create(pay); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return o.emitDepleted(scope.Outbox, depleted)
	})
	if err != nil {
		o.releaseAll(items)
		if o.metrics != nil {
			o.metrics.RecordOrderFailed()
		}
		return domain.Order{}, err
	}

	res, err := strategy.Execute(pc)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", order.ID).Error("payment execution failed")
		o.compensator.Compensate(order.ID, err.Error())
		return domain.Order{}, fmt.Errorf("execute payment: %w", err)
	}

	switch res.Outcome {
	case payment.OutcomeApproved:
		if err := o.confirmOrder(&order, &pay, res.GatewayTransactionID); err != nil {
			return domain.Order{}, err
		}
		return order, nil

	case payment.OutcomeDeclined:
		o.compensator.Compensate(order.ID, res.FailureReason)
		order, _ = o.reload(order.ID)
		if res.Cause != nil {
			return order, fmt.Errorf("payment declined: %w", res.Cause)
		}
		return order, fmt.Errorf("payment declined: %s", res.FailureReason)

	default: // OutcomePending
		if res.GatewayTransactionID != "" {
			if err := pay.SetGatewayTransactionID(res.GatewayTransactionID); err == nil {
				if saveErr := o.payments.Save(pay); saveErr != nil {
					o.logger.WithError(saveErr).WithField("order_id", order.ID).Error("failed to persist gateway transaction id")
				}
			}
			if o.watch != nil {
				o.watch(res.GatewayTransactionID)
			}
		}
		if o.metrics != nil {
			o.metrics.RecordPaymentPending()
		}
		o.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"tx_id":    res.GatewayTransactionID,
		}).Info("order awaiting gateway resolution")
		return order, nil
	}
}

// snapshotItems снимает снапшот имени и цены и сортирует позиции по
// возрастанию productID — глобальный порядок захвата блокировок стока.
func (o *orchestrator) snapshotItems(reqs []ItemRequest) ([]domain.OrderItem, error) {
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, domain.ErrAmountInvalid
		}
		ids = append(ids, r.ProductID)
	}

	products, err := o.products.FindAllByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	now := time.Now().UTC()
	items := make([]domain.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		p, ok := products[r.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", r.ProductID, domain.ErrProductNotFound)
		}
		items = append(items, domain.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    r.Quantity,
			UnitPrice:   p.Price,
			CreatedAt:   now,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

// reserveAll резервирует позиции по возрастанию productID; при отказе уже
// взятые резервы возвращаются в обратном порядке. Возвращает товары, чей
// остаток обнулился.
func (o *orchestrator) reserveAll(items []domain.OrderItem) ([]int64, error) {
	var depleted []int64
	for i, item := range items {
		remaining, err := o.stock.Reserve(item.ProductID, item.Quantity)
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				if relErr := o.stock.Release(items[j].ProductID, items[j].Quantity); relErr != nil {
					o.logger.WithError(relErr).WithField("product_id", items[j].ProductID).Error("failed to release reservation during rollback")
				}
			}
			return nil, fmt.Errorf("reserve product %d: %w", item.ProductID, err)
		}
		if remaining == 0 {
			depleted = append(depleted, item.ProductID)
		}
	}
	return depleted, nil
}

// releaseAll возвращает резервы всех позиций по убыванию productID.
func (o *orchestrator) releaseAll(items []domain.OrderItem) {
	for i := len(items) - 1; i >= 0; i-- {
		if err := o.stock.Release(items[i].ProductID, items[i].Quantity); err != nil {
			o.logger.WithError(err).WithField("product_id", items[i].ProductID).Error("failed to release reservation")
		}
	}
}

// applyCoupon валидирует и гасит купон. Скидка не превышает сумму заказа.
func (o *orchestrator) applyCoupon(userID string, couponID *string, total int64) (int64, error) {
	if couponID == nil || *couponID == "" {
		return 0, nil
	}
	discount, err := o.coupons.ValidateAndUse(userID, *couponID, total)
	if err != nil {
		return 0, fmt.Errorf("coupon %s: %w", *couponID, domain.ErrCouponRejected)
	}
	if discount < 0 {
		discount = 0
	}
	if discount > total {
		discount = total
	}
	return discount, nil
}

func (o *orchestrator) paymentContext(order *domain.Order, spec PaymentSpec, payable int64) payment.Context {
	pc := payment.Context{
		UserID:      order.UserID,
		OrderID:     order.ID,
		TotalAmount: payable,
		PointAmount: spec.PointAmount,
		CardAmount:  spec.CardAmount,
		Card:        spec.Card,
	}
	// Для одноногих типов разбивка следует из суммы к оплате.
	switch spec.Type {
	case domain.PaymentTypePointOnly:
		pc.PointAmount = payable
		pc.CardAmount = 0
	case domain.PaymentTypeCardOnly:
		pc.CardAmount = payable
		pc.PointAmount = 0
	}
	return pc
}

// confirmOrder завершает успешную оплату: платёж success, заказ confirmed и
// события пишутся одной транзакцией unit of work.
func (o *orchestrator) confirmOrder(order *domain.Order, pay *domain.Payment, txID string) error {
	if err := pay.SetGatewayTransactionID(txID); err != nil {
		return err
	}
	if err := pay.MarkSuccess(); err != nil {
		return err
	}
	if err := order.Confirm(); err != nil {
		return err
	}

	err := o.uow.Within(func(scope domain.TxScope) error {
		if err := scope.Payments.Save(*pay); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		if err := o.saveOrder(scope.Orders, order); err != nil {
			return err
		}
		return o.emitConfirmed(scope.Outbox, order)
	})
	if err != nil {
		return err
	}

	if o.metrics != nil {
		o.metrics.RecordOrderConfirmed()
	}
	o.logger.WithField("order_id", order.ID).Info("order confirmed")
	return nil
}

// HandleGatewayCallback применяет callback шлюза к платежу заказа.
func (o *orchestrator) HandleGatewayCallback(orderID, txID string, status domain.GatewayStatus, reason string) error {
	if o.metrics != nil {
		o.metrics.RecordGatewayCallback(string(status))
	}

	pay, err := o.payments.GetByOrder(orderID)
	if err != nil {
		return fmt.Errorf("load payment for order %s: %w", orderID, err)
	}
	return o.applyGatewayOutcome(pay, txID, status, reason)
}

// ResolveByTransaction применяет итог шлюза, найденный reconciliation.
func (o *orchestrator) ResolveByTransaction(txID string, status domain.GatewayStatus, reason string) error {
	pay, err := o.payments.GetByGatewayTransaction(txID)
	if err != nil {
		return fmt.Errorf("load payment for transaction %s: %w", txID, err)
	}
	return o.applyGatewayOutcome(pay, txID, status, reason)
}

func (o *orchestrator) applyGatewayOutcome(pay domain.Payment, txID string, status domain.GatewayStatus, reason string) error {
	// Привязка транзакции выставляется один раз; другой txID отклоняется.
	if err := pay.SetGatewayTransactionID(txID); err != nil {
		return err
	}

	switch status {
	case domain.GatewayStatusSuccess:
		if pay.Status == domain.PaymentStatusSuccess {
			return nil
		}
		order, err := o.orders.Get(pay.OrderID)
		if err != nil {
			return fmt.Errorf("load order %s: %w", pay.OrderID, err)
		}
		return o.confirmOrder(&order, &pay, txID)

	case domain.GatewayStatusFailed:
		if pay.Status == domain.PaymentStatusFailed {
			return nil
		}
		if err := o.payments.Save(pay); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		o.compensator.Compensate(pay.OrderID, reason)
		return nil

	default:
		o.logger.WithFields(log.Fields{
			"order_id": pay.OrderID,
			"tx_id":    txID,
			"status":   status,
		}).Info("gateway callback without final status, ignoring")
		return nil
	}
}

// saveOrder сохраняет заказ с retry по version conflict.
func (o *orchestrator) saveOrder(orders domain.OrderRepository, order *domain.Order) error {
	const maxRetries = 3
	const baseDelay = 10 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := orders.Save(*order)
		if err == nil {
			order.Version++
			return nil
		}
		if !domain.IsVersionConflict(err) || attempt == maxRetries-1 {
			return fmt.Errorf("save order %s: %w", order.ID, err)
		}

		o.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"attempt":  attempt + 1,
		}).Warn("order version conflict, retrying")

		fresh, loadErr := orders.Get(order.ID)
		if loadErr != nil {
			return fmt.Errorf("reload order after conflict: %w", loadErr)
		}
		status := order.Status
		*order = fresh
		switch status {
		case domain.OrderStatusConfirmed:
			if err := order.Confirm(); err != nil {
				return err
			}
		case domain.OrderStatusFailed:
			if err := order.Fail(); err != nil {
				return err
			}
		}
		time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
	}
	return domain.ErrOrderVersionConflict
}

func (o *orchestrator) reload(orderID string) (domain.Order, error) {
	order, err := o.orders.Get(orderID)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", orderID).Warn("failed to reload order")
	}
	return order, err
}

// emitConfirmed кладёт OrderCompleted и, при наличии купона, CouponUsed в outbox.
func (o *orchestrator) emitConfirmed(outbox domain.OutboxRepository, order *domain.Order) error {
	completedItems := make([]domain.OrderCompletedItem, 0, len(order.Items))
	for _, item := range order.Items {
		completedItems = append(completedItems, domain.OrderCompletedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	err := o.enqueue(outbox, kafka.TopicOrderEvents, "order", order.ID, domain.EventTypeOrderCompleted, domain.OrderCompletedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       completedItems,
		CompletedAt: order.UpdatedAt,
	})
	if err != nil {
		return err
	}

	if order.CouponID != nil && *order.CouponID != "" {
		return o.enqueue(outbox, kafka.TopicOrderEvents, "order", order.ID, domain.EventTypeCouponUsed, domain.CouponUsedEvent{
			OrderID:        order.ID,
			UserID:         order.UserID,
			CouponID:       *order.CouponID,
			DiscountAmount: order.DiscountAmount,
		})
	}
	return nil
}

// emitDepleted кладёт StockDepleted для товаров, чей остаток обнулился.
func (o *orchestrator) emitDepleted(outbox domain.OutboxRepository, productIDs []int64) error {
	for _, id := range productIDs {
		err := o.enqueue(outbox, kafka.TopicStockDepleted, "product", fmt.Sprintf("%d", id), domain.EventTypeStockDepleted, domain.StockDepletedEvent{
			ProductID:  id,
			DepletedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *orchestrator) enqueue(outbox domain.OutboxRepository, topic, aggregateType, aggregateID, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	msg := domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       data,
	}
	if _, err := outbox.Enqueue(msg); err != nil {
		return fmt.Errorf("enqueue %s event: %w", eventType, err)
	}
	if o.metrics != nil {
		o.metrics.RecordOutboxEvent()
	}
	return nil
}

var _ Orchestrator = (*orchestrator)(nil)
