package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, оплата ещё не запускалась.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaying — сток зарезервирован, оплата выполняется или ожидает callback шлюза.
	OrderStatusPaying OrderStatus = "paying"
	// OrderStatusConfirmed — оплата подтверждена, заказ финализирован.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusFailed — оплата не удалась, резервы возвращены.
	OrderStatusFailed OrderStatus = "failed"
)

// OrderItem представляет одну позицию заказа. Цена и название — снапшот на момент
// оформления: последующие изменения товара на позицию не влияют.
type OrderItem struct {
	ProductID   int64
	ProductName string
	Quantity    int64
	UnitPrice   int64
	CreatedAt   time.Time
}

// Subtotal возвращает стоимость позиции.
func (i OrderItem) Subtotal() int64 {
	return i.Quantity * i.UnitPrice
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID             string
	UserID         string
	Items          []OrderItem
	TotalAmount    int64
	DiscountAmount int64
	CouponID       *string
	Status         OrderStatus
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentAmount возвращает сумму к оплате после скидки. Инвариант: не меньше нуля.
func (o *Order) PaymentAmount() int64 {
	return o.TotalAmount - o.DiscountAmount
}

// StartPayment переводит заказ из pending в paying.
func (o *Order) StartPayment() error {
	if o.Status == OrderStatusPaying {
		return nil
	}
	if o.Status != OrderStatusPending {
		return ErrInvalidStateTransition
	}
	o.Status = OrderStatusPaying
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Confirm финализирует заказ. Повторный вызов на уже подтверждённом заказе — no-op.
func (o *Order) Confirm() error {
	if o.Status == OrderStatusConfirmed {
		return nil
	}
	if o.Status != OrderStatusPaying {
		return ErrInvalidStateTransition
	}
	o.Status = OrderStatusConfirmed
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail переводит заказ в failed. Повторный вызов на проваленном заказе — no-op.
func (o *Order) Fail() error {
	if o.Status == OrderStatusFailed {
		return nil
	}
	if o.Status != OrderStatusPaying {
		return ErrInvalidStateTransition
	}
	o.Status = OrderStatusFailed
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrOrderNotFound)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrEmptyOrder)
	}
	if o.DiscountAmount < 0 || o.DiscountAmount > o.TotalAmount {
		errs = append(errs, ErrAmountInvalid)
	}

	var calc int64
	for _, item := range o.Items {
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			errs = append(errs, ErrAmountInvalid)
		}
		calc += item.Subtotal()
	}
	if calc != o.TotalAmount {
		errs = append(errs, ErrAmountInvalid)
	}

	return errs
}
