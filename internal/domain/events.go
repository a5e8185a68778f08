package domain

import "time"

// Типы доменных событий, проходящих через transactional outbox.
const (
	EventTypeOrderCompleted = "OrderCompleted"
	EventTypeCouponUsed     = "CouponUsed"
	EventTypePaymentFailed  = "PaymentFailed"
	EventTypeStockDepleted  = "StockDepleted"
	EventTypeProductLiked   = "ProductLiked"
	EventTypeProductUnliked = "ProductUnliked"
	EventTypeProductViewed  = "ProductViewed"
)

// OrderCompletedEvent публикуется после подтверждения заказа и несёт данные
// для обновления счётчиков и рейтинга.
type OrderCompletedEvent struct {
	OrderID     string               `json:"order_id"`
	UserID      string               `json:"user_id"`
	TotalAmount int64                `json:"total_amount"`
	Items       []OrderCompletedItem `json:"items"`
	CompletedAt time.Time            `json:"completed_at"`
}

// OrderCompletedItem — позиция в событии завершения заказа.
type OrderCompletedItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// CouponUsedEvent публикуется, когда к заказу применён купон.
type CouponUsedEvent struct {
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id"`
	CouponID       string `json:"coupon_id"`
	DiscountAmount int64  `json:"discount_amount"`
}

// PaymentFailedEvent публикуется после компенсации неудавшегося платежа.
type PaymentFailedEvent struct {
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

// StockDepletedEvent публикуется, когда резерв обнулил остаток товара.
type StockDepletedEvent struct {
	ProductID  int64     `json:"product_id"`
	DepletedAt time.Time `json:"depleted_at"`
}

// ProductLikedEvent несёт лайк или его отмену. Liked=false означает unlike.
// OccurredAt используется потребителем для last-writer-wins упорядочивания.
type ProductLikedEvent struct {
	ProductID  int64     `json:"product_id"`
	UserID     string    `json:"user_id"`
	Liked      bool      `json:"liked"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ProductViewedEvent — батч просмотров товара, накопленный на стороне продюсера.
type ProductViewedEvent struct {
	ProductID int64     `json:"product_id"`
	ViewCount int64     `json:"view_count"`
	ViewedAt  time.Time `json:"viewed_at"`
}
