package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks the lifecycle of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// Valid reports whether the status is one of the known lifecycle values.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing,
		OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// Terminal reports whether the order can no longer change.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Label returns the human-readable Russian name of the status.
func (s OrderStatus) Label() string {
	switch s {
	case OrderPending:
		return "Ожидает подтверждения"
	case OrderConfirmed:
		return "Подтверждён"
	case OrderProcessing:
		return "Готовится"
	case OrderShipped:
		return "В доставке"
	case OrderDelivered:
		return "Доставлен"
	case OrderCancelled:
		return "Отменён"
	case OrderRefunded:
		return "Возврат"
	}
	return string(s)
}

// PaymentStatus tracks payment state separately from delivery state.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Label returns the human-readable Russian name of the payment status.
func (s PaymentStatus) Label() string {
	switch s {
	case PaymentPending:
		return "ожидает оплаты"
	case PaymentPaid:
		return "оплачен"
	case PaymentFailed:
		return "ошибка оплаты"
	case PaymentRefunded:
		return "возврат средств"
	}
	return string(s)
}

// PaymentMethod is how the customer chose to pay.
type PaymentMethod string

const (
	PayCard     PaymentMethod = "card"
	PayCash     PaymentMethod = "cash"
	PayTransfer PaymentMethod = "transfer"
)

// Label returns the human-readable Russian name of the payment method.
func (m PaymentMethod) Label() string {
	switch m {
	case PayCard:
		return "Картой"
	case PayCash:
		return "Наличными при получении"
	case PayTransfer:
		return "Переводом"
	}
	return string(m)
}

// Order is a placed order with contact data and money totals frozen at
// checkout time.
type Order struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	OrderNumber   string          `db:"order_number" json:"order_number"`
	Status        OrderStatus     `db:"status" json:"status"`
	PaymentStatus PaymentStatus   `db:"payment_status" json:"payment_status"`
	PaymentMethod sql.NullString  `db:"payment_method" json:"payment_method"`
	Phone         string          `db:"phone" json:"phone"`
	Address       string          `db:"address" json:"address"`
	DeliveryNotes sql.NullString  `db:"delivery_notes" json:"delivery_notes"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	DeliveryCost  decimal.Decimal `db:"delivery_cost" json:"delivery_cost"`
	Total         decimal.Decimal `db:"total" json:"total"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is a frozen snapshot of a product position inside an order.
type OrderItem struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"order_id"`
	ProductID   sql.NullInt64   `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Unit        string          `db:"unit" json:"unit"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Total       decimal.Decimal `db:"total" json:"total"`
}

// OrderStats aggregates order counters for the admin dashboard.
type OrderStats struct {
	ByStatus     map[OrderStatus]int
	TotalOrders  int
	Revenue      decimal.Decimal
	AverageTotal decimal.Decimal
}
