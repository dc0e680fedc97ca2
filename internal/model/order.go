package model

import "time"

// OrderStatus is the lifecycle state of an order.  PENDING orders hold their
// seats until ExpiresAt; PAID is terminal; EXPIRED and CANCELLED orders have
// released their seats but are kept as an audit trail.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderExpired   OrderStatus = "EXPIRED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// OrderSource records how the order was created.
type OrderSource string

const (
	SourceCheckout OrderSource = "CHECKOUT" // hosted checkout by a buyer
	SourceManual   OrderSource = "MANUAL"   // cash sale recorded by staff
)

// Order is a buyer's attempt to purchase one or more seats for one event.
//
// Fields:
//  ID         – orders.id
//  EventID    – event the seats belong to.
//  BuyerEmail – where tickets are delivered.
//  BuyerName  – optional display name.
//  SessionRef – payment session reference; empty until attached.
//  Source     – CHECKOUT or MANUAL.
//  Status     – see OrderStatus.
//  Paid       – flipped once by the payment completion signal.
//  TotalCents – sum of the seat prices at reservation time.
//  ExpiresAt  – end of the reservation window (nil for manual orders).
//  PaidAt     – when Paid flipped.
//  CreatedAt  – creation timestamp.
type Order struct {
	ID         uint64      `json:"id"`
	EventID    string      `json:"event_id"`
	BuyerEmail string      `json:"buyer_email"`
	BuyerName  string      `json:"buyer_name,omitempty"`
	SessionRef string      `json:"session_ref,omitempty"`
	Source     OrderSource `json:"source"`
	Status     OrderStatus `json:"status"`
	Paid       bool        `json:"paid"`
	TotalCents int64       `json:"total_cents"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
	PaidAt     *time.Time  `json:"paid_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// OrderSeat links an order to one seat.  At most one OrderSeat exists per
// (EventID, SeatID); that row is the reservation.
type OrderSeat struct {
	OrderID    uint64 `json:"order_id"`
	EventID    string `json:"event_id"`
	SeatID     string `json:"seat_id"`
	PriceCents int64  `json:"price_cents"`
}
