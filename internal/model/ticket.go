package model

import "time"

// Ticket is a single-use credential bound to one seat.  Only Used/UsedAt
// ever change after creation.
type Ticket struct {
	Token     string     `json:"token"`
	EventID   string     `json:"event_id"`
	SeatID    string     `json:"seat_id"`
	OrderID   *uint64    `json:"order_id,omitempty"` // nil for legacy manual tickets
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TicketDelivery is everything needed to email a set of tickets.  It is
// handed from the issuer to a notifier and may travel over the message
// broker, so it carries plain data only.
type TicketDelivery struct {
	OrderID   uint64            `json:"order_id"`
	Email     string            `json:"email"`
	BuyerName string            `json:"buyer_name,omitempty"`
	EventID   string            `json:"event_id"`
	EventName string            `json:"event_name"`
	Place     string            `json:"place,omitempty"`
	StartsAt  time.Time         `json:"starts_at"`
	Tickets   []DeliveredTicket `json:"tickets"`
}

// DeliveredTicket is one line of a delivery.
type DeliveredTicket struct {
	Token  string `json:"token"`
	SeatID string `json:"seat_id"`
}
