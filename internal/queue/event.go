// Package queue defines message payloads exchanged over the message broker
// and the publisher and consumer that carry them.
package queue

import "github.com/iliyamo/boxoffice/internal/model"

// TicketsIssuedQueue is the durable queue ticket deliveries travel on.
const TicketsIssuedQueue = "tickets.issued"

// TicketsIssuedEvent is published when tickets were minted for an order.
// It carries everything the mailer needs so the consumer never queries the
// primary database.
type TicketsIssuedEvent struct {
	model.TicketDelivery
	IssuedAt string `json:"issued_at"`
}
