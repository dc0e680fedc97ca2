package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boxoffice/internal/model"
)

type recordingMailer struct {
	sent []Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, m Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func sampleDelivery() model.TicketDelivery {
	return model.TicketDelivery{
		OrderID:   12,
		Email:     "ana@example.com",
		BuyerName: "Ana <Admin>",
		EventName: "Concierte",
		Place:     "Teatro",
		StartsAt:  time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC),
		Tickets: []model.DeliveredTicket{
			{Token: "tok-a", SeatID: "A-1"},
			{Token: "tok-b", SeatID: "A-2"},
		},
	}
}

func TestComposeOneLinkPerTicket(t *testing.T) {
	n := NewTickets(&recordingMailer{}, "https://boletos.test/")
	msg, err := n.Compose(sampleDelivery())
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "order-12", msg.CustomID)
	assert.Contains(t, msg.Subject, "Concierte")
	assert.Contains(t, msg.Text, "Butaca A-1: https://boletos.test/ticket/tok-a")
	assert.Contains(t, msg.Text, "Butaca A-2: https://boletos.test/ticket/tok-b")
	assert.Contains(t, msg.HTML, `href="https://boletos.test/ticket/tok-b"`)
	// buyer name is escaped
	assert.Contains(t, msg.HTML, "Ana &lt;Admin&gt;")
}

func TestNotifyTicketsSends(t *testing.T) {
	m := &recordingMailer{}
	n := NewTickets(m, "https://boletos.test")
	require.NoError(t, n.NotifyTickets(context.Background(), sampleDelivery()))
	require.Len(t, m.sent, 1)

	m.err = errors.New("down")
	assert.Error(t, n.NotifyTickets(context.Background(), sampleDelivery()))
}

func TestComposeRequiresEmail(t *testing.T) {
	d := sampleDelivery()
	d.Email = ""
	_, err := NewTickets(&recordingMailer{}, "x").Compose(d)
	assert.Error(t, err)
}
