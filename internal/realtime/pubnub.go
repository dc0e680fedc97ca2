// Package realtime pushes seat map changes to browsers through PubNub so an
// open seat map greys out seats as they are taken.
package realtime

import (
	"context"
	"fmt"
	"time"

	pubnubgo "github.com/pubnub/go/v7"

	"github.com/iliyamo/boxoffice/internal/config"
)

// SeatUpdate is the message published on an event channel.
type SeatUpdate struct {
	Type    string   `json:"type"`
	EventID string   `json:"event_id"`
	Seats   []string `json:"seats"`
	Status  string   `json:"status"`
	At      int64    `json:"at"`
}

// Channel is the PubNub channel of an event.
func Channel(eventID string) string { return "event-" + eventID }

// PubNub publishes seat updates.
type PubNub struct {
	pn *pubnubgo.PubNub
}

// NewPubNub builds a publisher from the configured keys.  It returns an
// error when the publish or subscribe key is missing.
func NewPubNub(cfg config.PubNubConfig) (*PubNub, error) {
	if cfg.PublishKey == "" || cfg.SubscribeKey == "" {
		return nil, fmt.Errorf("realtime: pubnub keys are not configured")
	}
	userID := cfg.UserID
	if userID == "" {
		userID = "boxoffice-server"
	}
	pnCfg := pubnubgo.NewConfigWithUserId(pubnubgo.UserId(userID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	return &PubNub{pn: pubnubgo.NewPubNub(pnCfg)}, nil
}

// SeatsChanged publishes one update for the given seats.
func (p *PubNub) SeatsChanged(ctx context.Context, eventID string, seats []string, status string) error {
	msg := NewSeatUpdate(eventID, seats, status, time.Now())
	if _, _, err := p.pn.PublishWithContext(ctx).Channel(Channel(eventID)).Message(msg).Execute(); err != nil {
		return fmt.Errorf("realtime: publish %s: %w", Channel(eventID), err)
	}
	return nil
}

// NewSeatUpdate builds the published message.
func NewSeatUpdate(eventID string, seats []string, status string, at time.Time) SeatUpdate {
	return SeatUpdate{Type: "seats", EventID: eventID, Seats: seats, Status: status, At: at.UnixMilli()}
}
