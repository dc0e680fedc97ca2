package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boxoffice/internal/config"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "event-42", Channel("42"))
}

func TestSeatUpdateJSON(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	b, err := json.Marshal(NewSeatUpdate("ev1", []string{"A-1", "A-2"}, "sold", at))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"seats","event_id":"ev1","seats":["A-1","A-2"],"status":"sold","at":1700000000000}`, string(b))
}

func TestNewPubNubRequiresKeys(t *testing.T) {
	_, err := NewPubNub(config.PubNubConfig{PublishKey: "pub"})
	assert.Error(t, err)

	p, err := NewPubNub(config.PubNubConfig{PublishKey: "pub-c-x", SubscribeKey: "sub-c-x"})
	require.NoError(t, err)
	assert.NotNil(t, p)
}
