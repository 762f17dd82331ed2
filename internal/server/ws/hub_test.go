package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cennznet/cennzx-go/internal/core/assets"
	"github.com/cennznet/cennzx-go/internal/core/exchange"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubStreamsEvents(t *testing.T) {
	bus := exchange.NewBus()
	defer bus.Close()
	hub := NewHub(bus, nil)
	defer hub.Close()

	conn := dialTestHub(t, hub)

	// Subscription happens during the upgrade; give the handler a beat.
	time.Sleep(50 * time.Millisecond)

	bus.Publish(exchange.AssetSold{
		AssetSold:    16_001,
		AssetBought:  16_002,
		Trader:       assets.Address{7},
		SoldAmount:   100,
		BoughtAmount: 90,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string             `json:"event"`
		Data  exchange.AssetSold `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "AssetSold", msg.Event)
	assert.Equal(t, uint64(100), msg.Data.SoldAmount)
	assert.Equal(t, uint64(90), msg.Data.BoughtAmount)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	bus := exchange.NewBus()
	defer bus.Close()
	hub := NewHub(bus, nil)

	conn := dialTestHub(t, hub)
	time.Sleep(50 * time.Millisecond)

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
