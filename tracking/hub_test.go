package tracking

import (
	"encoding/json"
	"testing"
	"time"

	"agrolink/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func recv(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestHubBroadcastReachesRoom(t *testing.T) {
	h := newTestHub(t)

	c1 := &Client{Send: make(chan []byte, 8), Room: RoomAllSuppliers}
	c2 := &Client{Send: make(chan []byte, 8), Room: RoomAllSuppliers}
	h.Register(c1)
	h.Register(c2)

	h.Broadcast(RoomAllSuppliers, []byte("hello"))

	assert.Equal(t, "hello", string(recv(t, c1.Send)))
	assert.Equal(t, "hello", string(recv(t, c2.Send)))
}

func TestHubRoomsAreIsolated(t *testing.T) {
	h := newTestHub(t)

	fleet := &Client{Send: make(chan []byte, 8), Room: RoomAllSuppliers}
	order := &Client{Send: make(chan []byte, 8), Room: RoomOrder("ord1")}
	h.Register(fleet)
	h.Register(order)

	h.Broadcast(RoomOrder("ord1"), []byte("for the order room"))

	assert.Equal(t, "for the order room", string(recv(t, order.Send)))
	select {
	case msg := <-fleet.Send:
		t.Fatalf("fleet client got message from another room: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	h := newTestHub(t)

	c := &Client{Send: make(chan []byte, 8), Room: RoomAllSuppliers}
	h.Register(c)
	h.Unregister(c)

	// Send channel is closed on unregister.
	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := newTestHub(t)

	slow := &Client{Send: make(chan []byte, 1), Room: RoomAllSuppliers}
	fast := &Client{Send: make(chan []byte, 8), Room: RoomAllSuppliers}
	h.Register(slow)
	h.Register(fast)

	// First message fills the slow client's buffer, the second evicts it.
	h.Broadcast(RoomAllSuppliers, []byte("one"))
	h.Broadcast(RoomAllSuppliers, []byte("two"))
	h.Broadcast(RoomAllSuppliers, []byte("three"))

	assert.Equal(t, "one", string(recv(t, fast.Send)))
	assert.Equal(t, "two", string(recv(t, fast.Send)))
	assert.Equal(t, "three", string(recv(t, fast.Send)))

	got := []string{string(recv(t, slow.Send))}
	for msg := range slow.Send {
		got = append(got, string(msg))
	}
	// The slow client saw a prefix before its channel was closed.
	assert.Less(t, len(got), 3)
	assert.Equal(t, "one", got[0])
}

// Registry events land in the fleet room, the supplier's own room, and the
// active order's room.
func TestRegistryBroadcastsThroughHub(t *testing.T) {
	h := newTestHub(t)
	r := NewRegistry(h, DefaultStalenessWindow)
	go r.Run()
	t.Cleanup(r.Stop)

	fleet := &Client{Send: make(chan []byte, 8), Room: RoomAllSuppliers}
	own := &Client{Send: make(chan []byte, 8), Room: RoomSupplier("sup1")}
	order := &Client{Send: make(chan []byte, 8), Room: RoomOrder("ord1")}
	h.Register(fleet)
	h.Register(own)
	h.Register(order)

	r.SetDelivery("sup1", "ord1", models.DeliveryInTransit)

	for _, ch := range []chan []byte{fleet.Send, own.Send, order.Send} {
		var evt map[string]interface{}
		require.NoError(t, json.Unmarshal(recv(t, ch), &evt))
		assert.Equal(t, eventDeliveryStatus, evt["type"])
		assert.Equal(t, "sup1", evt["supplierId"])
		assert.Equal(t, "ord1", evt["orderId"])
		assert.Equal(t, models.DeliveryInTransit, evt["status"])
	}

	r.Ingest("sup1", 10, 20, 0, 0, time.Now())

	var evt struct {
		Type     string                  `json:"type"`
		Supplier models.SupplierPresence `json:"supplier"`
	}
	require.NoError(t, json.Unmarshal(recv(t, order.Send), &evt))
	assert.Equal(t, eventLocationUpdate, evt.Type)
	assert.Equal(t, 10.0, evt.Supplier.Latitude)
	assert.Equal(t, "ord1", evt.Supplier.OrderID)
}
