package tracking

import (
	"sync"
	"testing"
	"time"

	"agrolink/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(nil, DefaultStalenessWindow)
	go r.Run()
	t.Cleanup(r.Stop)
	return r
}

func TestRegistryIngestAppearsInSnapshot(t *testing.T) {
	r := newTestRegistry(t)
	now := time.Now()

	r.Ingest("sup1", 12.97, 77.59, 180, 32.5, now)

	live := r.Snapshot(now)
	require.Len(t, live, 1)
	assert.Equal(t, "sup1", live[0].SupplierID)
	assert.Equal(t, 12.97, live[0].Latitude)
	assert.Equal(t, 77.59, live[0].Longitude)
	assert.True(t, live[0].IsActive)
}

func TestRegistryStaleEntriesExcluded(t *testing.T) {
	r := newTestRegistry(t)
	now := time.Now()

	r.Ingest("fresh", 1, 1, 0, 0, now.Add(-time.Minute))
	r.Ingest("stale", 2, 2, 0, 0, now.Add(-2*time.Hour))

	live := r.Snapshot(now)
	require.Len(t, live, 1)
	assert.Equal(t, "fresh", live[0].SupplierID)

	// A new ping revives a stale entry; nothing was purged.
	r.Ingest("stale", 2, 2, 0, 0, now)
	assert.Len(t, r.Snapshot(now), 2)
}

func TestRegistryPresenceOffHidesImmediately(t *testing.T) {
	r := newTestRegistry(t)
	now := time.Now()

	r.Ingest("sup1", 1, 1, 0, 0, now)
	r.SetPresence("sup1", false, now)

	assert.Empty(t, r.Snapshot(now))

	p, ok := r.Get("sup1")
	require.True(t, ok)
	assert.False(t, p.IsActive)

	// Pinging again puts the supplier back on duty.
	r.Ingest("sup1", 1, 1, 0, 0, now)
	assert.Len(t, r.Snapshot(now), 1)
}

func TestRegistryDeliveryOverlay(t *testing.T) {
	r := newTestRegistry(t)
	now := time.Now()

	r.Ingest("sup1", 1, 1, 0, 0, now)
	r.SetDelivery("sup1", "ord9", models.DeliveryInTransit)

	p, ok := r.Get("sup1")
	require.True(t, ok)
	assert.Equal(t, "ord9", p.OrderID)
	assert.Equal(t, models.DeliveryInTransit, p.DeliveryStatus)

	// Terminal status clears the overlay.
	r.SetDelivery("sup1", "ord9", models.DeliveryDelivered)
	p, _ = r.Get("sup1")
	assert.Empty(t, p.OrderID)
	assert.Empty(t, p.DeliveryStatus)
}

func TestRegistryOverlaySurvivesPings(t *testing.T) {
	r := newTestRegistry(t)
	now := time.Now()

	r.SetDelivery("sup1", "ord9", models.DeliveryPickedUp)
	r.Ingest("sup1", 5, 5, 90, 40, now)

	p, ok := r.Get("sup1")
	require.True(t, ok)
	assert.Equal(t, "ord9", p.OrderID)
	assert.Equal(t, models.DeliveryPickedUp, p.DeliveryStatus)
	assert.Equal(t, 5.0, p.Latitude)
}

func TestRegistryConcurrentPings(t *testing.T) {
	r := newTestRegistry(t)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				r.Ingest("sup1", float64(n), float64(j), 0, 0, now)
				r.Snapshot(now)
			}
		}(i)
	}
	wg.Wait()

	live := r.Snapshot(now)
	require.Len(t, live, 1)
	// Some writer's last ping won in full; lat/lon never tear.
	assert.Equal(t, "sup1", live[0].SupplierID)
	assert.True(t, live[0].IsActive)
}

func TestRegistrySendReturnsAfterStop(t *testing.T) {
	// No Run loop: commands queue up but are never drained. Stopping the
	// registry must still unblock callers waiting for an ack.
	r := NewRegistry(nil, DefaultStalenessWindow)

	done := make(chan struct{})
	go func() {
		r.Ingest("sup1", 1, 1, 0, 0, time.Now())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	r.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Ingest still blocked after Stop")
	}
}

func TestIsLive(t *testing.T) {
	now := time.Now()
	window := 30 * time.Minute

	tests := []struct {
		name string
		p    models.SupplierPresence
		want bool
	}{
		{"recent and active", models.SupplierPresence{IsActive: true, LastUpdated: now.Add(-5 * time.Minute)}, true},
		{"just inside the window", models.SupplierPresence{IsActive: true, LastUpdated: now.Add(-window + time.Second)}, true},
		{"exactly at the window", models.SupplierPresence{IsActive: true, LastUpdated: now.Add(-window)}, false},
		{"stale", models.SupplierPresence{IsActive: true, LastUpdated: now.Add(-time.Hour)}, false},
		{"recent but off duty", models.SupplierPresence{IsActive: false, LastUpdated: now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLive(tt.p, now, window))
		})
	}
}
