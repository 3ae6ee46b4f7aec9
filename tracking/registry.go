package tracking

import (
	"sync/atomic"
	"time"

	"agrolink/models"
	"agrolink/utils"
)

// DefaultStalenessWindow is how long a supplier stays "live" on the map
// after its last ping. Override with TRACK_STALENESS_MIN.
const DefaultStalenessWindow = 30 * time.Minute

func StalenessWindow() time.Duration {
	mins := utils.ParseIntEnv("TRACK_STALENESS_MIN", 30)
	return time.Duration(mins) * time.Minute
}

type cmdKind int

const (
	cmdIngest cmdKind = iota
	cmdPresence
	cmdDelivery
)

type command struct {
	kind       cmdKind
	supplierID string
	ping       models.SupplierPresence
	active     bool
	orderID    string
	status     string
	ts         time.Time
	done       chan struct{}
}

// Registry holds the live locations of every supplier. A single goroutine
// owns the map; mutations arrive as commands over a channel and reads are
// served from an immutable snapshot swapped through atomic.Value, so
// readers never contend with the writer.
type Registry struct {
	cmds   chan command
	snap   atomic.Value // map[string]models.SupplierPresence
	window time.Duration
	hub    *Hub
	quit   chan struct{}
}

func NewRegistry(hub *Hub, window time.Duration) *Registry {
	r := &Registry{
		cmds:   make(chan command, 64),
		window: window,
		hub:    hub,
		quit:   make(chan struct{}),
	}
	r.snap.Store(map[string]models.SupplierPresence{})
	return r
}

func (r *Registry) Run() {
	for {
		select {
		case cmd := <-r.cmds:
			r.apply(cmd)
			if cmd.done != nil {
				close(cmd.done)
			}
		case <-r.quit:
			return
		}
	}
}

func (r *Registry) Stop() {
	close(r.quit)
}

// Ingest records a location ping. The supplier is marked active; pinging
// is an implicit "I am on duty".
func (r *Registry) Ingest(supplierID string, lat, lon, heading, speed float64, ts time.Time) {
	r.send(command{
		kind:       cmdIngest,
		supplierID: supplierID,
		ping: models.SupplierPresence{
			SupplierID: supplierID,
			Latitude:   lat,
			Longitude:  lon,
			Heading:    heading,
			Speed:      speed,
		},
		ts: ts,
	})
}

func (r *Registry) SetPresence(supplierID string, active bool, ts time.Time) {
	r.send(command{kind: cmdPresence, supplierID: supplierID, active: active, ts: ts})
}

// SetDelivery attaches (or, with an empty status, clears) the active
// delivery overlay on a supplier's presence entry.
func (r *Registry) SetDelivery(supplierID, orderID, status string) {
	r.send(command{kind: cmdDelivery, supplierID: supplierID, orderID: orderID, status: status})
}

// send blocks until the command has been applied, so callers observe
// their own writes in the next Snapshot.
func (r *Registry) send(cmd command) {
	cmd.done = make(chan struct{})
	select {
	case r.cmds <- cmd:
		// Stop can win the race after the command is queued but before
		// the loop drains it; give up on the ack in that case too.
		select {
		case <-cmd.done:
		case <-r.quit:
		}
	case <-r.quit:
	}
}

func (r *Registry) apply(cmd command) {
	cur := r.snap.Load().(map[string]models.SupplierPresence)
	next := make(map[string]models.SupplierPresence, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}

	entry := next[cmd.supplierID]
	entry.SupplierID = cmd.supplierID

	switch cmd.kind {
	case cmdIngest:
		entry.Latitude = cmd.ping.Latitude
		entry.Longitude = cmd.ping.Longitude
		entry.Heading = cmd.ping.Heading
		entry.Speed = cmd.ping.Speed
		entry.LastUpdated = cmd.ts
		entry.IsActive = true
		next[cmd.supplierID] = entry
		r.snap.Store(next)
		r.publish(entry, locationEvent(entry))

	case cmdPresence:
		entry.IsActive = cmd.active
		entry.LastUpdated = cmd.ts
		next[cmd.supplierID] = entry
		r.snap.Store(next)
		r.publish(entry, presenceEvent(cmd.supplierID, cmd.active))

	case cmdDelivery:
		if cmd.status == "" || deliveryTerminal(cmd.status) {
			// Broadcast the terminal state, then drop the overlay so the
			// supplier shows as idle on the map.
			evt := deliveryEvent(cmd.supplierID, cmd.orderID, cmd.status)
			withOverlay := entry
			withOverlay.OrderID = cmd.orderID
			withOverlay.DeliveryStatus = cmd.status
			r.publish(withOverlay, evt)
			entry.OrderID = ""
			entry.DeliveryStatus = ""
			next[cmd.supplierID] = entry
			r.snap.Store(next)
			return
		}
		entry.OrderID = cmd.orderID
		entry.DeliveryStatus = cmd.status
		next[cmd.supplierID] = entry
		r.snap.Store(next)
		r.publish(entry, deliveryEvent(cmd.supplierID, cmd.orderID, cmd.status))
	}
}

func (r *Registry) publish(entry models.SupplierPresence, data []byte) {
	if r.hub == nil {
		return
	}
	r.hub.Broadcast(RoomAllSuppliers, data)
	r.hub.Broadcast(RoomSupplier(entry.SupplierID), data)
	if entry.OrderID != "" {
		r.hub.Broadcast(RoomOrder(entry.OrderID), data)
	}
}

// Get returns the raw entry, live or not.
func (r *Registry) Get(supplierID string) (models.SupplierPresence, bool) {
	m := r.snap.Load().(map[string]models.SupplierPresence)
	p, ok := m[supplierID]
	return p, ok
}

// Snapshot returns every supplier currently considered live, evaluated
// against now. Staleness is a read-time property; entries are never
// purged, a fresh ping simply revives them.
func (r *Registry) Snapshot(now time.Time) []models.SupplierPresence {
	m := r.snap.Load().(map[string]models.SupplierPresence)
	out := make([]models.SupplierPresence, 0, len(m))
	for _, p := range m {
		if IsLive(p, now, r.window) {
			out = append(out, p)
		}
	}
	return out
}

func IsLive(p models.SupplierPresence, now time.Time, window time.Duration) bool {
	if !p.IsActive {
		return false
	}
	return now.Sub(p.LastUpdated) < window
}
