package models

import "time"

// SupplierPresence is the in-memory registry entry for one supplier. It is
// not persisted; the registry is rebuilt from pings after a restart and
// subscribers get a fresh snapshot on every connect.
type SupplierPresence struct {
	SupplierID  string    `json:"supplierId"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Heading     float64   `json:"heading,omitempty"`
	Speed       float64   `json:"speed,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
	IsActive    bool      `json:"isActive"`
	ServiceArea string    `json:"serviceArea,omitempty"`

	// Active delivery overlay, empty when the supplier is idle.
	OrderID        string `json:"orderId,omitempty"`
	DeliveryStatus string `json:"deliveryStatus,omitempty"`
}
