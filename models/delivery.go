package models

import "time"

// Delivery statuses; forward-only with failed/cancelled as alternate
// terminals. No transition leaves delivered, failed or cancelled.
const (
	DeliveryAssigned         = "assigned"
	DeliveryPickupInProgress = "pickup_in_progress"
	DeliveryPickedUp         = "picked_up"
	DeliveryInTransit        = "in_transit"
	DeliveryDelivered        = "delivered"
	DeliveryFailed           = "failed"
	DeliveryCancelled        = "cancelled"
)

type Delivery struct {
	DeliveryID      string    `json:"deliveryid" bson:"deliveryid"`
	OrderID         string    `json:"orderid" bson:"orderid"`
	SupplierID      string    `json:"supplierid" bson:"supplierid"`
	Status          string    `json:"status" bson:"status"`
	StatusUpdatedAt time.Time `json:"statusupdatedat" bson:"statusupdatedat"`
	CreatedAt       time.Time `json:"created_at" bson:"createdat"`
}
