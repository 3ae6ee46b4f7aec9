package models

import "time"

// Notification types
const (
	NotifOrderPlaced      = "order_placed"
	NotifNewOrder         = "new_order"
	NotifItemAccepted     = "item_accepted"
	NotifItemDeclined     = "item_declined"
	NotifOrderConfirmed   = "order_confirmed"
	NotifOrderShipped     = "order_shipped"
	NotifOrderDelivered   = "order_delivered"
	NotifOrderCancelled   = "order_cancelled"
	NotifPaymentSuccess   = "payment_success"
	NotifPaymentFailed    = "payment_failed"
	NotifDeliveryUpdate   = "delivery_update"
	NotifDeliveryAssigned = "delivery_assigned"
)

// Notification is the durable inbox record; delivery to the inbox is the
// guaranteed channel, the live push is best effort.
type Notification struct {
	NotifID   string     `json:"notifid" bson:"notifid"`
	UserID    string     `json:"userid" bson:"userid"`
	Message   string     `json:"message" bson:"message"`
	Type      string     `json:"type" bson:"type"`
	Read      bool       `json:"read" bson:"read"`
	ReadAt    *time.Time `json:"readat,omitempty" bson:"readat,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"createdat"`
}
