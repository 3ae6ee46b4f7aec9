package models

import "time"

// PaymentTransaction statuses
const (
	TxnPending   = "pending"
	TxnCompleted = "completed"
	TxnFailed    = "failed"
)

// PaymentTransaction records one gateway charge attempt. The reference is
// derived from the order number and is what the gateway callback correlates
// on. At most one pending transaction may exist per order.
type PaymentTransaction struct {
	Reference string    `json:"reference" bson:"reference"`
	OrderID   string    `json:"orderid" bson:"orderid"`
	BuyerID   string    `json:"buyerid" bson:"buyerid"`
	Amount    float64   `json:"amount" bson:"amount"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"createdat"`
	UpdatedAt time.Time `json:"updated_at" bson:"updatedat"`
}
