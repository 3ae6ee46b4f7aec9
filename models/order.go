package models

import "time"

// Order statuses. Confirmed and PartiallyConfirmed are derived from the line
// items and never set directly by a client request.
const (
	OrderProcessing         = "processing"
	OrderConfirmed          = "confirmed"
	OrderPartiallyConfirmed = "partially_confirmed"
	OrderShipped            = "shipped"
	OrderDelivered          = "delivered"
	OrderCancelled          = "cancelled"
)

// Payment methods
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

// Order payment statuses. NA applies to cash-on-delivery orders only.
const (
	PaymentNA        = "na"
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Line item statuses. A pending item transitions exactly once to accepted or
// declined; cancelled is forced on still-pending items when the whole order
// is cancelled.
const (
	ItemPending   = "pending"
	ItemAccepted  = "accepted"
	ItemDeclined  = "declined"
	ItemCancelled = "cancelled"
)

type ShippingInfo struct {
	FullName string `json:"fullName" bson:"fullname"`
	Phone    string `json:"phone" bson:"phone"`
	Address  string `json:"address" bson:"address"`
	City     string `json:"city" bson:"city"`
}

type Order struct {
	OrderID       string       `json:"orderid" bson:"orderid"`
	OrderNumber   string       `json:"ordernumber" bson:"ordernumber"`
	BuyerID       string       `json:"buyerid" bson:"buyerid"`
	TotalAmount   float64      `json:"totalamount" bson:"totalamount"`
	DeliveryFee   float64      `json:"deliveryfee" bson:"deliveryfee"`
	Status        string       `json:"status" bson:"status"`
	PaymentMethod string       `json:"paymentmethod" bson:"paymentmethod"`
	PaymentStatus string       `json:"paymentstatus" bson:"paymentstatus"`
	Shipping      ShippingInfo `json:"shipping" bson:"shipping"`
	Notes         string       `json:"notes,omitempty" bson:"notes,omitempty"`
	IsConfirmed   bool         `json:"isconfirmed" bson:"isconfirmed"`
	ConfirmedAt   *time.Time   `json:"confirmedat,omitempty" bson:"confirmedat,omitempty"`
	CreatedAt     time.Time    `json:"created_at" bson:"createdat"`
	UpdatedAt     time.Time    `json:"updated_at" bson:"updatedat"`
}

type OrderItem struct {
	ItemID          string    `json:"itemid" bson:"itemid"`
	OrderID         string    `json:"orderid" bson:"orderid"`
	ProductID       string    `json:"productid" bson:"productid"`
	FarmerID        string    `json:"farmerid" bson:"farmerid"`
	ProductName     string    `json:"productname" bson:"productname"`
	Quantity        int       `json:"quantity" bson:"quantity"`
	Price           float64   `json:"price" bson:"price"`
	Subtotal        float64   `json:"subtotal" bson:"subtotal"`
	Status          string    `json:"status" bson:"status"`
	StatusUpdatedAt time.Time `json:"statusupdatedat" bson:"statusupdatedat"`
	FarmerNotes     string    `json:"farmernotes,omitempty" bson:"farmernotes,omitempty"`
}
