package receipts

import (
	"strings"
	"testing"
	"time"

	"agrolink/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRPayloadRoundTrip(t *testing.T) {
	payload := QRPayload("ord1", "AGL-20250314092653-0042", time.Now())

	assert.True(t, VerifyQRPayload(payload))
	assert.True(t, strings.HasPrefix(payload, "ord1|AGL-20250314092653-0042|"))
}

func TestVerifyQRPayloadRejectsTampering(t *testing.T) {
	payload := QRPayload("ord1", "AGL-20250314092653-0042", time.Now())

	tampered := strings.Replace(payload, "ord1", "ord2", 1)
	assert.False(t, VerifyQRPayload(tampered))

	assert.False(t, VerifyQRPayload("no-separators-here"))
	assert.False(t, VerifyQRPayload(""))
	assert.False(t, VerifyQRPayload(payload+"x"))
}

func TestRenderReceiptProducesPDF(t *testing.T) {
	now := time.Now()
	order := models.Order{
		OrderID:       "ord1",
		OrderNumber:   "AGL-20250314092653-0042",
		BuyerID:       "buyer1",
		TotalAmount:   70,
		DeliveryFee:   50,
		Status:        models.OrderPartiallyConfirmed,
		PaymentMethod: models.PaymentMethodOnline,
		PaymentStatus: models.PaymentCompleted,
		Shipping:      models.ShippingInfo{FullName: "Asha Rao", Address: "14 Market Rd", City: "Mysuru"},
		CreatedAt:     now,
	}
	items := []models.OrderItem{
		{ProductName: "Tomatoes", Quantity: 2, Price: 10, Subtotal: 20, Status: models.ItemAccepted},
		{ProductName: "Spinach", Quantity: 3, Price: 5, Subtotal: 15, Status: models.ItemDeclined},
	}

	pdfBytes, err := renderReceipt(order, items)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdfBytes), "%PDF"))
}
