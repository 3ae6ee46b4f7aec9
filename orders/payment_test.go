package orders

import (
	"testing"

	"agrolink/apperr"
	"agrolink/models"

	"github.com/stretchr/testify/assert"
)

// The worked example from the product brief: F1 accepts $10x2, F2 declines
// $5x3, flat fee 50. The charge is F1's subtotal only (no declined items,
// no delivery fee).
func TestPayableAmountChargesAcceptedOnly(t *testing.T) {
	items := []models.OrderItem{
		{FarmerID: "f1", Quantity: 2, Price: 10, Subtotal: 20, Status: models.ItemAccepted},
		{FarmerID: "f2", Quantity: 3, Price: 5, Subtotal: 15, Status: models.ItemDeclined},
	}

	assert.Equal(t, 20.0, PayableAmount(items))
}

func TestPayableAmountExcludesPending(t *testing.T) {
	items := []models.OrderItem{
		{Subtotal: 20, Status: models.ItemAccepted},
		{Subtotal: 35, Status: models.ItemPending},
		{Subtotal: 15, Status: models.ItemCancelled},
	}

	assert.Equal(t, 20.0, PayableAmount(items))
}

func TestPayableAmountNoAccepted(t *testing.T) {
	items := []models.OrderItem{
		{Subtotal: 20, Status: models.ItemDeclined},
	}

	assert.Equal(t, 0.0, PayableAmount(items))
}

// Callback delivery is at least once. The flip to a terminal status happens
// exactly once; every replay is acknowledged without effects, and only a
// reference that never existed is an error.
func TestClassifyCallbackFlip(t *testing.T) {
	dup, err := classifyCallbackFlip(1, 1)
	assert.NoError(t, err)
	assert.False(t, dup, "first delivery must apply effects")

	dup, err = classifyCallbackFlip(0, 1)
	assert.NoError(t, err)
	assert.True(t, dup, "replay must be acknowledged without effects")

	dup, err = classifyCallbackFlip(0, 0)
	assert.Error(t, err)
	assert.False(t, dup)

	var appErr *apperr.Error
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CategoryResource, appErr.Category)
}
