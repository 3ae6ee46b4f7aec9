package orders

import (
	"testing"
	"time"

	"agrolink/models"

	"github.com/stretchr/testify/assert"
)

func TestShipAllowedFrom(t *testing.T) {
	assert.True(t, ShipAllowedFrom(models.OrderConfirmed))
	assert.True(t, ShipAllowedFrom(models.OrderPartiallyConfirmed))

	assert.False(t, ShipAllowedFrom(models.OrderProcessing))
	assert.False(t, ShipAllowedFrom(models.OrderShipped))
	assert.False(t, ShipAllowedFrom(models.OrderDelivered))
	assert.False(t, ShipAllowedFrom(models.OrderCancelled))
}

func TestCancelAllowedFrom(t *testing.T) {
	assert.True(t, CancelAllowedFrom(models.OrderProcessing))
	assert.True(t, CancelAllowedFrom(models.OrderConfirmed))
	assert.True(t, CancelAllowedFrom(models.OrderPartiallyConfirmed))

	assert.False(t, CancelAllowedFrom(models.OrderShipped))
	assert.False(t, CancelAllowedFrom(models.OrderDelivered))
	assert.False(t, CancelAllowedFrom(models.OrderCancelled))
}

func TestNewOrderNumberFormat(t *testing.T) {
	n := NewOrderNumber(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC))

	assert.True(t, ValidOrderNumber(n), "generated %q", n)
	assert.Contains(t, n, "AGL-20250314092653-")
}

func TestValidOrderNumberRejectsGarbage(t *testing.T) {
	for _, bad := range []string{
		"",
		"AGL-20250314092653",
		"ORD-20250314092653-1234",
		"AGL-2025-1234",
		"AGL-20250314092653-12345",
	} {
		assert.False(t, ValidOrderNumber(bad), "accepted %q", bad)
	}
}

func TestNewOrderNumbersDiffer(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[NewOrderNumber(now)] = true
	}
	// 4 random digits won't collide 50 times in a row
	assert.Greater(t, len(seen), 1)
}
