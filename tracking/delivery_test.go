package tracking

import (
	"testing"

	"agrolink/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionDelivery(t *testing.T) {
	tests := []struct {
		name string
		cur  string
		next string
		want bool
	}{
		{"assigned to pickup", models.DeliveryAssigned, models.DeliveryPickupInProgress, true},
		{"pickup to picked up", models.DeliveryPickupInProgress, models.DeliveryPickedUp, true},
		{"picked up to in transit", models.DeliveryPickedUp, models.DeliveryInTransit, true},
		{"in transit to delivered", models.DeliveryInTransit, models.DeliveryDelivered, true},
		{"skip stages forward", models.DeliveryAssigned, models.DeliveryInTransit, true},
		{"assigned straight to delivered", models.DeliveryAssigned, models.DeliveryDelivered, true},
		{"no going backwards", models.DeliveryInTransit, models.DeliveryPickedUp, false},
		{"no self transition", models.DeliveryPickedUp, models.DeliveryPickedUp, false},
		{"fail from any stage", models.DeliveryInTransit, models.DeliveryFailed, true},
		{"cancel from assigned", models.DeliveryAssigned, models.DeliveryCancelled, true},
		{"delivered is terminal", models.DeliveryDelivered, models.DeliveryInTransit, false},
		{"failed is terminal", models.DeliveryFailed, models.DeliveryAssigned, false},
		{"cancelled is terminal", models.DeliveryCancelled, models.DeliveryFailed, false},
		{"unknown current", "warehouse", models.DeliveryInTransit, false},
		{"unknown next", models.DeliveryAssigned, "teleported", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionDelivery(tt.cur, tt.next))
		})
	}
}

func TestDeliveryTerminal(t *testing.T) {
	assert.True(t, deliveryTerminal(models.DeliveryDelivered))
	assert.True(t, deliveryTerminal(models.DeliveryFailed))
	assert.True(t, deliveryTerminal(models.DeliveryCancelled))
	assert.False(t, deliveryTerminal(models.DeliveryAssigned))
	assert.False(t, deliveryTerminal(models.DeliveryInTransit))
}
