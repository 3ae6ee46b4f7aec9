package orders

import (
	"testing"

	"agrolink/models"

	"github.com/stretchr/testify/assert"
)

func TestDeriveOrderStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"all pending", []string{models.ItemPending, models.ItemPending}, models.OrderProcessing},
		{"some pending", []string{models.ItemAccepted, models.ItemPending}, models.OrderProcessing},
		{"declined but one still pending", []string{models.ItemDeclined, models.ItemPending}, models.OrderProcessing},
		{"all accepted", []string{models.ItemAccepted, models.ItemAccepted, models.ItemAccepted}, models.OrderConfirmed},
		{"single item accepted", []string{models.ItemAccepted}, models.OrderConfirmed},
		{"mixed terminal", []string{models.ItemAccepted, models.ItemDeclined}, models.OrderPartiallyConfirmed},
		{"all declined", []string{models.ItemDeclined, models.ItemDeclined}, models.OrderPartiallyConfirmed},
		{"single item declined", []string{models.ItemDeclined}, models.OrderPartiallyConfirmed},
		{"cancelled item blocks confirmed", []string{models.ItemAccepted, models.ItemCancelled}, models.OrderProcessing},
		{"no items", nil, models.OrderProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOrderStatus(tt.statuses))
		})
	}
}

// Exhaustive sweep over every reachable two-item combination: confirmed iff
// both accepted, partially confirmed iff no pending and at least one
// declined, otherwise processing.
func TestDeriveOrderStatusExhaustivePairs(t *testing.T) {
	reachable := []string{models.ItemPending, models.ItemAccepted, models.ItemDeclined}

	for _, a := range reachable {
		for _, b := range reachable {
			got := DeriveOrderStatus([]string{a, b})

			allAccepted := a == models.ItemAccepted && b == models.ItemAccepted
			nonePending := a != models.ItemPending && b != models.ItemPending
			anyDeclined := a == models.ItemDeclined || b == models.ItemDeclined

			switch {
			case allAccepted:
				assert.Equal(t, models.OrderConfirmed, got, "%s/%s", a, b)
			case nonePending && anyDeclined:
				assert.Equal(t, models.OrderPartiallyConfirmed, got, "%s/%s", a, b)
			default:
				assert.Equal(t, models.OrderProcessing, got, "%s/%s", a, b)
			}
		}
	}
}
