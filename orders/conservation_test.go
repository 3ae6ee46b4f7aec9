package orders

import (
	"testing"

	"agrolink/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stockLedger replays the floor-checked reserve/release rules over an
// in-memory count so item lifecycles can be walked without a database.
type stockLedger struct {
	stock int
}

func (l *stockLedger) reserve(qty int) bool {
	if l.stock < qty {
		return false
	}
	l.stock -= qty
	return true
}

func (l *stockLedger) release(qty int) {
	l.stock += qty
}

// Every unit reserved at creation is returned to stock exactly once, no
// matter which decision the farmer made before the buyer cancelled:
// declining releases immediately, cancelling releases what is still held.
func TestCancelConservesInventory(t *testing.T) {
	const initial = 10
	const qty = 3

	tests := []struct {
		name         string
		statusAtEnd  string
		farmerAction string
	}{
		{"cancel while pending", models.ItemPending, ""},
		{"cancel after accept", models.ItemAccepted, models.ItemAccepted},
		{"cancel after decline", models.ItemDeclined, models.ItemDeclined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &stockLedger{stock: initial}

			// Order creation reserves the quantity.
			require.True(t, ledger.reserve(qty))
			assert.Equal(t, initial-qty, ledger.stock)

			// Declining hands the units straight back.
			if tt.farmerAction == models.ItemDeclined {
				ledger.release(qty)
			}

			// Cancellation releases only what is still held.
			if ReleaseOnCancel(tt.statusAtEnd) {
				ledger.release(qty)
			}

			assert.Equal(t, initial, ledger.stock, "stock must return to its starting level")
		})
	}
}

func TestReleaseOnCancel(t *testing.T) {
	assert.True(t, ReleaseOnCancel(models.ItemPending))
	assert.True(t, ReleaseOnCancel(models.ItemAccepted))
	assert.False(t, ReleaseOnCancel(models.ItemDeclined), "declined stock was already released")
	assert.False(t, ReleaseOnCancel(models.ItemCancelled))
}

func TestReserveRespectsFloor(t *testing.T) {
	ledger := &stockLedger{stock: 2}

	assert.False(t, ledger.reserve(3), "reservation past the floor must fail")
	assert.Equal(t, 2, ledger.stock, "a failed reservation must not change stock")

	assert.True(t, ledger.reserve(2))
	assert.Equal(t, 0, ledger.stock)
}
