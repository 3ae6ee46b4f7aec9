package tracking

import "agrolink/models"

var deliveryRank = map[string]int{
	models.DeliveryAssigned:         0,
	models.DeliveryPickupInProgress: 1,
	models.DeliveryPickedUp:         2,
	models.DeliveryInTransit:        3,
	models.DeliveryDelivered:        4,
}

func deliveryTerminal(status string) bool {
	switch status {
	case models.DeliveryDelivered, models.DeliveryFailed, models.DeliveryCancelled:
		return true
	}
	return false
}

// CanTransitionDelivery reports whether a delivery may move from cur to
// next. Forward stages can be skipped (a supplier may go straight from
// assigned to in_transit if they never reported pickup), failed and
// cancelled are reachable from any non-terminal stage, and terminal
// states admit no exit.
func CanTransitionDelivery(cur, next string) bool {
	if deliveryTerminal(cur) {
		return false
	}
	curRank, ok := deliveryRank[cur]
	if !ok {
		return false
	}
	if next == models.DeliveryFailed || next == models.DeliveryCancelled {
		return true
	}
	nextRank, ok := deliveryRank[next]
	if !ok {
		return false
	}
	return nextRank > curRank
}
