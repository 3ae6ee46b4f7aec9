package orders

import "agrolink/models"

// DeriveOrderStatus computes the order's aggregate status from its items'
// statuses. This is the only place the derivation lives; every item
// transition re-reads the sibling items inside its transaction and calls
// this with the fresh statuses.
//
//	all accepted                -> confirmed
//	none pending, >=1 declined  -> partially_confirmed
//	otherwise                   -> processing
func DeriveOrderStatus(itemStatuses []string) string {
	if len(itemStatuses) == 0 {
		return models.OrderProcessing
	}

	allAccepted := true
	anyDeclined := false
	anyPending := false

	for _, st := range itemStatuses {
		switch st {
		case models.ItemAccepted:
		case models.ItemDeclined:
			allAccepted = false
			anyDeclined = true
		case models.ItemPending:
			allAccepted = false
			anyPending = true
		default:
			// cancelled items keep the order out of confirmed
			allAccepted = false
		}
	}

	if allAccepted {
		return models.OrderConfirmed
	}
	if !anyPending && anyDeclined {
		return models.OrderPartiallyConfirmed
	}
	return models.OrderProcessing
}
