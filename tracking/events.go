package tracking

import (
	"encoding/json"

	"agrolink/logger"
	"agrolink/models"
)

const (
	eventSnapshot       = "snapshot"
	eventLocationUpdate = "location_update"
	eventPresenceChange = "presence_change"
	eventDeliveryStatus = "delivery_status_update"
)

func snapshotEvent(suppliers []models.SupplierPresence) []byte {
	return marshalEvent(map[string]interface{}{
		"type":      eventSnapshot,
		"suppliers": suppliers,
	})
}

func locationEvent(p models.SupplierPresence) []byte {
	return marshalEvent(map[string]interface{}{
		"type":     eventLocationUpdate,
		"supplier": p,
	})
}

func presenceEvent(supplierID string, active bool) []byte {
	return marshalEvent(map[string]interface{}{
		"type":       eventPresenceChange,
		"supplierId": supplierID,
		"isActive":   active,
	})
}

func deliveryEvent(supplierID, orderID, status string) []byte {
	return marshalEvent(map[string]interface{}{
		"type":       eventDeliveryStatus,
		"supplierId": supplierID,
		"orderId":    orderID,
		"status":     status,
	})
}

func marshalEvent(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("marshal tracking event", "error", err)
		return []byte("{}")
	}
	return data
}
