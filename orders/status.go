package orders

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agrolink/apperr"
	"agrolink/db"
	"agrolink/inventory"
	"agrolink/models"
	"agrolink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ShipAllowedFrom reports whether a farmer may move the order to shipped
// from the given status. Orders ship only once the farmers have decided.
func ShipAllowedFrom(status string) bool {
	return status == models.OrderConfirmed || status == models.OrderPartiallyConfirmed
}

// ReleaseOnCancel reports whether cancelling the order returns this item's
// quantity to stock. Declined items already went back when the farmer
// declined; restoring them again would mint inventory.
func ReleaseOnCancel(itemStatus string) bool {
	return itemStatus == models.ItemPending || itemStatus == models.ItemAccepted
}

// CancelAllowedFrom reports whether a buyer may still cancel from the given
// status. Once the order is moving (shipped/delivered) or already cancelled
// it may not.
func CancelAllowedFrom(status string) bool {
	switch status {
	case models.OrderShipped, models.OrderDelivered, models.OrderCancelled:
		return false
	}
	return true
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus applies the role-gated transition table:
//
//	farmer owning >=1 item  -> shipped
//	buyer owning the order  -> cancelled
//	assigned supplier       -> delivered
//
// Wrong role for the target status is a permission error; right role but
// wrong current state is a conflict. Clients branch on the distinction.
func (s *Service) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	callerID := utils.GetUserIDFromRequest(r)
	orderID := ps.ByName("orderid")

	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Respond(w, apperr.Validation("invalid request body"))
		return
	}

	var order models.Order
	var pushes []pendingPush

	err := s.withTxn(r.Context(), func(sc mongo.SessionContext) error {
		pushes = pushes[:0]

		if err := db.OrdersCollection.FindOne(sc, bson.M{"orderid": orderID}).Decode(&order); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.Resource("order not found")
			}
			return err
		}

		switch req.Status {
		case models.OrderShipped:
			return s.shipOrder(sc, &order, callerID, &pushes)
		case models.OrderCancelled:
			return s.cancelOrder(sc, &order, callerID, &pushes)
		case models.OrderDelivered:
			return s.deliverOrder(sc, &order, callerID, &pushes)
		default:
			return apperr.Permission("status " + req.Status + " cannot be set directly")
		}
	})
	if err != nil {
		apperr.Respond(w, err)
		return
	}

	s.firePushes(pushes)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "order": order})
}

func (s *Service) shipOrder(sc mongo.SessionContext, order *models.Order, callerID string, pushes *[]pendingPush) error {
	n, err := db.OrderItemsCollection.CountDocuments(sc, bson.M{"orderid": order.OrderID, "farmerid": callerID})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Permission("only a farmer with items in this order can ship it")
	}
	if !ShipAllowedFrom(order.Status) {
		return apperr.Conflict("order cannot ship from status " + order.Status)
	}

	now := time.Now()
	if _, err := db.OrdersCollection.UpdateOne(sc, bson.M{"orderid": order.OrderID}, bson.M{
		"$set": bson.M{"status": models.OrderShipped, "updatedat": now},
	}); err != nil {
		return err
	}
	order.Status = models.OrderShipped
	order.UpdatedAt = now

	msg := fmt.Sprintf("Order %s has shipped", order.OrderNumber)
	if err := s.notifier.WriteInbox(sc, order.BuyerID, msg, models.NotifOrderShipped); err != nil {
		return err
	}
	*pushes = append(*pushes, pendingPush{order.BuyerID, msg, models.NotifOrderShipped})
	return nil
}

func (s *Service) cancelOrder(sc mongo.SessionContext, order *models.Order, callerID string, pushes *[]pendingPush) error {
	if order.BuyerID != callerID {
		return apperr.Permission("only the buyer can cancel this order")
	}
	if !CancelAllowedFrom(order.Status) {
		return apperr.Conflict("order cannot be cancelled from status " + order.Status)
	}

	// A pending gateway charge must resolve before cancellation, otherwise
	// we would owe a refund this service cannot reconcile.
	n, err := db.PaymentsCollection.CountDocuments(sc, bson.M{"orderid": order.OrderID, "status": models.TxnPending})
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("cancellation is blocked while a payment is pending")
	}

	cur, err := db.OrderItemsCollection.Find(sc, bson.M{"orderid": order.OrderID})
	if err != nil {
		return err
	}
	var items []models.OrderItem
	if err := cur.All(sc, &items); err != nil {
		return err
	}

	now := time.Now()
	farmers := make(map[string]bool)
	for _, item := range items {
		farmers[item.FarmerID] = true

		if ReleaseOnCancel(item.Status) {
			if err := inventory.Release(sc, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
	}

	if _, err := db.OrderItemsCollection.UpdateMany(sc, bson.M{
		"orderid": order.OrderID,
		"status":  models.ItemPending,
	}, bson.M{
		"$set": bson.M{"status": models.ItemCancelled, "statusupdatedat": now},
	}); err != nil {
		return err
	}

	if _, err := db.OrdersCollection.UpdateOne(sc, bson.M{"orderid": order.OrderID}, bson.M{
		"$set": bson.M{"status": models.OrderCancelled, "updatedat": now},
	}); err != nil {
		return err
	}
	order.Status = models.OrderCancelled
	order.UpdatedAt = now

	buyerMsg := fmt.Sprintf("Order %s was cancelled", order.OrderNumber)
	if err := s.notifier.WriteInbox(sc, order.BuyerID, buyerMsg, models.NotifOrderCancelled); err != nil {
		return err
	}
	*pushes = append(*pushes, pendingPush{order.BuyerID, buyerMsg, models.NotifOrderCancelled})

	for farmerID := range farmers {
		farmerMsg := fmt.Sprintf("Order %s was cancelled by the buyer", order.OrderNumber)
		if err := s.notifier.WriteInbox(sc, farmerID, farmerMsg, models.NotifOrderCancelled); err != nil {
			return err
		}
		*pushes = append(*pushes, pendingPush{farmerID, farmerMsg, models.NotifOrderCancelled})
	}
	return nil
}

func (s *Service) deliverOrder(sc mongo.SessionContext, order *models.Order, callerID string, pushes *[]pendingPush) error {
	// Only the active delivery counts; a supplier whose delivery failed or
	// was cancelled is no longer the assignee.
	filter := db.ActiveDeliveryFilter(order.OrderID)
	filter["supplierid"] = callerID
	n, err := db.DeliveriesCollection.CountDocuments(sc, filter)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Permission("only the assigned supplier can mark this order delivered")
	}
	if order.Status != models.OrderShipped {
		return apperr.Conflict("order cannot be delivered from status " + order.Status)
	}

	return s.MarkDelivered(sc, order, pushes)
}

// MarkDelivered finalizes the delivery leg: order status delivered, cash
// orders settle on the doorstep, buyer notified. Also called by the
// tracking package when the delivery overlay reaches its terminal state.
func (s *Service) MarkDelivered(sc mongo.SessionContext, order *models.Order, pushes *[]pendingPush) error {
	now := time.Now()
	update := bson.M{"status": models.OrderDelivered, "updatedat": now}
	if order.PaymentMethod == models.PaymentMethodCOD {
		update["paymentstatus"] = models.PaymentCompleted
	}

	if _, err := db.OrdersCollection.UpdateOne(sc, bson.M{"orderid": order.OrderID}, bson.M{"$set": update}); err != nil {
		return err
	}
	order.Status = models.OrderDelivered
	if order.PaymentMethod == models.PaymentMethodCOD {
		order.PaymentStatus = models.PaymentCompleted
	}
	order.UpdatedAt = now

	msg := fmt.Sprintf("Order %s was delivered", order.OrderNumber)
	if err := s.notifier.WriteInbox(sc, order.BuyerID, msg, models.NotifOrderDelivered); err != nil {
		return err
	}
	*pushes = append(*pushes, pendingPush{order.BuyerID, msg, models.NotifOrderDelivered})
	return nil
}

// MarkDeliveredTx loads the order and marks it delivered inside the
// caller's session. The returned func fires the deferred live pushes and
// must be invoked only after the caller's transaction commits.
func (s *Service) MarkDeliveredTx(sc mongo.SessionContext, orderID string) (func(), error) {
	var order models.Order
	if err := db.OrdersCollection.FindOne(sc, bson.M{"orderid": orderID}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.Resource("order not found")
		}
		return nil, err
	}
	if order.Status == models.OrderDelivered {
		return func() {}, nil
	}
	if order.Status != models.OrderShipped {
		return nil, apperr.Conflict("order cannot be delivered from status " + order.Status)
	}

	var pushes []pendingPush
	if err := s.MarkDelivered(sc, &order, &pushes); err != nil {
		return nil, err
	}
	return func() { s.firePushes(pushes) }, nil
}
