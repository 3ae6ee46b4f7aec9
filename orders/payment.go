package orders

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agrolink/apperr"
	"agrolink/db"
	"agrolink/gateway"
	"agrolink/models"
	"agrolink/rdx"
	"agrolink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// callbackLockTTL bounds how long a payment callback holds its per-reference lock
const callbackLockTTL = 5 * time.Second

// PayableAmount is the online charge for an order: the sum of accepted
// items' subtotals. Declined and pending items are never charged, and the
// flat delivery fee is collected on delivery rather than through the
// gateway.
func PayableAmount(items []models.OrderItem) float64 {
	var amount float64
	for _, item := range items {
		if item.Status == models.ItemAccepted {
			amount += item.Subtotal
		}
	}
	return amount
}

// InitiatePayment starts the online payment leg once every farmer has
// decided. It charges accepted items only, records a pending
// PaymentTransaction, and hands back the gateway redirect URL. A gateway
// failure aborts the transaction so no half-initiated payment survives.
func (s *Service) InitiatePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	buyerID := utils.GetUserIDFromRequest(r)
	orderID := ps.ByName("orderid")

	var session gateway.OrderSession

	err := s.withTxn(r.Context(), func(sc mongo.SessionContext) error {
		var order models.Order
		if err := db.OrdersCollection.FindOne(sc, bson.M{"orderid": orderID}).Decode(&order); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.Resource("order not found")
			}
			return err
		}
		if order.BuyerID != buyerID {
			return apperr.Permission("only the buyer can pay for this order")
		}
		if order.PaymentMethod != models.PaymentMethodOnline {
			return apperr.Validation("order is cash on delivery")
		}
		if order.PaymentStatus != models.PaymentPending {
			return apperr.Conflict("order payment is " + order.PaymentStatus)
		}

		cur, err := db.OrderItemsCollection.Find(sc, bson.M{"orderid": order.OrderID})
		if err != nil {
			return err
		}
		var items []models.OrderItem
		if err := cur.All(sc, &items); err != nil {
			return err
		}

		accepted := 0
		for _, item := range items {
			switch item.Status {
			case models.ItemPending:
				return apperr.Conflict("waiting for farmer decisions before payment")
			case models.ItemAccepted:
				accepted++
			}
		}
		if accepted == 0 {
			return apperr.Conflict("no accepted items to charge")
		}

		n, err := db.PaymentsCollection.CountDocuments(sc, bson.M{"orderid": order.OrderID, "status": models.TxnPending})
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("a payment for this order is already in progress")
		}

		amount := PayableAmount(items)
		reference := order.OrderNumber + "-PAY-" + utils.GenerateRandomDigitString(4)

		session, err = gateway.CreateOrderSession(reference, amount)
		if err != nil {
			return apperr.External("payment gateway unavailable, try again")
		}

		now := time.Now()
		txn := models.PaymentTransaction{
			Reference: reference,
			OrderID:   order.OrderID,
			BuyerID:   buyerID,
			Amount:    amount,
			Status:    models.TxnPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = db.PaymentsCollection.InsertOne(sc, txn)
		return err
	})
	if err != nil {
		apperr.Respond(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":     true,
		"redirectUrl": session.URL,
		"reference":   session.Reference,
		"amount":      session.Amount,
	})
}

type paymentCallbackRequest struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// classifyCallbackFlip interprets the conditional pending-to-terminal
// update that makes the callback idempotent. modified > 0 is the first
// delivery of this outcome; modified == 0 with the reference present is a
// replay to acknowledge without effects; an absent reference is an error.
func classifyCallbackFlip(modifiedCount, referenceCount int64) (duplicate bool, err error) {
	if modifiedCount > 0 {
		return false, nil
	}
	if referenceCount == 0 {
		return false, apperr.Resource("unknown payment reference")
	}
	return true, nil
}

// PaymentCallback receives the gateway's asynchronous outcome. Delivery is
// at least once, so the pending-to-terminal flip is a conditional update:
// a replayed callback matches nothing, takes no effects, and is simply
// acknowledged.
func (s *Service) PaymentCallback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req paymentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" {
		apperr.Respond(w, apperr.Validation("invalid callback payload"))
		return
	}
	if req.Status != gateway.OutcomeSucceeded && req.Status != gateway.OutcomeFailed {
		apperr.Respond(w, apperr.Validation("status must be succeeded or failed"))
		return
	}

	// Serialize concurrent redeliveries of the same reference
	acquired, err := rdx.RdxSetNX("payment_cb:"+req.Reference, "1", callbackLockTTL)
	if err == nil && !acquired {
		http.Error(w, "please retry", http.StatusTooManyRequests)
		return
	}
	defer rdx.RdxDel("payment_cb:" + req.Reference)

	duplicate := false
	var pushes []pendingPush

	err = s.withTxn(r.Context(), func(sc mongo.SessionContext) error {
		pushes = pushes[:0]
		duplicate = false

		newStatus := models.TxnCompleted
		if req.Status == gateway.OutcomeFailed {
			newStatus = models.TxnFailed
		}

		now := time.Now()
		res, err := db.PaymentsCollection.UpdateOne(sc, bson.M{
			"reference": req.Reference,
			"status":    models.TxnPending,
		}, bson.M{
			"$set": bson.M{"status": newStatus, "updatedat": now},
		})
		if err != nil {
			return err
		}
		if res.ModifiedCount == 0 {
			n, err := db.PaymentsCollection.CountDocuments(sc, bson.M{"reference": req.Reference})
			if err != nil {
				return err
			}
			duplicate, err = classifyCallbackFlip(res.ModifiedCount, n)
			if err != nil || duplicate {
				return err
			}
		}

		var txn models.PaymentTransaction
		if err := db.PaymentsCollection.FindOne(sc, bson.M{"reference": req.Reference}).Decode(&txn); err != nil {
			return err
		}

		var order models.Order
		if err := db.OrdersCollection.FindOne(sc, bson.M{"orderid": txn.OrderID}).Decode(&order); err != nil {
			return err
		}

		if newStatus == models.TxnCompleted {
			if _, err := db.OrdersCollection.UpdateOne(sc, bson.M{"orderid": order.OrderID}, bson.M{
				"$set": bson.M{
					"paymentstatus": models.PaymentCompleted,
					"status":        models.OrderConfirmed,
					"isconfirmed":   true,
					"confirmedat":   now,
					"updatedat":     now,
				},
			}); err != nil {
				return err
			}
			msg := fmt.Sprintf("Payment of %.2f received for order %s", txn.Amount, order.OrderNumber)
			if err := s.notifier.WriteInbox(sc, order.BuyerID, msg, models.NotifPaymentSuccess); err != nil {
				return err
			}
			pushes = append(pushes, pendingPush{order.BuyerID, msg, models.NotifPaymentSuccess})
			return nil
		}

		// Failed: the order stays payable, the buyer may initiate again
		msg := fmt.Sprintf("Payment for order %s failed, please try again", order.OrderNumber)
		if err := s.notifier.WriteInbox(sc, order.BuyerID, msg, models.NotifPaymentFailed); err != nil {
			return err
		}
		pushes = append(pushes, pendingPush{order.BuyerID, msg, models.NotifPaymentFailed})
		return nil
	})
	if err != nil {
		apperr.Respond(w, err)
		return
	}

	s.firePushes(pushes)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "duplicate": duplicate})
}
