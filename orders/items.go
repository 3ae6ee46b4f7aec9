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

type itemDecisionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateLineItemStatus records a farmer's accept/decline decision on one
// line item. Declining releases the reserved stock. The order's aggregate
// status is recomputed from a fresh in-transaction read of all sibling
// items, so two farmers deciding concurrently cannot lose each other's
// committed result.
func (s *Service) UpdateLineItemStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	farmerID := utils.GetUserIDFromRequest(r)
	itemID := ps.ByName("itemid")

	var req itemDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Respond(w, apperr.Validation("invalid request body"))
		return
	}
	if req.Status != models.ItemAccepted && req.Status != models.ItemDeclined {
		apperr.Respond(w, apperr.Validation("status must be accepted or declined"))
		return
	}

	var item models.OrderItem
	var pushes []pendingPush

	err := s.withTxn(r.Context(), func(sc mongo.SessionContext) error {
		pushes = pushes[:0]

		if err := db.OrderItemsCollection.FindOne(sc, bson.M{"itemid": itemID}).Decode(&item); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.Resource("line item not found")
			}
			return err
		}
		if item.FarmerID != farmerID {
			return apperr.Permission("only the owning farmer can decide this item")
		}

		var order models.Order
		if err := db.OrdersCollection.FindOne(sc, bson.M{"orderid": item.OrderID}).Decode(&order); err != nil {
			return err
		}

		now := time.Now()
		res, err := db.OrderItemsCollection.UpdateOne(sc, bson.M{
			"itemid": itemID,
			"status": models.ItemPending,
		}, bson.M{
			"$set": bson.M{
				"status":          req.Status,
				"statusupdatedat": now,
				"farmernotes":     req.Notes,
			},
		})
		if err != nil {
			return err
		}
		if res.ModifiedCount == 0 {
			return apperr.Conflict("line item is already " + item.Status)
		}
		item.Status = req.Status
		item.StatusUpdatedAt = now
		item.FarmerNotes = req.Notes

		if req.Status == models.ItemDeclined {
			if err := inventory.Release(sc, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		// Aggregate recompute over the committed sibling statuses
		cur, err := db.OrderItemsCollection.Find(sc, bson.M{"orderid": item.OrderID})
		if err != nil {
			return err
		}
		var siblings []models.OrderItem
		if err := cur.All(sc, &siblings); err != nil {
			return err
		}
		statuses := make([]string, 0, len(siblings))
		for _, sib := range siblings {
			statuses = append(statuses, sib.Status)
		}

		derived := DeriveOrderStatus(statuses)
		if order.Status == models.OrderProcessing && derived != order.Status {
			update := bson.M{"status": derived, "updatedat": now}
			if derived == models.OrderConfirmed {
				update["isconfirmed"] = true
				update["confirmedat"] = now
			}
			if _, err := db.OrdersCollection.UpdateOne(sc, bson.M{"orderid": order.OrderID}, bson.M{"$set": update}); err != nil {
				return err
			}
		}

		decisionMsg := fmt.Sprintf("%s was %s for order %s", item.ProductName, req.Status, order.OrderNumber)
		ntype := models.NotifItemAccepted
		if req.Status == models.ItemDeclined {
			ntype = models.NotifItemDeclined
		}
		if err := s.notifier.WriteInbox(sc, order.BuyerID, decisionMsg, ntype); err != nil {
			return err
		}
		pushes = append(pushes, pendingPush{order.BuyerID, decisionMsg, ntype})

		if order.Status == models.OrderProcessing && derived == models.OrderConfirmed {
			confirmMsg := fmt.Sprintf("Order %s is confirmed by all farmers", order.OrderNumber)
			if err := s.notifier.WriteInbox(sc, order.BuyerID, confirmMsg, models.NotifOrderConfirmed); err != nil {
				return err
			}
			pushes = append(pushes, pendingPush{order.BuyerID, confirmMsg, models.NotifOrderConfirmed})
		}

		return nil
	})
	if err != nil {
		apperr.Respond(w, err)
		return
	}

	s.firePushes(pushes)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "item": item})
}
