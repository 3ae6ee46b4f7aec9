package orders

import (
	"context"
	"net/http"

	"agrolink/apperr"
	"agrolink/db"
	"agrolink/globals"
	"agrolink/models"
	"agrolink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetMyOrders lists orders visible to the caller. Buyers see their own
// orders, farmers see orders containing their line items, suppliers see
// orders they deliver. Callers with multiple roles pick a view with ?as=.
func (s *Service) GetMyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)
	roles := utils.GetRolesFromRequest(r)

	view := r.URL.Query().Get("as")
	if view == "" {
		switch {
		case utils.HasRole(roles, globals.RoleFarmer):
			view = globals.RoleFarmer
		case utils.HasRole(roles, globals.RoleSupplier):
			view = globals.RoleSupplier
		default:
			view = globals.RoleBuyer
		}
	}
	if !utils.HasRole(roles, view) {
		apperr.Respond(w, apperr.Permission("caller does not have the "+view+" role"))
		return
	}

	var filter bson.M
	switch view {
	case globals.RoleBuyer:
		filter = bson.M{"buyerid": userID}
	case globals.RoleFarmer:
		ids, err := distinctOrderIDs(ctx, db.OrderItemsCollection, bson.M{"farmerid": userID})
		if err != nil {
			apperr.Respond(w, err)
			return
		}
		filter = bson.M{"orderid": bson.M{"$in": ids}}
	case globals.RoleSupplier:
		ids, err := distinctOrderIDs(ctx, db.DeliveriesCollection, bson.M{"supplierid": userID})
		if err != nil {
			apperr.Respond(w, err)
			return
		}
		filter = bson.M{"orderid": bson.M{"$in": ids}}
	default:
		apperr.Respond(w, apperr.Validation("unknown view "+view))
		return
	}

	cur, err := db.OrdersCollection.Find(ctx, filter, options.Find().SetSort(bson.M{"createdat": -1}).SetLimit(100))
	if err != nil {
		apperr.Respond(w, err)
		return
	}
	defer cur.Close(ctx)

	list := []models.Order{}
	if err := cur.All(ctx, &list); err != nil {
		apperr.Respond(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "orders": list})
}

func distinctOrderIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]string, error) {
	raw, err := coll.Distinct(ctx, "orderid", filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// GetOrder returns one order with its line items, permission-checked: the
// buyer, any farmer with an item in it, or the assigned supplier.
func (s *Service) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)
	orderID := ps.ByName("orderid")

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			apperr.Respond(w, apperr.Resource("order not found"))
			return
		}
		apperr.Respond(w, err)
		return
	}

	cur, err := db.OrderItemsCollection.Find(ctx, bson.M{"orderid": orderID})
	if err != nil {
		apperr.Respond(w, err)
		return
	}
	var items []models.OrderItem
	if err := cur.All(ctx, &items); err != nil {
		apperr.Respond(w, err)
		return
	}

	allowed := order.BuyerID == userID
	if !allowed {
		for _, item := range items {
			if item.FarmerID == userID {
				allowed = true
				break
			}
		}
	}
	if !allowed {
		n, err := db.DeliveriesCollection.CountDocuments(ctx, bson.M{"orderid": orderID, "supplierid": userID})
		if err != nil {
			apperr.Respond(w, err)
			return
		}
		allowed = n > 0
	}
	if !allowed {
		apperr.Respond(w, apperr.Permission("not your order"))
		return
	}

	var delivery *models.Delivery
	var d models.Delivery
	if err := db.DeliveriesCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&d); err == nil {
		delivery = &d
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":  true,
		"order":    order,
		"items":    items,
		"delivery": delivery,
	})
}
