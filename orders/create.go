package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"agrolink/apperr"
	"agrolink/db"
	"agrolink/globals"
	"agrolink/inventory"
	"agrolink/models"
	"agrolink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type createOrderRequest struct {
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	Shipping      models.ShippingInfo `json:"shipping"`
	PaymentMethod string              `json:"paymentMethod"`
	Notes         string              `json:"notes"`
}

func (req *createOrderRequest) validate() error {
	if len(req.Items) == 0 {
		return apperr.Validation("order must contain at least one item")
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return apperr.Validation("each item needs a product id and a positive quantity")
		}
	}
	s := req.Shipping
	if s.FullName == "" || s.Phone == "" || s.Address == "" || s.City == "" {
		return apperr.Validation("all shipping fields are required")
	}
	if req.PaymentMethod != models.PaymentMethodCOD && req.PaymentMethod != models.PaymentMethodOnline {
		return apperr.Validation("paymentMethod must be cod or online")
	}
	return nil
}

// CreateOrder places a new order: one transaction validating every product,
// reserving stock with a floor check, inserting the order and its line
// items, and writing the buyer/farmer inbox notifications. Any failure rolls
// the whole thing back; there are no partial orders.
func (s *Service) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	buyerID := utils.GetUserIDFromRequest(r)
	if buyerID == "" {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Respond(w, apperr.Validation("invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		apperr.Respond(w, err)
		return
	}

	deliveryFee := utils.ParseFloatEnv("DELIVERY_FEE", 50)
	now := time.Now()

	var order models.Order
	var items []models.OrderItem
	var pushes []pendingPush

	err := s.withTxn(r.Context(), func(sc mongo.SessionContext) error {
		items = items[:0]
		pushes = pushes[:0]

		var total float64
		farmers := make(map[string]bool)

		for _, it := range req.Items {
			var product models.Product
			err := db.ProductsCollection.FindOne(sc, bson.M{"productid": it.ProductID}).Decode(&product)
			if err != nil {
				if err == mongo.ErrNoDocuments {
					return apperr.Resource("product " + it.ProductID + " not found")
				}
				return err
			}

			var owner models.User
			err = db.UserCollection.FindOne(sc, bson.M{"userid": product.FarmerID}).Decode(&owner)
			if err != nil || !utils.HasRole(owner.Role, globals.RoleFarmer) {
				return apperr.Validation("product " + product.Name + " is not sold by a farmer")
			}

			if err := inventory.Reserve(sc, product.ProductID, it.Quantity); err != nil {
				switch {
				case errors.Is(err, inventory.ErrInsufficientStock):
					return apperr.Capacity("insufficient stock for " + product.Name)
				case errors.Is(err, inventory.ErrProductNotFound):
					return apperr.Resource("product " + it.ProductID + " not found")
				default:
					return err
				}
			}

			subtotal := product.Price * float64(it.Quantity)
			total += subtotal
			farmers[product.FarmerID] = true

			items = append(items, models.OrderItem{
				ItemID:          utils.GetUUID(),
				ProductID:       product.ProductID,
				FarmerID:        product.FarmerID,
				ProductName:     product.Name,
				Quantity:        it.Quantity,
				Price:           product.Price,
				Subtotal:        subtotal,
				Status:          models.ItemPending,
				StatusUpdatedAt: now,
			})
		}

		orderNumber, err := uniqueOrderNumber(sc)
		if err != nil {
			return err
		}

		paymentStatus := models.PaymentNA
		if req.PaymentMethod == models.PaymentMethodOnline {
			paymentStatus = models.PaymentPending
		}

		order = models.Order{
			OrderID:       utils.GetUUID(),
			OrderNumber:   orderNumber,
			BuyerID:       buyerID,
			TotalAmount:   total + deliveryFee,
			DeliveryFee:   deliveryFee,
			Status:        models.OrderProcessing,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: paymentStatus,
			Shipping:      req.Shipping,
			Notes:         req.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if _, err := db.OrdersCollection.InsertOne(sc, order); err != nil {
			return err
		}

		docs := make([]interface{}, 0, len(items))
		for i := range items {
			items[i].OrderID = order.OrderID
			docs = append(docs, items[i])
		}
		if _, err := db.OrderItemsCollection.InsertMany(sc, docs); err != nil {
			return err
		}

		buyerMsg := fmt.Sprintf("Order %s placed with %d item(s)", orderNumber, len(items))
		if err := s.notifier.WriteInbox(sc, buyerID, buyerMsg, models.NotifOrderPlaced); err != nil {
			return err
		}
		pushes = append(pushes, pendingPush{buyerID, buyerMsg, models.NotifOrderPlaced})

		for farmerID := range farmers {
			farmerMsg := fmt.Sprintf("New order %s contains your produce", orderNumber)
			if err := s.notifier.WriteInbox(sc, farmerID, farmerMsg, models.NotifNewOrder); err != nil {
				return err
			}
			pushes = append(pushes, pendingPush{farmerID, farmerMsg, models.NotifNewOrder})
		}

		return nil
	})
	if err != nil {
		apperr.Respond(w, err)
		return
	}

	s.firePushes(pushes)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success": true,
		"order":   order,
		"items":   items,
	})
}

// uniqueOrderNumber generates order numbers until one is free. The unique
// index on ordernumber remains the final arbiter; a raced duplicate aborts
// the transaction, which the session layer retries.
func uniqueOrderNumber(sc mongo.SessionContext) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		candidate := NewOrderNumber(time.Now())
		n, err := db.OrdersCollection.CountDocuments(sc, bson.M{"ordernumber": candidate})
		if err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
	}
	return "", apperr.External("could not allocate an order number")
}
