package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agrolink/apperr"
	"agrolink/db"
	"agrolink/globals"
	"agrolink/logger"
	"agrolink/middleware"
	"agrolink/models"
	"agrolink/notify"
	"agrolink/orders"
	"agrolink/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	Registry *Registry
	Hub      *Hub
	Orders   *orders.Service
	Notifier *notify.Service
}

func NewHandler(registry *Registry, hub *Hub, ordersvc *orders.Service, notifier *notify.Service) *Handler {
	return &Handler{Registry: registry, Hub: hub, Orders: ordersvc, Notifier: notifier}
}

type pingRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Heading   float64 `json:"heading"`
	Speed     float64 `json:"speed"`
}

// IngestLocation records a supplier GPS ping into the registry. Pings are
// not persisted; the registry is the only consumer.
func (h *Handler) IngestLocation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Respond(w, apperr.Validation("invalid request payload"))
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		apperr.Respond(w, apperr.Validation("coordinates out of range"))
		return
	}

	supplierID := utils.GetUserIDFromRequest(r)
	h.Registry.Ingest(supplierID, req.Latitude, req.Longitude, req.Heading, req.Speed, time.Now())
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// UpdatePresence toggles a supplier on or off duty. Going off duty hides
// the supplier from the live map immediately, regardless of ping recency.
func (h *Handler) UpdatePresence(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Respond(w, apperr.Validation("invalid request payload"))
		return
	}

	supplierID := utils.GetUserIDFromRequest(r)
	h.Registry.SetPresence(supplierID, req.Active, time.Now())
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "active": req.Active})
}

// GetLiveSuppliers returns the current live snapshot over plain HTTP, for
// clients that want the map state without holding a websocket open.
func (h *Handler) GetLiveSuppliers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":   true,
		"suppliers": h.Registry.Snapshot(time.Now()),
	})
}

// TrackWS upgrades to a websocket and streams tracking events. The room is
// chosen by query param: ?order=<id> follows one delivery, ?supplier=<id>
// follows one supplier, no param watches the whole fleet. Every connection
// starts with a snapshot event so the client can render before the first
// incremental update arrives.
func (h *Handler) TrackWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, err := middleware.ValidateRawToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room := RoomAllSuppliers
	if orderID := r.URL.Query().Get("order"); orderID != "" {
		room = RoomOrder(orderID)
	} else if supplierID := r.URL.Query().Get("supplier"); supplierID != "" {
		room = RoomSupplier(supplierID)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("tracking ws upgrade", "error", err)
		return
	}

	client := &Client{
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Room:   room,
		UserID: claims.UserID,
	}
	h.Hub.Register(client)

	if err := conn.WriteMessage(websocket.TextMessage, snapshotEvent(h.Registry.Snapshot(time.Now()))); err != nil {
		h.Hub.Unregister(client)
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Handler) writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump drains the connection so pings and close frames are processed;
// tracking clients never send application data.
func (h *Handler) readPump(c *Client) {
	defer func() {
		h.Hub.Unregister(c)
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

type assignDeliveryRequest struct {
	OrderID    string `json:"orderId"`
	SupplierID string `json:"supplierId"`
}

// AssignDelivery attaches a supplier to an order. Only a farmer with a
// line item in the order may assign, the order must have passed the
// confirmation stage, and an order carries at most one delivery.
func (h *Handler) AssignDelivery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req assignDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Respond(w, apperr.Validation("invalid request payload"))
		return
	}
	if req.OrderID == "" || req.SupplierID == "" {
		apperr.Respond(w, apperr.Validation("orderId and supplierId are required"))
		return
	}
	callerID := utils.GetUserIDFromRequest(r)

	var delivery models.Delivery
	var buyerID, orderNumber string
	err := h.withTxn(r.Context(), func(sc mongo.SessionContext) error {
		var order models.Order
		if err := db.OrdersCollection.FindOne(sc, bson.M{"orderid": req.OrderID}).Decode(&order); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.Resource("order not found")
			}
			return err
		}
		buyerID, orderNumber = order.BuyerID, order.OrderNumber

		n, err := db.OrderItemsCollection.CountDocuments(sc, bson.M{"orderid": req.OrderID, "farmerid": callerID})
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.Permission("only a farmer on this order can assign a supplier")
		}

		switch order.Status {
		case models.OrderConfirmed, models.OrderPartiallyConfirmed, models.OrderShipped:
		default:
			return apperr.Conflict("order cannot be assigned from status " + order.Status)
		}

		var supplier models.User
		if err := db.UserCollection.FindOne(sc, bson.M{"userid": req.SupplierID}).Decode(&supplier); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.Resource("supplier not found")
			}
			return err
		}
		if !utils.HasRole(supplier.Role, globals.RoleSupplier) {
			return apperr.Validation("user is not a supplier")
		}

		existing, err := db.DeliveriesCollection.CountDocuments(sc, db.ActiveDeliveryFilter(req.OrderID))
		if err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("order already has an active delivery")
		}

		now := time.Now()
		delivery = models.Delivery{
			DeliveryID:      utils.GetUUID(),
			OrderID:         req.OrderID,
			SupplierID:      req.SupplierID,
			Status:          models.DeliveryAssigned,
			StatusUpdatedAt: now,
			CreatedAt:       now,
		}
		if _, err := db.DeliveriesCollection.InsertOne(sc, delivery); err != nil {
			return err
		}
		if err := h.Notifier.WriteInbox(sc, req.SupplierID,
			fmt.Sprintf("You were assigned delivery for order %s", orderNumber), models.NotifDeliveryAssigned); err != nil {
			return err
		}
		return h.Notifier.WriteInbox(sc, order.BuyerID,
			fmt.Sprintf("A supplier was assigned to order %s", orderNumber), models.NotifDeliveryUpdate)
	})
	if err != nil {
		apperr.Respond(w, err)
		return
	}

	h.Registry.SetDelivery(req.SupplierID, req.OrderID, models.DeliveryAssigned)
	h.Notifier.PushLive(req.SupplierID, fmt.Sprintf("You were assigned delivery for order %s", orderNumber), models.NotifDeliveryAssigned)
	h.Notifier.PushLive(buyerID, fmt.Sprintf("A supplier was assigned to order %s", orderNumber), models.NotifDeliveryUpdate)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "delivery": delivery})
}

// UpdateDeliveryStatus moves the delivery through its forward-only stages.
// Only the assigned supplier may call it; reaching delivered also settles
// the parent order in the same transaction.
func (h *Handler) UpdateDeliveryStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("orderid")
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Respond(w, apperr.Validation("invalid request payload"))
		return
	}
	if _, ok := deliveryRank[req.Status]; !ok && !deliveryTerminal(req.Status) {
		apperr.Respond(w, apperr.Validation("unknown delivery status "+req.Status))
		return
	}
	callerID := utils.GetUserIDFromRequest(r)

	var afterCommit func()
	var supplierID, buyerID, orderNumber string
	err := h.withTxn(r.Context(), func(sc mongo.SessionContext) error {
		afterCommit = nil

		// A failed/cancelled delivery may coexist with its replacement, so
		// the lookup must resolve to the active doc, not the first inserted.
		var delivery models.Delivery
		if err := db.DeliveriesCollection.FindOne(sc, db.ActiveDeliveryFilter(orderID)).Decode(&delivery); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.Resource("no active delivery for this order")
			}
			return err
		}

		var order models.Order
		if err := db.OrdersCollection.FindOne(sc, bson.M{"orderid": orderID}).Decode(&order); err != nil {
			return err
		}
		buyerID, orderNumber = order.BuyerID, order.OrderNumber
		if delivery.SupplierID != callerID {
			return apperr.Permission("only the assigned supplier can update this delivery")
		}
		if !CanTransitionDelivery(delivery.Status, req.Status) {
			return apperr.Conflict("delivery cannot move from " + delivery.Status + " to " + req.Status)
		}
		supplierID = delivery.SupplierID

		if _, err := db.DeliveriesCollection.UpdateOne(sc,
			bson.M{"deliveryid": delivery.DeliveryID},
			bson.M{"$set": bson.M{"status": req.Status, "statusupdatedat": time.Now()}}); err != nil {
			return err
		}

		if req.Status == models.DeliveryDelivered {
			fire, err := h.Orders.MarkDeliveredTx(sc, orderID)
			if err != nil {
				return err
			}
			afterCommit = fire
		}
		return nil
	})
	if err != nil {
		apperr.Respond(w, err)
		return
	}

	if afterCommit != nil {
		afterCommit()
	} else {
		// Delivered is announced by the order settlement; every other stage
		// gets its own buyer notification here.
		msg := fmt.Sprintf("Delivery for order %s is now %s", orderNumber, req.Status)
		if err := h.Notifier.Notify(r.Context(), buyerID, msg, models.NotifDeliveryUpdate); err != nil {
			logger.Warn("delivery status notification failed", "order", orderID, "err", err)
		}
	}
	h.Registry.SetDelivery(supplierID, orderID, req.Status)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "status": req.Status})
}

func (h *Handler) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := db.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
