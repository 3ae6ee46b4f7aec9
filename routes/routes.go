package routes

import (
	"net/http"

	"agrolink/auth"
	"agrolink/filemgr"
	"agrolink/globals"
	"agrolink/middleware"
	"agrolink/notify"
	"agrolink/orders"
	"agrolink/products"
	"agrolink/ratelim"
	"agrolink/receipts"
	"agrolink/tracking"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir(filemgr.UploadDir()))
}

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
}

func AddProductRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/products", products.GetProducts)
	router.GET("/api/products/:productid", products.GetProduct)
	router.POST("/api/products",
		rl.Limit(middleware.Authenticate(middleware.RequireRole(globals.RoleFarmer, products.CreateProduct))))
	router.PUT("/api/products/:productid",
		rl.Limit(middleware.Authenticate(middleware.RequireRole(globals.RoleFarmer, products.EditProduct))))
}

func AddOrderRoutes(router *httprouter.Router, svc *orders.Service, rl *ratelim.RateLimiter) {
	router.POST("/api/orders",
		rl.Limit(middleware.Authenticate(middleware.RequireRole(globals.RoleBuyer, svc.CreateOrder))))
	router.GET("/api/orders", middleware.Authenticate(svc.GetMyOrders))
	router.GET("/api/orders/:orderid", middleware.Authenticate(svc.GetOrder))
	router.PATCH("/api/orders/:orderid/items/:itemid",
		middleware.Authenticate(middleware.RequireRole(globals.RoleFarmer, svc.UpdateLineItemStatus)))
	router.PATCH("/api/orders/:orderid/status", middleware.Authenticate(svc.UpdateOrderStatus))
	router.POST("/api/orders/:orderid/payment",
		rl.Limit(middleware.Authenticate(middleware.RequireRole(globals.RoleBuyer, svc.InitiatePayment))))

	// Gateway-facing; authenticated by reference + idempotency lock, not JWT.
	router.POST("/api/payments/callback", rl.Limit(svc.PaymentCallback))

	router.GET("/api/orders/:orderid/receipt", middleware.Authenticate(receipts.GetReceipt))
}

func AddNotificationRoutes(router *httprouter.Router) {
	router.GET("/api/notifications", middleware.Authenticate(notify.GetNotifications))
	router.PATCH("/api/notifications/:notifid/read", middleware.Authenticate(notify.MarkNotificationRead))
}

func AddTrackingRoutes(router *httprouter.Router, h *tracking.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/track/location",
		middleware.Authenticate(middleware.RequireRole(globals.RoleSupplier, h.IngestLocation)))
	router.POST("/api/track/presence",
		middleware.Authenticate(middleware.RequireRole(globals.RoleSupplier, h.UpdatePresence)))
	router.GET("/api/track/suppliers", middleware.Authenticate(h.GetLiveSuppliers))
	router.GET("/ws/track", middleware.Authenticate(h.TrackWS))

	router.POST("/api/deliveries",
		rl.Limit(middleware.Authenticate(middleware.RequireRole(globals.RoleFarmer, h.AssignDelivery))))
	router.PATCH("/api/deliveries/:orderid/status",
		middleware.Authenticate(middleware.RequireRole(globals.RoleSupplier, h.UpdateDeliveryStatus)))
}
