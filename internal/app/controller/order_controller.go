package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/service"
	"github.com/threadline/storefront-backend/internal/middleware"
	ws "github.com/threadline/storefront-backend/internal/websocket"
)

type OrderController struct {
	orderService service.OrderService
	hub          *ws.Hub
	upgrader     websocket.Upgrader
}

// NewOrderController wires order reads and status updates. Websocket
// upgrades are only accepted from allowedOrigins.
func NewOrderController(orderService service.OrderService, hub *ws.Hub, allowedOrigins []string) *OrderController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &OrderController{
		orderService: orderService,
		hub:          hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
	}
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required,oneof=pending paid packed shipped delivered cancelled"`
}

// GetOrders returns the user's orders, newest first
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		respondError(c, err, "list orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID returns one of the user's orders
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, id)
	if err != nil {
		respondError(c, err, "get order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// TrackOrder returns the public status of an order by number
// GET /api/v1/orders/track/:order_number
func (ctrl *OrderController) TrackOrder(c *gin.Context) {
	tracking, err := ctrl.orderService.TrackOrder(c.Param("order_number"))
	if err != nil {
		respondError(c, err, "track order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracking": tracking,
	})
}

// UpdateOrderStatus moves an order through fulfilment (Admin only)
// PUT /api/v1/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(id, req.Status)
	if err != nil {
		respondError(c, err, "update order status")
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": id,
		"status":   req.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// OrderUpdates streams status changes for the user's orders
// GET /api/v1/orders/ws
func (ctrl *OrderController) OrderUpdates(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, userID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("Order updates stream opened", map[string]interface{}{
		"user_id": userID,
	})
}
