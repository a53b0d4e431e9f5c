package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/pagination"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService  service.OrderService
	vendorService service.VendorService
}

func NewOrderHandler(orderService service.OrderService, vendorService service.VendorService) *OrderHandler {
	return &OrderHandler{orderService: orderService, vendorService: vendorService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", middleware.RequireRole("customer", "vendor", "admin"), h.PlaceOrder)
		orders.GET("/mine", middleware.RequireRole("customer", "vendor", "admin"), h.ListMyOrders)
		orders.GET("/vendor", middleware.RequireRole("vendor"), h.ListVendorOrders)
		orders.GET("/:id", middleware.RequireRole("customer", "vendor", "admin"), h.GetOrder)
		orders.POST("/:id/cancel", middleware.RequireRole("customer", "admin"), h.CancelOrder)
	}
}

// PlaceOrder creates an order against one vendor
// @Summary      Place an order
// @Description  Prices items from the catalog, decrements stock and records the order atomically
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.PlaceOrderRequest  true  "Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      422      {object}  response.Response "Insufficient stock"
// @Router       /api/orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customerID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), customerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListMyOrders pages the caller's purchase history
// @Summary      List own orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Limit"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/orders/mine [get]
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	customerID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return
	}

	params := pagination.Parse(c)
	orders, total, err := h.orderService.ListCustomerOrders(c.Request.Context(), customerID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: orders, Page: params.Page, Limit: params.Limit, Total: total,
	}))
}

// ListVendorOrders pages orders received by the caller's store
// @Summary      List store orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Limit"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/orders/vendor [get]
func (h *OrderHandler) ListVendorOrders(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return
	}

	vendor, err := h.vendorService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	vendorID, err := uuid.Parse(vendor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "corrupt vendor identity"))
		return
	}

	params := pagination.Parse(c)
	orders, total, err := h.orderService.ListVendorOrders(c.Request.Context(), vendorID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: orders, Page: params.Page, Limit: params.Limit, Total: total,
	}))
}

// GetOrder returns one order
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid order id"))
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelOrder cancels a pending or paid order
// @Summary      Cancel an order
// @Description  Restores stock and marks the order cancelled; cancelled orders never count as revenue
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      400  {object}  response.Response "Order already shipped"
// @Failure      403  {object}  response.Response
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid order id"))
		return
	}

	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), actorID, orderID, middleware.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
