package orders

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailops/internal/constants"
	"retailops/internal/httpapi"
	"retailops/internal/logger"
	"retailops/pkg/models"
)

type Handler struct {
	httpapi.BaseHandler
	service Service
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: httpapi.BaseHandler{Logger: log},
		service:     service,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.GET("", h.ListOrders)
			orders.POST("", h.CreateOrder)
			orders.GET("/:id", h.GetOrder)
			orders.PATCH("/:id/status", h.UpdateOrderStatus)
		}
	}
}

// CreateOrder godoc
// @Summary      Create an order
// @Description  Stores the order, upserts the customer by phone and runs ORDER_CREATED automation rules before responding
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string              false  "Repeated keys within the TTL are rejected"
// @Param        order            body      CreateOrderRequest  true   "Order data"
// @Success      201              {object}  CreateOrderResponse
// @Failure      400              {object}  errors.ErrorResponse
// @Failure      409              {object}  errors.ErrorResponse
// @Failure      503              {object}  errors.ErrorResponse
// @Router       /orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	resp, err := h.service.CreateOrder(c.Request.Context(), req, c.GetHeader(constants.HeaderIdempotencyKey))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetOrder godoc
// @Summary      Get an order by ID
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  models.Order
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders godoc
// @Summary      List orders
// @Description  Newest first
// @Tags         orders
// @Produce      json
// @Param        status       query     string  false  "Filter by status"
// @Param        customer_id  query     string  false  "Filter by customer"
// @Param        limit        query     int     false  "Maximum number of orders to return (1-1000)" default(100)
// @Param        offset       query     int     false  "Number of orders to skip" default(0)
// @Success      200          {object}  ListResult
// @Failure      400          {object}  errors.ErrorResponse
// @Router       /orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	result, err := h.service.ListOrders(c.Request.Context(), ListFilter{
		Status:     models.OrderStatus(c.Query("status")),
		CustomerID: c.Query("customer_id"),
		Limit:      httpapi.ParseLimit(c.Query("limit")),
		Offset:     httpapi.ParseOffset(c.Query("offset")),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateOrderStatus godoc
// @Summary      Change an order's status
// @Description  Does not run automation rules
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path      string               true  "Order ID"
// @Param        status  body      UpdateStatusRequest  true  "New status"
// @Success      200     {object}  models.Order
// @Failure      400     {object}  errors.ErrorResponse
// @Failure      404     {object}  errors.ErrorResponse
// @Router       /orders/{id}/status [patch]
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
