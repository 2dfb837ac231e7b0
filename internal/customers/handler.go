package customers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailops/internal/httpapi"
	"retailops/internal/logger"
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
		customers := v1.Group("/customers")
		{
			customers.GET("", h.ListCustomers)
			customers.POST("", h.CreateCustomer)
			customers.GET("/:id", h.GetCustomer)
			customers.PUT("/:id", h.UpdateCustomer)
			customers.DELETE("/:id", h.DeleteCustomer)
			customers.POST("/:id/tags", h.AddTag)
			customers.DELETE("/:id/tags/:tag", h.RemoveTag)
		}
	}
}

// ListCustomers godoc
// @Summary      List customers
// @Description  Get customers, newest first, optionally filtered by tag or a name/phone search
// @Tags         customers
// @Produce      json
// @Param        tag     query     string  false  "Only customers carrying this tag"
// @Param        search  query     string  false  "Case-insensitive match on name or phone"
// @Param        limit   query     int     false  "Maximum number of customers to return (1-1000)" default(100)
// @Param        offset  query     int     false  "Number of customers to skip" default(0)
// @Success      200     {object}  ListResult
// @Failure      500     {object}  errors.ErrorResponse
// @Router       /customers [get]
func (h *Handler) ListCustomers(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), ListFilter{
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
		Limit:  httpapi.ParseLimit(c.Query("limit")),
		Offset: httpapi.ParseOffset(c.Query("offset")),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateCustomer godoc
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        customer  body      CreateCustomerRequest  true  "Customer data"
// @Success      201       {object}  models.Customer
// @Failure      400       {object}  errors.ErrorResponse
// @Failure      409       {object}  errors.ErrorResponse
// @Failure      500       {object}  errors.ErrorResponse
// @Router       /customers [post]
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	customer, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetCustomer godoc
// @Summary      Get a customer by ID
// @Tags         customers
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  models.Customer
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /customers/{id} [get]
func (h *Handler) GetCustomer(c *gin.Context) {
	customer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer godoc
// @Summary      Update a customer
// @Description  Only the fields present in the body are changed
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id        path      string                 true  "Customer ID"
// @Param        customer  body      UpdateCustomerRequest  true  "Fields to change"
// @Success      200       {object}  models.Customer
// @Failure      400       {object}  errors.ErrorResponse
// @Failure      404       {object}  errors.ErrorResponse
// @Failure      500       {object}  errors.ErrorResponse
// @Router       /customers/{id} [put]
func (h *Handler) UpdateCustomer(c *gin.Context) {
	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	customer, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer godoc
// @Summary      Delete a customer
// @Tags         customers
// @Param        id   path  string  true  "Customer ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /customers/{id} [delete]
func (h *Handler) DeleteCustomer(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddTag godoc
// @Summary      Add a tag to a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id   path      string      true  "Customer ID"
// @Param        tag  body      TagRequest  true  "Tag to add"
// @Success      200  {object}  models.Customer
// @Failure      400  {object}  errors.ErrorResponse
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /customers/{id}/tags [post]
func (h *Handler) AddTag(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	customer, err := h.service.AddTag(c.Request.Context(), c.Param("id"), req.Tag)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// RemoveTag godoc
// @Summary      Remove a tag from a customer
// @Tags         customers
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Param        tag  path      string  true  "Tag to remove"
// @Success      200  {object}  models.Customer
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /customers/{id}/tags/{tag} [delete]
func (h *Handler) RemoveTag(c *gin.Context) {
	customer, err := h.service.RemoveTag(c.Request.Context(), c.Param("id"), c.Param("tag"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}
