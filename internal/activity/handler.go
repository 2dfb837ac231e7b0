package activity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailops/internal/httpapi"
	"retailops/internal/logger"
	"retailops/pkg/models"
)

type Handler struct {
	httpapi.BaseHandler
	service *Service
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: httpapi.BaseHandler{Logger: log},
		service:     service,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/activity", h.ListActivity)
	}
}

// ListActivity godoc
// @Summary      List activity feed
// @Description  Get activity entries, newest first, optionally filtered by entity
// @Tags         activity
// @Produce      json
// @Param        entity_type  query     string  false  "Filter by entity type (order, customer, system, automation, return, user)"
// @Param        entity_id    query     string  false  "Filter by entity ID"
// @Param        limit        query     int     false  "Maximum number of entries to return (1-1000)" default(100)
// @Param        offset       query     int     false  "Number of entries to skip" default(0)
// @Success      200          {object}  ListResult
// @Failure      400          {object}  errors.ErrorResponse
// @Failure      500          {object}  errors.ErrorResponse
// @Router       /activity [get]
func (h *Handler) ListActivity(c *gin.Context) {
	filter := ListFilter{
		EntityType: models.EntityType(c.Query("entity_type")),
		EntityID:   c.Query("entity_id"),
		Limit:      httpapi.ParseLimit(c.Query("limit")),
		Offset:     httpapi.ParseOffset(c.Query("offset")),
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
