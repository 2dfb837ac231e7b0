package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"retailops/internal/constants"
	"retailops/internal/logger"
	"retailops/pkg/errors"
)

// BaseHandler holds what every HTTP handler in the services shares.
type BaseHandler struct {
	Logger logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	status := errors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	} else {
		h.Logger.DebugwCtx(c.Request.Context(), "Request rejected", "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(status, errors.ToErrorResponse(err))
}

func (h *BaseHandler) HandleBindError(c *gin.Context, err error) {
	appErr := errors.ErrValidation.WithCause(err).WithDetail("message", err.Error())
	c.JSON(http.StatusBadRequest, errors.ToErrorResponse(appErr))
}

func ParseLimit(limitStr string) int {
	if limitStr == "" {
		return constants.DefaultLimit
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > constants.MaxLimit {
		return constants.DefaultLimit
	}
	return parsed
}

func ParseOffset(offsetStr string) int {
	parsed, err := strconv.Atoi(offsetStr)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
