package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/constants"
	"retailops/internal/logger"
	"retailops/pkg/errors"
)

func TestParseLimit(t *testing.T) {
	assert.Equal(t, constants.DefaultLimit, ParseLimit(""))
	assert.Equal(t, constants.DefaultLimit, ParseLimit("abc"))
	assert.Equal(t, constants.DefaultLimit, ParseLimit("0"))
	assert.Equal(t, constants.DefaultLimit, ParseLimit(fmt.Sprint(constants.MaxLimit+1)))
	assert.Equal(t, 25, ParseLimit("25"))
}

func TestParseOffset(t *testing.T) {
	assert.Equal(t, 0, ParseOffset(""))
	assert.Equal(t, 0, ParseOffset("-3"))
	assert.Equal(t, 40, ParseOffset("40"))
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &BaseHandler{Logger: logger.NopLogger()}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not found", err: errors.ErrNotFound.WithDetail("message", "customer not found"), status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "validation", err: errors.ErrValidation, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "plain error", err: fmt.Errorf("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp errors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.ErrorCode)
		})
	}
}
