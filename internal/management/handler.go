package management

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailops/internal/httpapi"
	"retailops/internal/logger"
	"retailops/pkg/cel"
)

type Handler struct {
	httpapi.BaseHandler
	Service Service
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: httpapi.BaseHandler{Logger: log},
		Service:     service,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		rules := v1.Group("/rules/automation")
		{
			rules.GET("", h.ListRules)
			rules.POST("", h.CreateRule)
			rules.GET("/expression-examples", h.GetExpressionExamples)
			rules.GET("/:id", h.GetRule)
			rules.PUT("/:id", h.UpdateRule)
			rules.PATCH("/:id/enabled", h.SetRuleEnabled)
			rules.DELETE("/:id", h.DeleteRule)
			rules.GET("/:id/versions", h.GetRuleVersions)
			rules.GET("/:id/audit", h.GetRuleAuditLogs)
		}

		audit := v1.Group("/audit")
		{
			audit.GET("/logs", h.GetAuditLogs)
		}
	}
}

// ListRules godoc
// @Summary      List automation rules
// @Description  Get every automation rule, enabled or not, in evaluation order
// @Tags         automation-rules
// @Produce      json
// @Success      200  {array}   automation.AutomationRule
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/automation [get]
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.Service.ListRules(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// CreateRule godoc
// @Summary      Create an automation rule
// @Description  The new rule is appended to the end of the evaluation order
// @Tags         automation-rules
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header    string             false  "Recorded as changed_by"
// @Param        rule       body      CreateRuleRequest  true   "Automation rule"
// @Success      201        {object}  automation.AutomationRule
// @Failure      400        {object}  errors.ErrorResponse
// @Failure      500        {object}  errors.ErrorResponse
// @Router       /rules/automation [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	rule, err := h.Service.CreateRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// GetRule godoc
// @Summary      Get an automation rule by ID
// @Tags         automation-rules
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}  automation.AutomationRule
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/automation/{id} [get]
func (h *Handler) GetRule(c *gin.Context) {
	rule, err := h.Service.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// UpdateRule godoc
// @Summary      Update an automation rule
// @Description  Fields left out of the body keep their value. Conditions and actions are replaced as a whole.
// @Tags         automation-rules
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header    string             false  "Recorded as changed_by"
// @Param        id         path      string             true   "Rule ID"
// @Param        rule       body      UpdateRuleRequest  true   "Fields to change"
// @Success      200        {object}  automation.AutomationRule
// @Failure      400        {object}  errors.ErrorResponse
// @Failure      404        {object}  errors.ErrorResponse
// @Failure      500        {object}  errors.ErrorResponse
// @Router       /rules/automation/{id} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	rule, err := h.Service.UpdateRule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// SetRuleEnabled godoc
// @Summary      Enable or disable an automation rule
// @Tags         automation-rules
// @Accept       json
// @Produce      json
// @Param        id     path      string             true  "Rule ID"
// @Param        state  body      SetEnabledRequest  true  "Desired state"
// @Success      200    {object}  automation.AutomationRule
// @Failure      400    {object}  errors.ErrorResponse
// @Failure      404    {object}  errors.ErrorResponse
// @Router       /rules/automation/{id}/enabled [patch]
func (h *Handler) SetRuleEnabled(c *gin.Context) {
	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	rule, err := h.Service.SetRuleEnabled(c.Request.Context(), c.Param("id"), *req.IsEnabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// DeleteRule godoc
// @Summary      Delete an automation rule
// @Tags         automation-rules
// @Param        id   path  string  true  "Rule ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/automation/{id} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	if err := h.Service.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRuleVersions godoc
// @Summary      Get the version history of a rule
// @Tags         automation-rules
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {array}   RuleVersion
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/automation/{id}/versions [get]
func (h *Handler) GetRuleVersions(c *gin.Context) {
	versions, err := h.Service.GetRuleVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

// GetRuleAuditLogs godoc
// @Summary      Get audit logs for a rule
// @Tags         automation-rules
// @Produce      json
// @Param        id     path      string  true   "Rule ID"
// @Param        limit  query     int     false  "Maximum number of logs to return (1-1000)" default(100)
// @Success      200    {array}   AuditLog
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /rules/automation/{id}/audit [get]
func (h *Handler) GetRuleAuditLogs(c *gin.Context) {
	id := c.Param("id")
	logs, err := h.Service.GetAuditLogs(c.Request.Context(), AuditFilter{
		RuleID:   &id,
		RuleType: RuleTypeAutomation,
		Limit:    httpapi.ParseLimit(c.Query("limit")),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetAuditLogs godoc
// @Summary      Get audit logs
// @Description  Get rule audit logs, newest first, optionally filtered by rule ID and rule type
// @Tags         audit
// @Produce      json
// @Param        rule_id    query     string  false  "Filter by rule ID"
// @Param        rule_type  query     string  false  "Filter by rule type"
// @Param        limit      query     int     false  "Maximum number of logs to return (1-1000)" default(100)
// @Success      200        {array}   AuditLog
// @Failure      500        {object}  errors.ErrorResponse
// @Router       /audit/logs [get]
func (h *Handler) GetAuditLogs(c *gin.Context) {
	filter := AuditFilter{
		RuleType: c.Query("rule_type"),
		Limit:    httpapi.ParseLimit(c.Query("limit")),
	}
	if ruleID := c.Query("rule_id"); ruleID != "" {
		filter.RuleID = &ruleID
	}

	logs, err := h.Service.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetExpressionExamples godoc
// @Summary      List example rule expressions
// @Description  Named CEL expressions that pass rule validation, for use as the expression field
// @Tags         automation-rules
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /rules/automation/expression-examples [get]
func (h *Handler) GetExpressionExamples(c *gin.Context) {
	c.JSON(http.StatusOK, cel.PredicateExamples)
}
