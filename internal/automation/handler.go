package automation

import (
	"retailops/internal/config_handler"
	"retailops/internal/logger"
	"retailops/pkg/models"
)

type Handler = config_handler.Handler

// NewHandler reloads cache whenever an automation rule changes.
func NewHandler(cache *RuleCache, log logger.Logger) *Handler {
	return config_handler.NewHandlerWithReloader(
		models.EventTypeAutomationRuleUpdated,
		models.ServiceTypeAutomation,
		cache,
		log,
	)
}
