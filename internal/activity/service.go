package activity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"retailops/internal/automation"
	"retailops/internal/constants"
	"retailops/internal/logger"
	"retailops/pkg/errors"
	"retailops/pkg/models"
)

type ListResult struct {
	Items  []models.ActivityLog `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// Service writes and reads the activity feed. It also serves as the
// automation engine's audit sink.
type Service struct {
	repo   Repository
	logger logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Service{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

func (s *Service) Record(ctx context.Context, description string, entityType models.EntityType, entityID string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return errors.ErrValidation.WithDetail("message", "activity description is required")
	}
	if entityType != "" && !entityType.IsKnown() {
		return errors.ErrValidation.WithDetail("message", "unknown entity type: "+string(entityType))
	}

	entry := &models.ActivityLog{
		ID:          uuid.New().String(),
		Timestamp:   s.now().UTC(),
		Description: description,
		EntityID:    entityID,
		EntityType:  entityType,
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}

	s.logger.DebugwCtx(ctx, "Activity recorded",
		"entity_type", entityType,
		"entity_id", entityID,
	)
	return nil
}

func (s *Service) Append(ctx context.Context, entry automation.AuditEntry) error {
	return s.Record(ctx, entry.Description, entry.EntityType, entry.EntityID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.EntityType != "" && !filter.EntityType.IsKnown() {
		return nil, errors.ErrValidation.WithDetail("message", "unknown entity type: "+string(filter.EntityType))
	}
	if filter.Limit <= 0 || filter.Limit > constants.MaxLimit {
		filter.Limit = constants.DefaultLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}

	return &ListResult{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}
