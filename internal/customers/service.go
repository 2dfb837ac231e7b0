package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"retailops/internal/automation"
	"retailops/internal/constants"
	"retailops/internal/logger"
	pkgerrors "retailops/pkg/errors"
	"retailops/pkg/models"
)

type Service interface {
	Get(ctx context.Context, id string) (*models.Customer, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Create(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error)
	Update(ctx context.Context, id string, req UpdateCustomerRequest) (*models.Customer, error)
	AddTag(ctx context.Context, id, tag string) (*models.Customer, error)
	RemoveTag(ctx context.Context, id, tag string) (*models.Customer, error)
	Delete(ctx context.Context, id string) error
	ResolveForOrder(ctx context.Context, contact OrderContact) (*models.Customer, error)
}

// ActivityRecorder appends an entry to the activity feed.
type ActivityRecorder interface {
	Record(ctx context.Context, description string, entityType models.EntityType, entityID string) error
}

type service struct {
	repo     Repository
	locked   Repository
	locker   automation.Locker
	activity ActivityRecorder
	logger   logger.Logger
	now      func() time.Time
}

type ServiceOption func(*service)

// WithLocker shares the lock the automation engine takes, so manual edits
// and rule actions never overwrite each other's tag changes.
func WithLocker(locker automation.Locker) ServiceOption {
	return func(s *service) {
		s.locker = locker
	}
}

func WithActivity(recorder ActivityRecorder) ServiceOption {
	return func(s *service) {
		s.activity = recorder
	}
}

func WithLogger(log logger.Logger) ServiceOption {
	return func(s *service) {
		s.logger = log
	}
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{
		repo:   repo,
		locked: ForUpdate(repo),
		logger: logger.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = automation.NewKeyedMutex()
	}
	return s
}

func (s *service) Get(ctx context.Context, id string) (*models.Customer, error) {
	customer, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if customer == nil {
		return nil, notFound(id)
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Limit <= 0 || filter.Limit > constants.MaxLimit {
		filter.Limit = constants.DefaultLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Tag = strings.TrimSpace(filter.Tag)
	filter.Search = strings.TrimSpace(filter.Search)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return &ListResult{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *service) Create(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	if err := firstError(validateName(req.Name), validatePhone(req.Phone), validateEmail(req.Email)); err != nil {
		return nil, validation(err)
	}

	phone := strings.TrimSpace(req.Phone)
	existing, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if existing != nil {
		return nil, pkgerrors.ErrConflict.WithDetail("message", fmt.Sprintf("customer with phone '%s' already exists", phone))
	}

	now := s.now()
	customer := &models.Customer{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Phone:     phone,
		Email:     strings.TrimSpace(req.Email),
		Address:   strings.TrimSpace(req.Address),
		Tags:      NormalizeTags(req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Upsert(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.record(ctx, fmt.Sprintf("Added new customer %s.", customer.Name), customer.ID)
	return customer, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateCustomerRequest) (*models.Customer, error) {
	var errs []error
	if req.Name != nil {
		errs = append(errs, validateName(*req.Name))
	}
	if req.Phone != nil {
		errs = append(errs, validatePhone(*req.Phone))
	}
	if req.Email != nil {
		errs = append(errs, validateEmail(*req.Email))
	}
	if err := firstError(errs...); err != nil {
		return nil, validation(err)
	}

	customer, err := s.mutate(ctx, id, func(c *models.Customer) {
		if req.Name != nil {
			c.Name = strings.TrimSpace(*req.Name)
		}
		if req.Phone != nil {
			c.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Email != nil {
			c.Email = strings.TrimSpace(*req.Email)
		}
		if req.Address != nil {
			c.Address = strings.TrimSpace(*req.Address)
		}
		if req.Tags != nil {
			c.Tags = NormalizeTags(*req.Tags)
		}
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, fmt.Sprintf("Updated customer %s.", customer.Name), customer.ID)
	return customer, nil
}

func (s *service) AddTag(ctx context.Context, id, tag string) (*models.Customer, error) {
	tag = strings.TrimSpace(tag)
	if err := validateTag(tag); err != nil {
		return nil, validation(err)
	}
	return s.mutate(ctx, id, func(c *models.Customer) {
		c.AddTag(tag)
	})
}

func (s *service) RemoveTag(ctx context.Context, id, tag string) (*models.Customer, error) {
	tag = strings.TrimSpace(tag)
	return s.mutate(ctx, id, func(c *models.Customer) {
		kept := make([]string, 0, len(c.Tags))
		for _, t := range c.Tags {
			if t != tag {
				kept = append(kept, t)
			}
		}
		c.Tags = kept
	})
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return notFound(id)
		}
		return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	s.record(ctx, fmt.Sprintf("Deleted customer %s.", id), id)
	return nil
}

// ResolveForOrder finds the customer by phone, creating one tagged as new
// when none exists. An existing customer's name and address are refreshed
// from the order form. Tags are never touched here.
func (s *service) ResolveForOrder(ctx context.Context, contact OrderContact) (*models.Customer, error) {
	if err := firstError(validateName(contact.Name), validatePhone(contact.Phone)); err != nil {
		return nil, validation(err)
	}
	phone := strings.TrimSpace(contact.Phone)

	existing, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	if existing == nil {
		now := s.now()
		customer := &models.Customer{
			ID:        uuid.New().String(),
			Name:      strings.TrimSpace(contact.Name),
			Phone:     phone,
			Address:   strings.TrimSpace(contact.Address),
			Tags:      []string{constants.NewCustomerTag},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Upsert(ctx, customer); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
		}
		return customer, nil
	}

	return s.mutate(ctx, existing.ID, func(c *models.Customer) {
		c.Name = strings.TrimSpace(contact.Name)
		if addr := strings.TrimSpace(contact.Address); addr != "" {
			c.Address = addr
		}
	})
}

// mutate applies fn to a fresh copy of the customer under the customer lock.
func (s *service) mutate(ctx context.Context, id string, fn func(c *models.Customer)) (*models.Customer, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, pkgerrors.ErrServiceUnavailable.WithCause(err)
	}
	defer unlock()

	current, err := s.locked.Find(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if current == nil {
		return nil, notFound(id)
	}

	updated := current.Clone()
	fn(updated)
	updated.UpdatedAt = s.now()

	if err := s.locked.Upsert(ctx, updated); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return updated, nil
}

func (s *service) record(ctx context.Context, description, customerID string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, description, models.EntityTypeCustomer, customerID); err != nil {
		s.logger.WarnwCtx(ctx, "Failed to record customer activity", "customer_id", customerID, "error", err)
	}
}

func notFound(id string) error {
	return pkgerrors.ErrNotFound.WithDetail("message", fmt.Sprintf("customer '%s' not found", id)).WithDetail("id", id)
}

func validation(err error) error {
	return pkgerrors.ErrValidation.WithCause(err).WithDetail("message", err.Error())
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
