package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"retailops/internal/automation"
	"retailops/internal/constants"
	"retailops/internal/customers"
	"retailops/internal/logger"
	pkgerrors "retailops/pkg/errors"
	"retailops/pkg/logging"
	"retailops/pkg/metrics"
	"retailops/pkg/models"
	"retailops/pkg/tracing"
)

type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*CreateOrderResponse, error)
	UpdateOrderStatus(ctx context.Context, id string, req UpdateStatusRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter ListFilter) (*ListResult, error)
}

type CustomerResolver interface {
	ResolveForOrder(ctx context.Context, contact customers.OrderContact) (*models.Customer, error)
}

type IdempotencyGuard interface {
	Claim(ctx context.Context, key string, scope map[string]interface{}) (bool, error)
	Release(ctx context.Context, key string, scope map[string]interface{})
}

type ActivityRecorder interface {
	Record(ctx context.Context, description string, entityType models.EntityType, entityID string) error
}

// AutomationDispatcher runs automation rules for a stored order and returns
// once every action has been applied.
type AutomationDispatcher interface {
	OrderCreated(ctx context.Context, order models.Order) automation.Report
}

type service struct {
	repo        Repository
	customers   CustomerResolver
	idempotency IdempotencyGuard
	activity    ActivityRecorder
	dispatcher  AutomationDispatcher
	publisher   EventPublisher
	logger      logger.Logger
	now         func() time.Time
}

type ServiceOption func(*service)

func WithIdempotency(guard IdempotencyGuard) ServiceOption {
	return func(s *service) {
		s.idempotency = guard
	}
}

func WithActivity(recorder ActivityRecorder) ServiceOption {
	return func(s *service) {
		s.activity = recorder
	}
}

func WithDispatcher(dispatcher AutomationDispatcher) ServiceOption {
	return func(s *service) {
		s.dispatcher = dispatcher
	}
}

func WithPublisher(publisher EventPublisher) ServiceOption {
	return func(s *service) {
		s.publisher = publisher
	}
}

func WithLogger(log logger.Logger) ServiceOption {
	return func(s *service) {
		s.logger = log
	}
}

func NewService(repo Repository, resolver CustomerResolver, opts ...ServiceOption) Service {
	s := &service{
		repo:      repo,
		customers: resolver,
		logger:    logger.NopLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder stores a new order and then runs automation for it in the same
// call. Publishing the order_created event is best effort.
func (s *service) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*CreateOrderResponse, error) {
	ctx, span := tracing.Tracer(tracing.ScopeOrders).Start(ctx, "orders.create")
	defer span.End()

	if err := validateCreate(req); err != nil {
		return nil, validation(err)
	}

	scope := map[string]interface{}{"customer_phone": strings.TrimSpace(req.CustomerPhone)}
	if err := s.claim(ctx, idempotencyKey, scope); err != nil {
		return nil, err
	}

	order, err := s.persist(ctx, req)
	if err != nil {
		if s.idempotency != nil {
			s.idempotency.Release(ctx, idempotencyKey, scope)
		}
		return nil, err
	}

	metrics.OrdersCreatedTotal.WithLabelValues(string(order.PaymentMethod)).Inc()
	s.record(ctx, fmt.Sprintf("%s created new order #%s.", actor(ctx), order.ShortID()), order.ID)

	response := &CreateOrderResponse{Order: order}
	if s.dispatcher != nil {
		report := s.dispatcher.OrderCreated(ctx, *order)
		response.Automation = &report
	}

	if s.publisher != nil {
		if err := s.publisher.OrderCreated(ctx, *order); err != nil {
			s.logger.WarnwCtx(ctx, "Failed to publish order created event",
				"order_id", order.ID,
				"error", err,
			)
		}
	}

	s.logger.InfowCtx(ctx, "Order created",
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"total_amount", order.TotalAmount,
	)
	return response, nil
}

func (s *service) claim(ctx context.Context, key string, scope map[string]interface{}) error {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return nil
	}

	first, err := s.idempotency.Claim(ctx, key, scope)
	if err != nil {
		return pkgerrors.ErrServiceUnavailable.WithCause(err).WithDetail("message", "idempotency check unavailable")
	}
	if !first {
		return pkgerrors.ErrDuplicateRequest.WithDetail("message", fmt.Sprintf("request with idempotency key '%s' was already processed", key))
	}
	return nil
}

func (s *service) persist(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	customer, err := s.customers.ResolveForOrder(ctx, customers.OrderContact{
		Name:    req.CustomerName,
		Phone:   req.CustomerPhone,
		Address: req.ShippingAddress,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.OrderItem{
			ProductID:   strings.TrimSpace(item.ProductID),
			ProductName: strings.TrimSpace(item.ProductName),
			VariantID:   item.VariantID,
			Size:        item.Size,
			Color:       item.Color,
			Quantity:    item.Quantity,
			Price:       item.Price,
			CostPrice:   item.CostPrice,
		})
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCOD
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:              uuid.New().String(),
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		OrderDate:       now,
		Items:           items,
		TotalAmount:     models.ComputeTotal(items, req.Discount),
		Status:          models.OrderStatusPending,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   models.PaymentStatusUnpaid,
		Notes:           strings.TrimSpace(req.Notes),
		Discount:        req.Discount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return order, nil
}

// UpdateOrderStatus changes status fields only. It never triggers automation.
func (s *service) UpdateOrderStatus(ctx context.Context, id string, req UpdateStatusRequest) (*models.Order, error) {
	if err := validateStatus(req); err != nil {
		return nil, validation(err)
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	order.Status = req.Status
	if req.PaymentStatus != nil {
		order.PaymentStatus = *req.PaymentStatus
	}
	order.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateStatus(ctx, order); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.record(ctx, fmt.Sprintf("%s updated order #%s.", actor(ctx), order.ShortID()), order.ID)

	if s.publisher != nil && previous != order.Status {
		if err := s.publisher.OrderStatusChanged(ctx, *order, previous); err != nil {
			s.logger.WarnwCtx(ctx, "Failed to publish order status event",
				"order_id", order.ID,
				"error", err,
			)
		}
	}
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Limit <= 0 || filter.Limit > constants.MaxLimit {
		filter.Limit = constants.DefaultLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != "" && !filter.Status.IsKnown() {
		return nil, pkgerrors.ErrValidation.WithDetail("message", fmt.Sprintf("unknown order status '%s'", filter.Status))
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return &ListResult{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *service) record(ctx context.Context, description, orderID string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, description, models.EntityTypeOrder, orderID); err != nil {
		s.logger.WarnwCtx(ctx, "Failed to record order activity", "order_id", orderID, "error", err)
	}
}

func actor(ctx context.Context) string {
	if user := logging.GetUserID(ctx); user != "" {
		return user
	}
	return constants.DefaultChangedBy
}

func notFound(id string) error {
	return pkgerrors.ErrNotFound.WithDetail("message", fmt.Sprintf("order '%s' not found", id)).WithDetail("id", id)
}

func validation(err error) error {
	return pkgerrors.ErrValidation.WithCause(err).WithDetail("message", err.Error())
}
