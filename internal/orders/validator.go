package orders

import (
	"fmt"
	"strings"

	"retailops/pkg/models"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validateCreate(req CreateOrderRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Message: "customer name is required"}
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		return &ValidationError{Field: "customer_phone", Message: "customer phone is required"}
	}
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Message: "order must contain at least one item"}
	}
	for i, item := range req.Items {
		if err := validateItem(i, item); err != nil {
			return err
		}
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.IsKnown() {
		return &ValidationError{Field: "payment_method", Message: fmt.Sprintf("unknown payment method '%s'", req.PaymentMethod)}
	}
	if req.Discount != nil && req.Discount.Amount < 0 {
		return &ValidationError{Field: "discount.amount", Message: "discount must not be negative"}
	}
	return nil
}

func validateItem(index int, item OrderItemRequest) error {
	field := fmt.Sprintf("items[%d]", index)
	if strings.TrimSpace(item.ProductID) == "" {
		return &ValidationError{Field: field + ".product_id", Message: "product id is required"}
	}
	if item.Quantity <= 0 {
		return &ValidationError{Field: field + ".quantity", Message: "quantity must be positive"}
	}
	if item.Price < 0 {
		return &ValidationError{Field: field + ".price", Message: "price must not be negative"}
	}
	return nil
}

func validateStatus(req UpdateStatusRequest) error {
	if !req.Status.IsKnown() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown order status '%s'", req.Status)}
	}
	if req.PaymentStatus != nil {
		switch *req.PaymentStatus {
		case models.PaymentStatusPaid, models.PaymentStatusUnpaid:
		default:
			return &ValidationError{Field: "payment_status", Message: fmt.Sprintf("unknown payment status '%s'", *req.PaymentStatus)}
		}
	}
	return nil
}
