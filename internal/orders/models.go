package orders

import (
	"retailops/internal/automation"
	"retailops/pkg/models"
)

type OrderItemRequest struct {
	ProductID   string  `json:"product_id" binding:"required"`
	ProductName string  `json:"product_name" binding:"required"`
	VariantID   string  `json:"variant_id,omitempty"`
	Size        string  `json:"size,omitempty"`
	Color       string  `json:"color,omitempty"`
	Quantity    int     `json:"quantity" binding:"required"`
	Price       float64 `json:"price"`
	CostPrice   float64 `json:"cost_price,omitempty"`
}

type CreateOrderRequest struct {
	CustomerName    string               `json:"customer_name" binding:"required"`
	CustomerPhone   string               `json:"customer_phone" binding:"required"`
	ShippingAddress string               `json:"shipping_address"`
	Items           []OrderItemRequest   `json:"items" binding:"required"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	Notes           string               `json:"notes,omitempty"`
	Discount        *models.Discount     `json:"discount,omitempty"`
}

type UpdateStatusRequest struct {
	Status        models.OrderStatus    `json:"status" binding:"required"`
	PaymentStatus *models.PaymentStatus `json:"payment_status,omitempty"`
}

// CreateOrderResponse carries the stored order and what automation did with it.
type CreateOrderResponse struct {
	Order      *models.Order      `json:"order"`
	Automation *automation.Report `json:"automation,omitempty"`
}

type ListFilter struct {
	Status     models.OrderStatus
	CustomerID string
	Limit      int
	Offset     int
}

type ListResult struct {
	Items  []models.Order `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
