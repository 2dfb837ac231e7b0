package customers

import (
	"retailops/pkg/models"
)

type CreateCustomerRequest struct {
	Name    string   `json:"name" binding:"required"`
	Phone   string   `json:"phone" binding:"required"`
	Email   string   `json:"email,omitempty"`
	Address string   `json:"address,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type UpdateCustomerRequest struct {
	Name    *string   `json:"name,omitempty"`
	Phone   *string   `json:"phone,omitempty"`
	Email   *string   `json:"email,omitempty"`
	Address *string   `json:"address,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

type TagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// OrderContact is the customer data captured on an order form.
type OrderContact struct {
	Name    string
	Phone   string
	Address string
}

type ListResult struct {
	Items  []models.Customer `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}
