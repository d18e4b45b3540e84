package production

import (
	"strings"

	"github.com/erp/stockengine/internal/domain/shared"
)

// OrderStatus is the lifecycle state of a production order
type OrderStatus string

const (
	OrderStatusAwaitingRMRelease OrderStatus = "AWAITING_RM_RELEASE"
	OrderStatusPlanned           OrderStatus = "PLANNED"
	OrderStatusInProgress        OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted         OrderStatus = "COMPLETED"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
)

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusAwaitingRMRelease, OrderStatusPlanned, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for COMPLETED and CANCELLED
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Label returns the human readable status name
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusAwaitingRMRelease:
		return "Awaiting RM Release"
	case OrderStatusPlanned:
		return "Planned"
	case OrderStatusInProgress:
		return "In Progress"
	case OrderStatusCompleted:
		return "Completed"
	case OrderStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// ParseOrderStatus accepts either case
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", shared.NewValidationError("Invalid production order status: " + s)
	}
	return status, nil
}

// CreationMode selects whether materials are consumed at creation
type CreationMode string

const (
	// CreationModeImmediate deducts materials when the order is created
	CreationModeImmediate CreationMode = "immediate"
	// CreationModeRMRequest defers deduction until the request is released
	CreationModeRMRequest CreationMode = "rm_request"
)

// IsValid returns true if the mode is valid
func (m CreationMode) IsValid() bool {
	return m == CreationModeImmediate || m == CreationModeRMRequest
}
