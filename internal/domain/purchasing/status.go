package purchasing

import (
	"strings"

	"github.com/erp/stockengine/internal/domain/shared"
)

// OrderStatus is the receipt state of a purchase order. Apart from
// CANCELLED it is always derived from the lines.
type OrderStatus string

const (
	OrderStatusOpen              OrderStatus = "OPEN"
	OrderStatusPartiallyReceived OrderStatus = "PARTIALLY_RECEIVED"
	OrderStatusReceived          OrderStatus = "RECEIVED"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
)

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusPartiallyReceived, OrderStatusReceived, OrderStatusCancelled:
		return true
	}
	return false
}

// CanReceive returns true while goods may still arrive
func (s OrderStatus) CanReceive() bool {
	return s == OrderStatusOpen || s == OrderStatusPartiallyReceived
}

// CanCancel returns true for OPEN and PARTIALLY_RECEIVED
func (s OrderStatus) CanCancel() bool {
	return s.CanReceive()
}

// CanReopen returns true only for CANCELLED
func (s OrderStatus) CanReopen() bool {
	return s == OrderStatusCancelled
}

// ParseOrderStatus accepts either case
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", shared.NewValidationError("Invalid purchase order status: " + s)
	}
	return status, nil
}
