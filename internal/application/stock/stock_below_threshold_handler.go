package stock

import (
	"context"
	"fmt"

	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"go.uber.org/zap"
)

// StockBelowThresholdHandler handles StockBelowThreshold events
// and raises reorder alerts
type StockBelowThresholdHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// StockAlertNotifier sends stock alerts over some channel
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a reorder alert for one material
type StockAlert struct {
	AccountID        string `json:"account_id"`
	Code             string `json:"code"`
	Name             string `json:"name"`
	VendorID         string `json:"vendor_id,omitempty"`
	Balance          string `json:"balance"`
	ReorderThreshold string `json:"reorder_threshold"`
	AlertType        string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewStockBelowThresholdHandler creates a new handler for stock below threshold events
func NewStockBelowThresholdHandler(logger *zap.Logger) *StockBelowThresholdHandler {
	return &StockBelowThresholdHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowThresholdHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowThresholdHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowThresholdHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *StockBelowThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockBelowThreshold),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}

	alertType := "low_stock"
	if !thresholdEvent.Balance.IsPositive() {
		alertType = "out_of_stock"
	}
	alert := StockAlert{
		AccountID:        thresholdEvent.AccountID.String(),
		Code:             thresholdEvent.Code,
		Name:             thresholdEvent.Name,
		Balance:          thresholdEvent.Balance.StringFixed(inventory.QuantityScale),
		ReorderThreshold: thresholdEvent.ReorderThreshold.StringFixed(inventory.QuantityScale),
		AlertType:        alertType,
	}
	if thresholdEvent.VendorID != nil {
		alert.VendorID = thresholdEvent.VendorID.String()
	}

	h.logger.Warn("stock below reorder level",
		zap.String("account_id", alert.AccountID),
		zap.String("code", alert.Code),
		zap.String("balance", alert.Balance),
		zap.String("reorder_threshold", alert.ReorderThreshold),
	)

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// notification failure does not fail event handling
			h.logger.Error("failed to send stock alert notification",
				zap.String("account_id", alert.AccountID),
				zap.Error(err),
			)
		}
	}
	return nil
}

var _ shared.EventHandler = (*StockBelowThresholdHandler)(nil)

// LoggingStockAlertNotifier logs alerts. Used when no other channel is configured.
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("code", alert.Code),
		zap.String("name", alert.Name),
		zap.String("balance", alert.Balance),
		zap.String("reorder_threshold", alert.ReorderThreshold),
		zap.String("vendor_id", alert.VendorID),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
