package inventory

import (
	"context"
	"fmt"

	"github.com/erp/inventory/internal/domain/inventory"
	"github.com/erp/inventory/internal/domain/shared"
	"go.uber.org/zap"
)

// LowStockHandler reacts to StockBelowReorder events and raises
// replenishment alerts through the configured notifier
type LowStockHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// StockAlertNotifier is the interface for sending stock alerts.
// Implementations can support different channels (in-app, email, SMS).
type StockAlertNotifier interface {
	// SendAlert sends a stock alert notification
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert
type StockAlert struct {
	StockRecordID string `json:"stock_record_id"`
	ProductID     string `json:"product_id"`
	ProductCode   string `json:"product_code"`
	WarehouseID   string `json:"warehouse_id"`
	Quantity      string `json:"quantity"`
	ReorderPoint  string `json:"reorder_point"`
	AlertType     string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewLowStockHandler creates a new handler for stock below reorder events
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *LowStockHandler) WithNotifier(notifier StockAlertNotifier) *LowStockHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowReorder}
}

// Handle processes a StockBelowReorderEvent
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	reorderEvent, ok := event.(*inventory.StockBelowReorderEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockBelowReorder),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowReorder, event.EventType())
	}

	h.logger.Warn("stock below reorder point",
		zap.String("product_id", reorderEvent.ProductID.String()),
		zap.String("product_code", reorderEvent.ProductCode),
		zap.String("warehouse_id", reorderEvent.WarehouseID.String()),
		zap.String("quantity", reorderEvent.Quantity.String()),
		zap.String("reorder_point", reorderEvent.ReorderPoint.String()),
	)

	alertType := "low_stock"
	if !reorderEvent.Quantity.IsPositive() {
		alertType = "out_of_stock"
	}

	if h.notifier == nil {
		return nil
	}

	alert := StockAlert{
		StockRecordID: event.AggregateID().String(),
		ProductID:     reorderEvent.ProductID.String(),
		ProductCode:   reorderEvent.ProductCode,
		WarehouseID:   reorderEvent.WarehouseID.String(),
		Quantity:      reorderEvent.Quantity.String(),
		ReorderPoint:  reorderEvent.ReorderPoint.String(),
		AlertType:     alertType,
	}
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		// Notification failure must not fail the event handling
		h.logger.Error("failed to send stock alert",
			zap.String("product_code", alert.ProductCode),
			zap.Error(err),
		)
	}
	return nil
}

// Ensure LowStockHandler implements shared.EventHandler
var _ shared.EventHandler = (*LowStockHandler)(nil)

// LoggingStockAlertNotifier logs alerts instead of delivering them.
// Useful for development and testing.
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
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("product_code", alert.ProductCode),
		zap.String("warehouse_id", alert.WarehouseID),
		zap.String("quantity", alert.Quantity),
		zap.String("reorder_point", alert.ReorderPoint),
	)
	return nil
}

// Ensure LoggingStockAlertNotifier implements StockAlertNotifier
var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
