package events

import (
	"context"
	"log/slog"
)

// AuditListener records every placed order in the application log
type AuditListener struct {
	logger *slog.Logger
}

// NewAuditListener creates an audit listener writing to logger
func NewAuditListener(logger *slog.Logger) *AuditListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditListener{logger: logger}
}

// Name implements Listener
func (a *AuditListener) Name() string { return "audit" }

// HandleOrderPlaced implements Listener
func (a *AuditListener) HandleOrderPlaced(ctx context.Context, event OrderPlaced) error {
	a.logger.InfoContext(ctx, "Order placed",
		"order_id", event.Order.ID,
		"user_id", event.Order.UserID,
		"total", event.Order.Total.StringFixed(2),
		"event_id", event.ID,
	)
	return nil
}
