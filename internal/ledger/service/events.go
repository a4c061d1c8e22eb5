package service

import (
	"context"
	"log/slog"

	"rightsledger/pkg/platform/audit"
	"rightsledger/pkg/requestcontext"
)

// auditEmitter fans a ledger event out to the structured log and, when
// configured, the audit publisher. Events describe state changes that have
// already been committed, so emission failures are logged, never propagated.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func (e *auditEmitter) emit(ctx context.Context, action audit.LedgerEvent, event audit.Event) {
	event.Action = string(action)
	event.Category = action.Category()
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)

	if e.logger != nil {
		e.logger.InfoContext(ctx, string(action),
			"log_type", "audit",
			"actor", event.Actor.String(),
			"token_id", uint64(event.TokenID),
			"request_id", event.RequestID,
		)
	}
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Emit(ctx, event); err != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
