package repository

import (
	"context"

	"activation-gate/internal/domain/model"
)

// ActivationLogRepository is the port for the append-only Log Store.
type ActivationLogRepository interface {
	// Append stores the entry and sets its ID and, if zero, CreatedAt.
	Append(ctx context.Context, tx Tx, entry *model.LogEntry) error
	// ListRecent returns entries newest first. An empty code matches all codes.
	ListRecent(ctx context.Context, tx Tx, code string, limit int) ([]*model.LogEntry, error)
}
