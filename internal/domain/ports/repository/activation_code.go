package repository

import (
	"context"

	"activation-gate/internal/domain/model"
)

// CodeFilter narrows List/Count. A zero State matches every state.
type CodeFilter struct {
	State model.CodeState
}

// ActivationCodeRepository is the port for the Code Store.
type ActivationCodeRepository interface {
	// Insert stores a new code and sets its ID. Returns domain.ErrAlreadyExists on a duplicate code.
	Insert(ctx context.Context, tx Tx, code *model.ActivationCode) error
	// FindByCode returns the current record or domain.ErrNotFound.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)
	// FindByCodeForUpdate is FindByCode holding a row lock until tx ends.
	// With a nil tx it degrades to FindByCode.
	FindByCodeForUpdate(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)
	// CompareAndSwap writes next if the stored version still equals expectedVersion,
	// otherwise returns domain.ErrVersionConflict (or domain.ErrNotFound if the row is gone).
	CompareAndSwap(ctx context.Context, tx Tx, next *model.ActivationCode, expectedVersion int64) error
	// Delete physically removes the code. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, tx Tx, code string) error
	List(ctx context.Context, tx Tx, f CodeFilter, offset, limit int) ([]*model.ActivationCode, error)
	Count(ctx context.Context, tx Tx, f CodeFilter) (int, error)
	CountByState(ctx context.Context, tx Tx) (map[model.CodeState]int, error)
}

// CodeInvalidator is implemented by read caches in front of the Code Store.
// The use case calls Invalidate once a write transaction has committed, so no
// reader can re-cache the pre-commit row.
type CodeInvalidator interface {
	Invalidate(ctx context.Context, code string)
}
