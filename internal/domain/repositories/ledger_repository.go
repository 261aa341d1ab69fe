package repositories

import (
	"context"

	"atomik.backend/internal/domain/entities"
	"atomik.backend/pkg/uow"
)

// LedgerRepository defines ledger entry data operations, rollback-capable
// like AccountRepository.
type LedgerRepository interface {
	uow.Participant

	Add(ctx context.Context, entry *entities.LedgerEntry) error
	List(ctx context.Context) ([]*entities.LedgerEntry, error)
}
