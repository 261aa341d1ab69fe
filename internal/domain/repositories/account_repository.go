package repositories

import (
	"context"

	"github.com/google/uuid"

	"atomik.backend/internal/domain/entities"
	"atomik.backend/pkg/uow"
)

// AccountRepository defines account data operations. Every implementation is
// a rollback-capable unit-of-work participant, so a group of account
// mutations can be made atomic across otherwise unrelated backends.
type AccountRepository interface {
	uow.Participant

	Add(ctx context.Context, account *entities.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	Save(ctx context.Context, account *entities.Account) error
	List(ctx context.Context) ([]*entities.Account, error)
}
