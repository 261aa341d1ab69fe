package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"atomik.backend/internal/domain/entities"
	domainerrors "atomik.backend/internal/domain/errors"
	"atomik.backend/pkg/memstore"
	"atomik.backend/pkg/uow"
)

// MemoryAccountRepository implements account data operations over the
// reference in-memory participant.
type MemoryAccountRepository struct {
	store *memstore.Store[uuid.UUID, *entities.Account]
}

// NewMemoryAccountRepository creates an empty in-memory account repository
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		store: memstore.New(
			func(a *entities.Account) uuid.UUID { return a.ID },
			func(a *entities.Account) *entities.Account { return a.Clone() },
		),
	}
}

// Add inserts an account, rejecting an existing ID
func (r *MemoryAccountRepository) Add(_ context.Context, account *entities.Account) error {
	if err := r.store.Add(account); err != nil {
		if errors.Is(err, memstore.ErrDuplicateKey) {
			return fmt.Errorf("account %s: %w", account.ID, domainerrors.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

// GetByID gets an account by ID
func (r *MemoryAccountRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.Account, error) {
	account, ok := r.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, domainerrors.ErrNotFound)
	}
	return account, nil
}

// Save inserts or overwrites an account
func (r *MemoryAccountRepository) Save(_ context.Context, account *entities.Account) error {
	r.store.Put(account)
	return nil
}

// List returns all accounts ordered by creation time
func (r *MemoryAccountRepository) List(_ context.Context) ([]*entities.Account, error) {
	accounts := r.store.List()
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID.String() < accounts[j].ID.String()
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// Checkpoint delegates to the underlying store
func (r *MemoryAccountRepository) Checkpoint(ctx context.Context) (uow.Snapshot, error) {
	return r.store.Checkpoint(ctx)
}

// Restore delegates to the underlying store
func (r *MemoryAccountRepository) Restore(ctx context.Context, snapshot uow.Snapshot) error {
	return r.store.Restore(ctx, snapshot)
}

// Commit delegates to the underlying store
func (r *MemoryAccountRepository) Commit(ctx context.Context) error {
	return r.store.Commit(ctx)
}
