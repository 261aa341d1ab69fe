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

// MemoryLedgerRepository implements ledger data operations over the reference
// in-memory participant.
type MemoryLedgerRepository struct {
	store *memstore.Store[uuid.UUID, *entities.LedgerEntry]
}

// NewMemoryLedgerRepository creates an empty in-memory ledger repository
func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{
		store: memstore.New(
			func(e *entities.LedgerEntry) uuid.UUID { return e.ID },
			func(e *entities.LedgerEntry) *entities.LedgerEntry { return e.Clone() },
		),
	}
}

// Add appends a ledger entry, rejecting an existing ID
func (r *MemoryLedgerRepository) Add(_ context.Context, entry *entities.LedgerEntry) error {
	if err := r.store.Add(entry); err != nil {
		if errors.Is(err, memstore.ErrDuplicateKey) {
			return fmt.Errorf("ledger entry %s: %w", entry.ID, domainerrors.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

// List returns all ledger entries ordered by creation time
func (r *MemoryLedgerRepository) List(_ context.Context) ([]*entities.LedgerEntry, error) {
	entries := r.store.List()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID.String() < entries[j].ID.String()
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// Checkpoint delegates to the underlying store
func (r *MemoryLedgerRepository) Checkpoint(ctx context.Context) (uow.Snapshot, error) {
	return r.store.Checkpoint(ctx)
}

// Restore delegates to the underlying store
func (r *MemoryLedgerRepository) Restore(ctx context.Context, snapshot uow.Snapshot) error {
	return r.store.Restore(ctx, snapshot)
}

// Commit delegates to the underlying store
func (r *MemoryLedgerRepository) Commit(ctx context.Context) error {
	return r.store.Commit(ctx)
}
