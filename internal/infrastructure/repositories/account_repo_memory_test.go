package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"atomik.backend/internal/domain/entities"
	domainerrors "atomik.backend/internal/domain/errors"
	"atomik.backend/pkg/uow"
)

func newAccount(owner string, balance int64) *entities.Account {
	now := time.Now().UTC()
	return &entities.Account{
		ID:        uuid.New(),
		Owner:     owner,
		Balance:   balance,
		Memo:      null.StringFrom("test account"),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryAccountRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()

	alice := newAccount("alice", 100)
	require.NoError(t, repo.Add(ctx, alice))
	require.ErrorIs(t, repo.Add(ctx, alice), domainerrors.ErrAlreadyExists)

	got, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice.Owner, got.Owner)
	require.Equal(t, int64(100), got.Balance)

	got.Balance = 60
	require.NoError(t, repo.Save(ctx, got))
	updated, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(60), updated.Balance)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	bob := newAccount("bob", 50)
	bob.CreatedAt = alice.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Add(ctx, bob))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "alice", all[0].Owner)
	require.Equal(t, "bob", all[1].Owner)
}

func TestMemoryAccountRepository_RollbackRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	alice := newAccount("alice", 100)
	require.NoError(t, repo.Add(ctx, alice))

	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		require.NoError(t, tx.Register(func(ctx context.Context) error {
			return repo.Add(ctx, newAccount("bob", 50))
		}))
		require.NoError(t, tx.Register(func(ctx context.Context) error {
			return repo.Add(ctx, alice) // duplicate, forces rollback
		}))
		return nil
	}, repo)

	require.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	all, lerr := repo.List(ctx)
	require.NoError(t, lerr)
	require.Len(t, all, 1)
	require.Equal(t, "alice", all[0].Owner)
	require.Equal(t, int64(100), all[0].Balance)
}

func TestMemoryLedgerRepository_AddListAndRollback(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLedgerRepository()

	entry := &entities.LedgerEntry{
		ID:        uuid.New(),
		FromID:    uuid.New(),
		ToID:      uuid.New(),
		Amount:    25,
		Reference: null.StringFrom("invoice-7"),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Add(ctx, entry))
	require.ErrorIs(t, repo.Add(ctx, entry), domainerrors.ErrAlreadyExists)

	snap, err := repo.Checkpoint(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, &entities.LedgerEntry{ID: uuid.New(), Amount: 1, CreatedAt: time.Now().UTC()}))
	require.NoError(t, repo.Restore(ctx, snap))

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entry.ID, entries[0].ID)
	require.NoError(t, repo.Commit(ctx))
}
