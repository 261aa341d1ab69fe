package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"atomik.backend/internal/domain/entities"
	domainerrors "atomik.backend/internal/domain/errors"
	"atomik.backend/internal/infrastructure/models"
	"atomik.backend/pkg/uow"
)

// GormAccountRepository implements account data operations on a relational
// database through GORM. It joins units of work by snapshotting the whole
// accounts table; that is viable for the coordinator's cooperative scope,
// where the table is small and all writers share the process.
type GormAccountRepository struct {
	db *gorm.DB
}

// gormSnapshot holds a full copy of the accounts table rows.
type gormSnapshot struct {
	rows []models.Account
}

// NewGormAccountRepository creates a new GORM-backed account repository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// Add inserts an account, rejecting an existing ID
func (r *GormAccountRepository) Add(ctx context.Context, account *entities.Account) error {
	m := r.toModel(account)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("account %s: %w", account.ID, domainerrors.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

// GetByID gets an account by ID
func (r *GormAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	var m models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %s: %w", id, domainerrors.ErrNotFound)
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// Save inserts or overwrites an account
func (r *GormAccountRepository) Save(ctx context.Context, account *entities.Account) error {
	return r.db.WithContext(ctx).Save(r.toModel(account)).Error
}

// List returns all accounts ordered by creation time
func (r *GormAccountRepository) List(ctx context.Context) ([]*entities.Account, error) {
	var ms []models.Account
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&ms).Error; err != nil {
		return nil, err
	}
	accounts := make([]*entities.Account, 0, len(ms))
	for i := range ms {
		accounts = append(accounts, r.toEntity(&ms[i]))
	}
	return accounts, nil
}

// Checkpoint reads the full table into an in-process snapshot
func (r *GormAccountRepository) Checkpoint(ctx context.Context) (uow.Snapshot, error) {
	var rows []models.Account
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("snapshot accounts: %w", err)
	}
	return &gormSnapshot{rows: rows}, nil
}

// Restore wipes the table and reinserts the snapshot rows in one database
// transaction
func (r *GormAccountRepository) Restore(ctx context.Context, snapshot uow.Snapshot) error {
	snap, ok := snapshot.(*gormSnapshot)
	if !ok {
		return fmt.Errorf("gorm account repository: foreign snapshot %T", snapshot)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Account{}).Error; err != nil {
			return fmt.Errorf("clear accounts: %w", err)
		}
		if len(snap.rows) == 0 {
			return nil
		}
		rows := make([]models.Account, len(snap.rows))
		copy(rows, snap.rows)
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("reinsert accounts: %w", err)
		}
		return nil
	})
}

// Commit has nothing to discard; snapshots live in process memory and die
// with the unit of work
func (r *GormAccountRepository) Commit(_ context.Context) error {
	return nil
}

func (r *GormAccountRepository) toModel(a *entities.Account) *models.Account {
	return &models.Account{
		ID:        a.ID.String(),
		Owner:     a.Owner,
		Balance:   a.Balance,
		Memo:      a.Memo.Ptr(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (r *GormAccountRepository) toEntity(m *models.Account) *entities.Account {
	id, _ := uuid.Parse(m.ID)
	return &entities.Account{
		ID:        id,
		Owner:     m.Owner,
		Balance:   m.Balance,
		Memo:      null.StringFromPtr(m.Memo),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
