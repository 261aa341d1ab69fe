package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"atomik.backend/internal/domain/entities"
	domainerrors "atomik.backend/internal/domain/errors"
	"atomik.backend/internal/domain/repositories"
	"atomik.backend/pkg/logger"
	"atomik.backend/pkg/uow"
)

var (
	transfersCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atomik_transfers_committed_total",
		Help: "Transfers whose unit of work committed.",
	})
	transfersRolledBack = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atomik_transfers_rolled_back_total",
		Help: "Transfers whose unit of work was rolled back.",
	})
)

// TransferUsecase moves funds between accounts. The debit, the credit and the
// ledger entry are registered on one unit of work spanning both repositories,
// so a failure in any of them leaves every store at its pre-transfer state.
type TransferUsecase struct {
	accountRepo repositories.AccountRepository
	ledgerRepo  repositories.LedgerRepository
}

// NewTransferUsecase creates a new transfer usecase
func NewTransferUsecase(accountRepo repositories.AccountRepository, ledgerRepo repositories.LedgerRepository) *TransferUsecase {
	return &TransferUsecase{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// Transfer atomically debits fromID, credits toID and appends a ledger entry
func (u *TransferUsecase) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount int64, reference string) (*entities.LedgerEntry, error) {
	if amount <= 0 {
		return nil, domainerrors.BadRequest("amount must be positive")
	}
	if fromID == toID {
		return nil, fmt.Errorf("transfer %s: %w", fromID, domainerrors.ErrSameAccount)
	}

	from, err := u.accountRepo.GetByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := u.accountRepo.GetByID(ctx, toID)
	if err != nil {
		return nil, err
	}
	if from.Balance < amount {
		return nil, fmt.Errorf("account %s: %w", fromID, domainerrors.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	entry := &entities.LedgerEntry{
		ID:        uuid.New(),
		FromID:    fromID,
		ToID:      toID,
		Amount:    amount,
		Reference: null.NewString(reference, reference != ""),
		CreatedAt: now,
	}

	err = uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		if err := tx.Register(func(ctx context.Context) error {
			from.Balance -= amount
			from.UpdatedAt = now
			return u.accountRepo.Save(ctx, from)
		}); err != nil {
			return err
		}
		if err := tx.Register(func(ctx context.Context) error {
			to.Balance += amount
			to.UpdatedAt = now
			return u.accountRepo.Save(ctx, to)
		}); err != nil {
			return err
		}
		return tx.Register(func(ctx context.Context) error {
			return u.ledgerRepo.Add(ctx, entry)
		})
	}, u.accountRepo, u.ledgerRepo)
	if err != nil {
		transfersRolledBack.Inc()
		logger.Error(ctx, "transfer rolled back",
			zap.String("from", fromID.String()),
			zap.String("to", toID.String()),
			zap.Int64("amount", amount),
			zap.Error(err),
		)
		return nil, err
	}

	transfersCommitted.Inc()
	logger.Info(ctx, "transfer committed",
		zap.String("from", fromID.String()),
		zap.String("to", toID.String()),
		zap.Int64("amount", amount),
		zap.String("entry", entry.ID.String()),
	)
	return entry, nil
}

// Ledger returns the recorded transfer history
func (u *TransferUsecase) Ledger(ctx context.Context) ([]*entities.LedgerEntry, error) {
	return u.ledgerRepo.List(ctx)
}
