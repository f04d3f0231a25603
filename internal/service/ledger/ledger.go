package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/models"
	"github.com/qgfurioso/coinledger/internal/repository"
)

// ApplyParams describe one signed coin movement
type ApplyParams struct {
	UserID      uuid.UUID
	Amount      int64
	Type        string
	Description string
	Related     *models.RelatedEntity
}

// LedgerService is the only component allowed to move coins
// Every credit and debit goes through ApplyTransaction
type LedgerService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *LedgerService {
	return &LedgerService{storage: storage}
}

// ApplyTransaction records one transaction and updates the balance as one atomic unit
// Either both the transaction row and the balance update are visible, or neither is
func (s *LedgerService) ApplyTransaction(ctx context.Context, p ApplyParams) (models.Transaction, models.Balance, error) {
	var transaction models.Transaction
	var balance models.Balance

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		transaction, balance, err = Apply(ctx, st, p)
		return err
	})

	return transaction, balance, err
}

// Apply runs the transaction insert and the balance update on the given storage
// Exported for callers that already opened a transaction and need the ledger
// write to commit or roll back together with their own writes
func Apply(ctx context.Context, st repository.Storage, p ApplyParams) (models.Transaction, models.Balance, error) {
	var transaction models.Transaction
	var balance models.Balance

	if err := validateParams(p); err != nil {
		return transaction, balance, err
	}

	// Lazily create the zero balance row
	// Fails early with ErrUserNotFound for unknown users
	if err := st.Ledger().CreateBalance(ctx, p.UserID); err != nil {
		return transaction, balance, err
	}

	transaction, err := st.Ledger().CreateTransaction(ctx, models.Transaction{
		UserID:      p.UserID,
		Amount:      p.Amount,
		Type:        p.Type,
		Description: p.Description,
		Related:     p.Related,
	})
	if err != nil {
		return transaction, balance, fmt.Errorf("can't record transaction. Err: %w", err)
	}

	// The delta is applied by the database itself, never read-modify-write here.
	// On insufficient funds the whole transaction rolls back,
	// so the inserted row never becomes visible
	balance, err = st.Ledger().ApplyDelta(ctx, p.UserID, p.Amount)
	if err != nil {
		return transaction, balance, err
	}

	return transaction, balance, nil
}

// GetBalance returns the current balance
// A valid user without any transactions gets a zero-valued balance, not an error
func (s *LedgerService) GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error) {
	balance, err := s.storage.Ledger().GetBalance(ctx, userID)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, apperrors.ErrBalanceNotFound):
		user, err := s.storage.User().GetUserByID(ctx, userID)
		if err != nil {
			return models.Balance{}, err
		}
		return models.Balance{UserID: user.ID}, nil
	default:
		return balance, err
	}
}

// GetHistory returns user transactions newest first
// limit <= 0 means the whole history
func (s *LedgerService) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	return s.storage.Ledger().ListTransactions(ctx, userID, limit)
}

func validateParams(p ApplyParams) error {
	switch {
	case p.Amount == 0:
		return fmt.Errorf("%w: amount must not be zero", apperrors.ErrTransactionInvalid)
	case p.Type == "":
		return fmt.Errorf("%w: type must not be empty", apperrors.ErrTransactionInvalid)
	case p.Description == "":
		return fmt.Errorf("%w: description must not be empty", apperrors.ErrTransactionInvalid)
	default:
		return nil
	}
}
