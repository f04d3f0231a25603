package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/models"
)

type LedgerRepo struct {
	DB DBTX
}

const createBalance = `-- name: CreateBalance
INSERT INTO coin_balances (user_id, balance, lifetime_earned, lifetime_spent)
VALUES ($1, 0, 0, 0)
ON CONFLICT (user_id) DO NOTHING
`

func (r *LedgerRepo) CreateBalance(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, createBalance, userID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrUserNotFound
		}

		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const getBalance = `-- name: GetBalance
SELECT user_id, balance, lifetime_earned, lifetime_spent, updated_at
FROM coin_balances
WHERE user_id = $1
`

func (r *LedgerRepo) GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error) {
	rows, _ := r.DB.Query(ctx, getBalance, userID)
	balance, err := pgx.CollectOneRow(rows, rowToBalance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		return balance, apperrors.ErrBalanceNotFound
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

// Apply delta in a single statement evaluated by postgres
// The WHERE guard makes sure a debit never drives the balance below zero:
// zero rows updated on an existing balance means insufficient funds
const applyDelta = `-- name: ApplyDelta
UPDATE coin_balances
SET balance = balance + $2,
    lifetime_earned = lifetime_earned + CASE WHEN $2 > 0 THEN $2 ELSE 0 END,
    lifetime_spent = lifetime_spent + CASE WHEN $2 < 0 THEN -$2 ELSE 0 END,
    updated_at = now()
WHERE user_id = $1 AND balance + $2 >= 0
RETURNING user_id, balance, lifetime_earned, lifetime_spent, updated_at
`

func (r *LedgerRepo) ApplyDelta(ctx context.Context, userID uuid.UUID, delta int64) (models.Balance, error) {
	rows, _ := r.DB.Query(ctx, applyDelta, userID, delta)
	balance, err := pgx.CollectOneRow(rows, rowToBalance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either the balance row is missing or the guard failed
		if _, getErr := r.GetBalance(ctx, userID); errors.Is(getErr, apperrors.ErrBalanceNotFound) {
			return balance, apperrors.ErrBalanceNotFound
		}
		return balance, apperrors.ErrInsufficientFunds
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

const createTransaction = `-- name: CreateTransaction
INSERT INTO coin_transactions (user_id, amount, type, description, related_entity_type, related_entity_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, amount, type, description, related_entity_type, related_entity_id, created_at
`

func (r *LedgerRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	var relatedType, relatedID *string
	if t.Related != nil {
		relatedType = &t.Related.Type
		relatedID = &t.Related.ID
	}

	rows, _ := r.DB.Query(ctx, createTransaction, t.UserID, t.Amount, t.Type, t.Description, relatedType, relatedID)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, apperrors.ErrUserNotFound
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listTransactions = `-- name: ListTransactions
SELECT id, user_id, amount, type, description, related_entity_type, related_entity_id, created_at
FROM coin_transactions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`

func (r *LedgerRepo) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, _ := r.DB.Query(ctx, listTransactions, userID, limitArg)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

func rowToBalance(row pgx.CollectableRow) (models.Balance, error) {
	var b models.Balance
	err := row.Scan(&b.UserID, &b.Balance, &b.LifetimeEarned, &b.LifetimeSpent, &b.UpdatedAt)
	return b, err
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	var relatedType, relatedID *string

	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &relatedType, &relatedID, &t.CreatedAt)
	if err != nil {
		return t, err
	}

	if relatedType != nil && relatedID != nil {
		t.Related = &models.RelatedEntity{Type: *relatedType, ID: *relatedID}
	}

	return t, nil
}
