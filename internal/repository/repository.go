package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/qgfurioso/coinledger/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Grant or revoke the staff flag
	SetStaff(ctx context.Context, userID uuid.UUID, isStaff bool) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token and mark it used in one statement
	// If the token is already used, must return apperrors.ErrRefreshTokenIsUsed
	// and must not overwrite the existing 'usedAt'
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// Ledger repository: coin balances and the append-only transaction log
type LedgerRepo interface {
	// Create zero balance row for the user if it doesn't exist yet
	// Unknown user has to return apperrors.ErrUserNotFound
	CreateBalance(ctx context.Context, userID uuid.UUID) error

	// Get current balance
	// If no balance row exists must return apperrors.ErrBalanceNotFound
	GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error)

	// Apply signed delta to the balance with a single guarded statement
	// evaluated by the database, never read-modify-write in application code.
	// A debit that would make the balance negative must return
	// apperrors.ErrInsufficientFunds and leave the row unchanged
	ApplyDelta(ctx context.Context, userID uuid.UUID, delta int64) (models.Balance, error)

	// Append one transaction to the log
	// Unknown user has to return apperrors.ErrUserNotFound
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// List user transactions newest first (created_at, then id)
	// limit <= 0 means no limit
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
}

// Store repository: catalog items and redemption records
type StoreRepo interface {
	CreateItem(ctx context.Context, item models.StoreItem) (models.StoreItem, error)

	// Get item by id
	// If item not found must return apperrors.ErrItemNotFound
	GetItem(ctx context.Context, itemID uuid.UUID) (models.StoreItem, error)

	// List items; activeOnly limits to active ones with stock
	ListItems(ctx context.Context, activeOnly bool) ([]models.StoreItem, error)

	// Decrement stock by one with a guarded statement
	// Inactive or out of stock item must return apperrors.ErrItemUnavailable
	DecrementStock(ctx context.Context, itemID uuid.UUID) (models.StoreItem, error)

	CreateRedemption(ctx context.Context, r models.Redemption) (models.Redemption, error)

	// List user redemptions newest first
	ListRedemptions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Redemption, error)

	// List pending redemptions oldest first, for the fulfillment processor
	ListPendingRedemptions(ctx context.Context, limit int) ([]models.Redemption, error)

	// Mark pending redemption fulfilled
	// Not existed or already fulfilled redemption must return apperrors.ErrRedemptionNotFound
	MarkFulfilled(ctx context.Context, redemptionID uuid.UUID) (models.Redemption, error)
}

// Storage aggregates all repositories over one connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Ledger() LedgerRepo
	Store() StoreRepo

	// Run fn within a database transaction
	// The Storage passed to fn is scoped to that transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
