package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/models"
)

type StoreRepo struct {
	DB DBTX
}

const createItem = `-- name: CreateItem
INSERT INTO store_items (id, created_at, name, description, price_coins, stock, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, name, description, price_coins, stock, active
`

func (r *StoreRepo) CreateItem(ctx context.Context, item models.StoreItem) (models.StoreItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createItem, item.ID, item.CreatedAt, item.Name, item.Description, item.PriceCoins, item.Stock, item.Active)
	created, err := pgx.CollectOneRow(rows, rowToItem)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getItem = `-- name: GetItem
SELECT id, created_at, name, description, price_coins, stock, active
FROM store_items
WHERE id = $1
`

func (r *StoreRepo) GetItem(ctx context.Context, itemID uuid.UUID) (models.StoreItem, error) {
	rows, _ := r.DB.Query(ctx, getItem, itemID)
	item, err := pgx.CollectOneRow(rows, rowToItem)

	switch {
	case err == nil:
		return item, nil
	case errors.Is(err, pgx.ErrNoRows):
		return item, apperrors.ErrItemNotFound
	default:
		return item, fmt.Errorf("db error: %w", err)
	}
}

const listItems = `-- name: ListItems
SELECT id, created_at, name, description, price_coins, stock, active
FROM store_items
WHERE NOT $1 OR (active AND stock > 0)
ORDER BY created_at, id
`

func (r *StoreRepo) ListItems(ctx context.Context, activeOnly bool) ([]models.StoreItem, error) {
	rows, _ := r.DB.Query(ctx, listItems, activeOnly)
	items, err := pgx.CollectRows(rows, rowToItem)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

// Guarded decrement: zero rows updated on an existing item
// means it is inactive or out of stock
const decrementStock = `-- name: DecrementStock
UPDATE store_items
SET stock = stock - 1
WHERE id = $1 AND active AND stock > 0
RETURNING id, created_at, name, description, price_coins, stock, active
`

func (r *StoreRepo) DecrementStock(ctx context.Context, itemID uuid.UUID) (models.StoreItem, error) {
	rows, _ := r.DB.Query(ctx, decrementStock, itemID)
	item, err := pgx.CollectOneRow(rows, rowToItem)

	switch {
	case err == nil:
		return item, nil
	case errors.Is(err, pgx.ErrNoRows):
		if _, getErr := r.GetItem(ctx, itemID); errors.Is(getErr, apperrors.ErrItemNotFound) {
			return item, apperrors.ErrItemNotFound
		}
		return item, apperrors.ErrItemUnavailable
	default:
		return item, fmt.Errorf("db error: %w", err)
	}
}

const createRedemption = `-- name: CreateRedemption
INSERT INTO redemptions (id, created_at, user_id, item_id, price_coins, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, user_id, item_id, price_coins, status, fulfilled_at
`

func (r *StoreRepo) CreateRedemption(ctx context.Context, redemption models.Redemption) (models.Redemption, error) {
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	if redemption.CreatedAt.IsZero() {
		redemption.CreatedAt = time.Now()
	}
	if redemption.Status == "" {
		redemption.Status = models.RedemptionStatusPending
	}

	rows, _ := r.DB.Query(ctx, createRedemption,
		redemption.ID, redemption.CreatedAt, redemption.UserID, redemption.ItemID, redemption.PriceCoins, redemption.Status)
	created, err := pgx.CollectOneRow(rows, rowToRedemption)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, apperrors.ErrUserNotFound
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listRedemptions = `-- name: ListRedemptions
SELECT id, created_at, user_id, item_id, price_coins, status, fulfilled_at
FROM redemptions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`

func (r *StoreRepo) ListRedemptions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Redemption, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, _ := r.DB.Query(ctx, listRedemptions, userID, limitArg)
	redemptions, err := pgx.CollectRows(rows, rowToRedemption)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return redemptions, nil
}

const listPendingRedemptions = `-- name: ListPendingRedemptions
SELECT id, created_at, user_id, item_id, price_coins, status, fulfilled_at
FROM redemptions
WHERE status = 'pending'
ORDER BY created_at, id
LIMIT $1
`

func (r *StoreRepo) ListPendingRedemptions(ctx context.Context, limit int) ([]models.Redemption, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, _ := r.DB.Query(ctx, listPendingRedemptions, limitArg)
	redemptions, err := pgx.CollectRows(rows, rowToRedemption)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return redemptions, nil
}

const markFulfilled = `-- name: MarkFulfilled
UPDATE redemptions
SET status = 'fulfilled', fulfilled_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING id, created_at, user_id, item_id, price_coins, status, fulfilled_at
`

func (r *StoreRepo) MarkFulfilled(ctx context.Context, redemptionID uuid.UUID) (models.Redemption, error) {
	rows, _ := r.DB.Query(ctx, markFulfilled, redemptionID)
	redemption, err := pgx.CollectOneRow(rows, rowToRedemption)

	switch {
	case err == nil:
		return redemption, nil
	case errors.Is(err, pgx.ErrNoRows):
		return redemption, apperrors.ErrRedemptionNotFound
	default:
		return redemption, fmt.Errorf("db error: %w", err)
	}
}

func rowToItem(row pgx.CollectableRow) (models.StoreItem, error) {
	var i models.StoreItem
	err := row.Scan(&i.ID, &i.CreatedAt, &i.Name, &i.Description, &i.PriceCoins, &i.Stock, &i.Active)
	return i, err
}

func rowToRedemption(row pgx.CollectableRow) (models.Redemption, error) {
	var r models.Redemption
	err := row.Scan(&r.ID, &r.CreatedAt, &r.UserID, &r.ItemID, &r.PriceCoins, &r.Status, &r.FulfilledAt)
	return r, err
}
