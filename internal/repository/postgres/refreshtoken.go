package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: Save refresh token
INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) error {
	_, err := r.DB.Exec(ctx, saveToken, token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt, token.UsedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const markTokenUsed = `-- name: Mark token used if it not used yet
UPDATE refresh_tokens
SET used_at = now()
WHERE token = $1 AND used_at IS NULL
RETURNING id, user_id, created_at, expires_at, used_at
`

const getToken = `-- name: Get token by string itself
SELECT id, user_id, created_at, expires_at, used_at
FROM refresh_tokens
WHERE token = $1
`

// Get token and mark it used in one guarded statement
// If the token is used already the original used_at is kept and an error returned
func (r *RefreshTokenRepo) GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rowTo := func(row pgx.CollectableRow) (models.RefreshToken, error) {
		t := models.RefreshToken{Token: tokenString}
		err := row.Scan(&t.ID, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
		return t, err
	}

	rows, _ := r.DB.Query(ctx, markTokenUsed, tokenString)
	token, err := pgx.CollectOneRow(rows, rowTo)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Not updated: the token is either unknown or used already
		rows, _ := r.DB.Query(ctx, getToken, tokenString)
		token, err = pgx.CollectOneRow(rows, rowTo)

		switch {
		case err == nil:
			return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenIsUsed)
		case errors.Is(err, pgx.ErrNoRows):
			return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
		default:
			return token, fmt.Errorf("db error: %w", err)
		}
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}
