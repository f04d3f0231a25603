package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrBalanceNotFound    = errors.New("balance not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrTransactionInvalid = errors.New("transaction is invalid")

	ErrItemNotFound       = errors.New("store item not found")
	ErrItemUnavailable    = errors.New("store item is not available")
	ErrRedemptionNotFound = errors.New("redemption not found")

	ErrStorageUnavailable = errors.New("storage unavailable")
)
