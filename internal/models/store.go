package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RedemptionStatusPending   = "pending"
	RedemptionStatusFulfilled = "fulfilled"
	RedemptionStatusCancelled = "cancelled"
)

type StoreItem struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	Name        string
	Description string
	PriceCoins  int64
	Stock       int32
	Active      bool
}

type Redemption struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	UserID      uuid.UUID
	ItemID      uuid.UUID
	PriceCoins  int64
	Status      string
	FulfilledAt *time.Time // nil until the redemption is fulfilled
}
