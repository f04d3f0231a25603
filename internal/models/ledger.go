package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction type tags. Callers decide the tag, the ledger only records it.
const (
	TransactionTypeSignupBonus     = "signup_bonus"
	TransactionTypeSurveyReward    = "survey_reward"
	TransactionTypeRedemption      = "redemption"
	TransactionTypeAdminAdjustment = "admin_adjustment"
)

// Related entity kinds referenced by transactions
const (
	RelatedEntitySurvey     = "survey"
	RelatedEntityRedemption = "redemption"
)

// Balance of coins for one user
// Must satisfy: Balance == LifetimeEarned - LifetimeSpent, Balance >= 0
type Balance struct {
	UserID         uuid.UUID
	Balance        int64
	LifetimeEarned int64
	LifetimeSpent  int64
	UpdatedAt      time.Time
}

// Weak (type, id) reference to whatever caused a transaction
// No referential integrity is guaranteed
type RelatedEntity struct {
	Type string
	ID   string
}

// Transaction is one append-only ledger entry
// Amount is signed: positive is a credit, negative is a debit
type Transaction struct {
	ID          int64
	UserID      uuid.UUID
	Amount      int64
	Type        string
	Description string
	Related     *RelatedEntity
	CreatedAt   time.Time
}
