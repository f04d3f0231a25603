package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/qgfurioso/coinledger/internal/models"
	"github.com/qgfurioso/coinledger/internal/repository"
	"github.com/qgfurioso/coinledger/internal/service/ledger"
)

// StoreService owns the reward catalog and the redemption flow
// It is the principal debit caller of the coin ledger
type StoreService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *StoreService {
	return &StoreService{storage: storage}
}

func (s *StoreService) CreateItem(ctx context.Context, item models.StoreItem) (models.StoreItem, error) {
	return s.storage.Store().CreateItem(ctx, item)
}

func (s *StoreService) GetItem(ctx context.Context, itemID uuid.UUID) (models.StoreItem, error) {
	return s.storage.Store().GetItem(ctx, itemID)
}

// ListItems returns the catalog, active and in stock items only
func (s *StoreService) ListItems(ctx context.Context) ([]models.StoreItem, error) {
	return s.storage.Store().ListItems(ctx, true)
}

// Redeem exchanges coins for one unit of the item
// Stock decrement, redemption record and the coin debit commit together or not at all
func (s *StoreService) Redeem(ctx context.Context, userID uuid.UUID, itemID uuid.UUID) (models.Redemption, error) {
	var redemption models.Redemption

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		item, err := st.Store().DecrementStock(ctx, itemID)
		if err != nil {
			return err
		}

		redemption, err = st.Store().CreateRedemption(ctx, models.Redemption{
			ID:         uuid.New(),
			UserID:     userID,
			ItemID:     item.ID,
			PriceCoins: item.PriceCoins,
			Status:     models.RedemptionStatusPending,
		})
		if err != nil {
			return fmt.Errorf("can't create redemption. Err: %w", err)
		}

		_, _, err = ledger.Apply(ctx, st, ledger.ApplyParams{
			UserID:      userID,
			Amount:      -item.PriceCoins,
			Type:        models.TransactionTypeRedemption,
			Description: "Redeemed " + item.Name,
			Related: &models.RelatedEntity{
				Type: models.RelatedEntityRedemption,
				ID:   redemption.ID.String(),
			},
		})

		return err
	})
	if err != nil {
		return models.Redemption{}, err
	}

	return redemption, nil
}

// ListRedemptions returns user redemptions newest first
func (s *StoreService) ListRedemptions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Redemption, error) {
	return s.storage.Store().ListRedemptions(ctx, userID, limit)
}

// ListPending returns pending redemptions oldest first
func (s *StoreService) ListPending(ctx context.Context, limit int) ([]models.Redemption, error) {
	return s.storage.Store().ListPendingRedemptions(ctx, limit)
}

// Fulfill marks the pending redemption fulfilled
func (s *StoreService) Fulfill(ctx context.Context, redemptionID uuid.UUID) (models.Redemption, error) {
	return s.storage.Store().MarkFulfilled(ctx, redemptionID)
}
