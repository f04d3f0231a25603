package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/handlers/render"
	"github.com/qgfurioso/coinledger/internal/handlers/userctx"
	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/models"
)

type redemptionResponse struct {
	ID          uuid.UUID  `json:"id"`
	ItemID      uuid.UUID  `json:"item_id"`
	PriceCoins  int64      `json:"price_coins"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
}

func toRedemptionResponse(r models.Redemption) redemptionResponse {
	return redemptionResponse{
		ID:          r.ID,
		ItemID:      r.ItemID,
		PriceCoins:  r.PriceCoins,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		FulfilledAt: r.FulfilledAt,
	}
}

func handleListItems(storeService storeService, l logger.Logger) http.Handler {
	type item struct {
		ID          uuid.UUID `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		PriceCoins  int64     `json:"price_coins"`
		Stock       int32     `json:"stock"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		storeItems, err := storeService.ListItems(r.Context())

		switch err {
		case nil:
			items := make([]item, 0, len(storeItems))
			for _, i := range storeItems {
				items = append(items, item{
					ID:          i.ID,
					Name:        i.Name,
					Description: i.Description,
					PriceCoins:  i.PriceCoins,
					Stock:       i.Stock,
				})
			}
			render.JSON(w, items)
		default:
			l.Error("Failed to list store items", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleRedeem(storeService storeService, l logger.Logger) http.Handler {
	type request struct {
		ItemID uuid.UUID `json:"item_id" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		redemption, err := storeService.Redeem(r.Context(), user.ID, data.ItemID)

		switch {
		case err == nil:
			render.JSON(w, toRedemptionResponse(redemption))
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			render.ServiceError(w, "Insufficient coins", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrItemNotFound):
			render.ServiceError(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrItemUnavailable):
			render.ServiceError(w, "Item is not available", http.StatusConflict)
		default:
			l.Error("Failed to redeem item", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListRedemptions(storeService storeService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		list, err := storeService.ListRedemptions(r.Context(), user.ID, 0)

		switch err {
		case nil:
			redemptions := make([]redemptionResponse, 0, len(list))
			for _, redemption := range list {
				redemptions = append(redemptions, toRedemptionResponse(redemption))
			}
			render.JSON(w, redemptions)
		default:
			l.Error("Failed to list redemptions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
