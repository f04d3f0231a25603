package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/handlers/render"
	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/models"
	"github.com/qgfurioso/coinledger/internal/service/ledger"
)

// Manual coin corrections for support staff
// Signed amount: positive credits the user, negative debits
func handleCreateAdjustment(ledgerService ledgerService, l logger.Logger) http.Handler {
	type request struct {
		UserID      uuid.UUID `json:"user_id" validate:"required"`
		Amount      int64     `json:"amount" validate:"required"`
		Description string    `json:"description" validate:"required"`
	}
	type response struct {
		Transaction transactionResponse `json:"transaction"`
		Balance     int64               `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		transaction, balance, err := ledgerService.ApplyTransaction(r.Context(), ledger.ApplyParams{
			UserID:      data.UserID,
			Amount:      data.Amount,
			Type:        models.TransactionTypeAdminAdjustment,
			Description: data.Description,
		})

		switch {
		case err == nil:
			render.JSON(w, response{
				Transaction: toTransactionResponse(transaction),
				Balance:     balance.Balance,
			})
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			render.ServiceError(w, "Insufficient coins", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrTransactionInvalid):
			render.ServiceError(w, "Invalid adjustment", http.StatusBadRequest)
		default:
			l.Error("Failed to apply adjustment", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
