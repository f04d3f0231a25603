package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/qgfurioso/coinledger/internal/handlers/render"
	"github.com/qgfurioso/coinledger/internal/handlers/userctx"
	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/models"
)

type relatedEntityResponse struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type transactionResponse struct {
	ID          int64                  `json:"id"`
	Amount      int64                  `json:"amount"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Related     *relatedEntityResponse `json:"related_entity,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

func toTransactionResponse(t models.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          t.ID,
		Amount:      t.Amount,
		Type:        t.Type,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	if t.Related != nil {
		resp.Related = &relatedEntityResponse{Type: t.Related.Type, ID: t.Related.ID}
	}
	return resp
}

func handleUserBalance(ledgerService ledgerService, l logger.Logger) http.Handler {
	type response struct {
		Balance        int64 `json:"balance"`
		LifetimeEarned int64 `json:"lifetime_earned"`
		LifetimeSpent  int64 `json:"lifetime_spent"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		balance, err := ledgerService.GetBalance(r.Context(), user.ID)

		switch err {
		case nil:
			render.JSON(w, response{
				Balance:        balance.Balance,
				LifetimeEarned: balance.LifetimeEarned,
				LifetimeSpent:  balance.LifetimeSpent,
			})
		default:
			l.Error("Failed to get balance", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListTransactions(ledgerService ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// Optional limit, full history when not set
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				render.ServiceError(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		history, err := ledgerService.GetHistory(r.Context(), user.ID, limit)

		switch err {
		case nil:
			transactions := make([]transactionResponse, 0, len(history))
			for _, t := range history {
				transactions = append(transactions, toTransactionResponse(t))
			}
			render.JSON(w, transactions)
		default:
			l.Error("Failed to list transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
