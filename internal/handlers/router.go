package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/qgfurioso/coinledger/internal/handlers/middleware"
	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/models"
	"github.com/qgfurioso/coinledger/internal/service/ledger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	ledgerService ledgerService,
	storeService storeService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	withStaff := func(h http.Handler) http.Handler {
		return chain(h, authMiddleware, middleware.StaffOnly())
	}

	apiuser := http.NewServeMux()

	apiuser.Handle("POST /login", handleLogin(authService, logger))
	apiuser.Handle("POST /register", handleRegister(authService, logger))
	apiuser.Handle("POST /refresh", handleTokenRefresh(authService, logger))

	apiuser.Handle("GET /balance", withAuth(handleUserBalance(ledgerService, logger)))
	apiuser.Handle("GET /transactions", withAuth(handleListTransactions(ledgerService, logger)))
	apiuser.Handle("GET /redemptions", withAuth(handleListRedemptions(storeService, logger)))
	apiuser.Handle("GET /me", withAuth(handleUserMe()))

	apistore := http.NewServeMux()

	apistore.Handle("GET /items", handleListItems(storeService, logger))
	apistore.Handle("POST /redeem", withAuth(handleRedeem(storeService, logger)))

	apiadmin := http.NewServeMux()

	apiadmin.Handle("POST /adjustments", withStaff(handleCreateAdjustment(ledgerService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))
	root.Handle("/api/store/", http.StripPrefix("/api/store", apistore))
	root.Handle("/api/admin/", http.StripPrefix("/api/admin", apiadmin))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type ledgerService interface {
	ApplyTransaction(ctx context.Context, p ledger.ApplyParams) (models.Transaction, models.Balance, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error)
	GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
}

type storeService interface {
	ListItems(ctx context.Context) ([]models.StoreItem, error)
	Redeem(ctx context.Context, userID uuid.UUID, itemID uuid.UUID) (models.Redemption, error)
	ListRedemptions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Redemption, error)
}
