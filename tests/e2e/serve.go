package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/qgfurioso/coinledger/internal/handlers"
	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/repository"
	"github.com/qgfurioso/coinledger/internal/repository/postgres"
	"github.com/qgfurioso/coinledger/internal/service/auth"
	"github.com/qgfurioso/coinledger/internal/service/auth/tokenmanager"
	"github.com/qgfurioso/coinledger/internal/service/ledger"
	"github.com/qgfurioso/coinledger/internal/service/store"
	"github.com/qgfurioso/coinledger/internal/service/user"
	"github.com/qgfurioso/coinledger/internal/testutil"
)

// Registration bonus granted by the test server
const SignupBonus = 100

type Services struct {
	AuthService   *auth.AuthService
	UserService   *user.UserService
	LedgerService *ledger.LedgerService
	StoreService  *store.StoreService
	Storage       repository.Storage
}

// Create db transaction and run server in with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.InTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		us := user.NewService(nil, storage, user.Config{SignupBonus: SignupBonus})
		ls := ledger.NewService(storage)
		ss := store.NewService(storage)

		as, err := auth.NewService(auth.Config{}, tokenManager, us)
		require.NoError(t, err, "auth service starting error", err)

		// Complete all together as router
		router := handlers.NewRouter(
			as,
			ls,
			ss,
			logger.NewNoOpLogger(),
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService:   as,
			UserService:   us,
			LedgerService: ls,
			StoreService:  ss,
			Storage:       storage,
		})
	})
}
