package ledger

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/models"
	"github.com/qgfurioso/coinledger/internal/repository"
	"github.com/qgfurioso/coinledger/internal/repository/postgres"
	"github.com/qgfurioso/coinledger/internal/testutil"
)

func TestLedgerService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(s *LedgerService, storage repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(storage), storage)
		})
	}

	createUser := func(t *testing.T, storage repository.Storage) models.User {
		user, err := storage.User().CreateUser(t.Context(), "fan-"+uuid.NewString(), "hash")
		require.NoError(t, err)
		return user
	}

	t.Run("ApplyTransaction", func(t *testing.T) {
		t.Run("signup bonus scenario", func(t *testing.T) {
			inTx(t, func(s *LedgerService, storage repository.Storage) {
				user := createUser(t, storage)

				transaction, balance, err := s.ApplyTransaction(t.Context(), ApplyParams{
					UserID:      user.ID,
					Amount:      100,
					Type:        models.TransactionTypeSignupBonus,
					Description: "Welcome",
				})

				require.NoError(t, err, "applying signup bonus should not fail")
				require.NotZero(t, transaction.ID)
				require.EqualValues(t, 100, transaction.Amount)
				require.EqualValues(t, 100, balance.Balance)
				require.EqualValues(t, 100, balance.LifetimeEarned)
				require.Zero(t, balance.LifetimeSpent)
			})
		})

		t.Run("redemption debit scenario", func(t *testing.T) {
			inTx(t, func(s *LedgerService, storage repository.Storage) {
				user := createUser(t, storage)

				_, _, err := s.ApplyTransaction(t.Context(), ApplyParams{
					UserID: user.ID, Amount: 100, Type: models.TransactionTypeSignupBonus, Description: "Welcome",
				})
				require.NoError(t, err)

				_, balance, err := s.ApplyTransaction(t.Context(), ApplyParams{
					UserID:      user.ID,
					Amount:      -30,
					Type:        models.TransactionTypeRedemption,
					Description: "Bought cap",
				})

				require.NoError(t, err, "debit within balance should not fail")
				require.EqualValues(t, 70, balance.Balance)
				require.EqualValues(t, 100, balance.LifetimeEarned)
				require.EqualValues(t, 30, balance.LifetimeSpent)
			})
		})

		t.Run("insufficient funds keeps state unchanged", func(t *testing.T) {
			inTx(t, func(s *LedgerService, storage repository.Storage) {
				user := createUser(t, storage)

				_, _, err := s.ApplyTransaction(t.Context(), ApplyParams{
					UserID: user.ID, Amount: 100, Type: models.TransactionTypeSignupBonus, Description: "Welcome",
				})
				require.NoError(t, err)
				_, _, err = s.ApplyTransaction(t.Context(), ApplyParams{
					UserID: user.ID, Amount: -30, Type: models.TransactionTypeRedemption, Description: "Bought cap",
				})
				require.NoError(t, err)

				_, _, err = s.ApplyTransaction(t.Context(), ApplyParams{
					UserID:      user.ID,
					Amount:      -1000,
					Type:        models.TransactionTypeRedemption,
					Description: "Too expensive",
				})

				require.Error(t, err, "debit below zero should fail")
				require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

				balance, err := s.GetBalance(t.Context(), user.ID)
				require.NoError(t, err)
				require.EqualValues(t, 70, balance.Balance)
				require.EqualValues(t, 100, balance.LifetimeEarned)
				require.EqualValues(t, 30, balance.LifetimeSpent)

				history, err := s.GetHistory(t.Context(), user.ID, 0)
				require.NoError(t, err)
				require.Len(t, history, 2, "failed debit must not leave a transaction row")
			})
		})

		t.Run("unknown user", func(t *testing.T) {
			inTx(t, func(s *LedgerService, _ repository.Storage) {
				_, _, err := s.ApplyTransaction(t.Context(), ApplyParams{
					UserID: uuid.New(), Amount: 100, Type: models.TransactionTypeSignupBonus, Description: "Welcome",
				})

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})

		t.Run("invalid params", func(t *testing.T) {
			inTx(t, func(s *LedgerService, storage repository.Storage) {
				user := createUser(t, storage)

				tests := []struct {
					name   string
					params ApplyParams
				}{
					{"zero amount", ApplyParams{UserID: user.ID, Amount: 0, Type: "survey_reward", Description: "Survey"}},
					{"empty type", ApplyParams{UserID: user.ID, Amount: 10, Type: "", Description: "Survey"}},
					{"empty description", ApplyParams{UserID: user.ID, Amount: 10, Type: "survey_reward", Description: ""}},
				}

				for _, tt := range tests {
					t.Run(tt.name, func(t *testing.T) {
						_, _, err := s.ApplyTransaction(t.Context(), tt.params)

						require.Error(t, err)
						require.ErrorIs(t, err, apperrors.ErrTransactionInvalid)
					})
				}
			})
		})
	})

	t.Run("GetBalance", func(t *testing.T) {
		t.Run("fresh user gets zero balance", func(t *testing.T) {
			inTx(t, func(s *LedgerService, storage repository.Storage) {
				user := createUser(t, storage)

				balance, err := s.GetBalance(t.Context(), user.ID)

				require.NoError(t, err, "valid user without transactions should not get an error")
				require.Equal(t, user.ID, balance.UserID)
				require.Zero(t, balance.Balance)
				require.Zero(t, balance.LifetimeEarned)
				require.Zero(t, balance.LifetimeSpent)
			})
		})

		t.Run("unknown user", func(t *testing.T) {
			inTx(t, func(s *LedgerService, _ repository.Storage) {
				_, err := s.GetBalance(t.Context(), uuid.New())

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("GetHistory", func(t *testing.T) {
		inTx(t, func(s *LedgerService, storage repository.Storage) {
			user := createUser(t, storage)

			amounts := []int64{100, -30, 5, -5}
			for _, amount := range amounts {
				_, _, err := s.ApplyTransaction(t.Context(), ApplyParams{
					UserID: user.ID, Amount: amount, Type: models.TransactionTypeAdminAdjustment, Description: "adjustment",
				})
				require.NoError(t, err)
			}

			history, err := s.GetHistory(t.Context(), user.ID, 0)
			require.NoError(t, err)
			require.Len(t, history, len(amounts))

			// Newest first: ids strictly decreasing, created_at non increasing
			var sum int64
			for i, transaction := range history {
				sum += transaction.Amount
				if i == 0 {
					continue
				}
				require.Greater(t, history[i-1].ID, transaction.ID, "ids should be strictly decreasing")
				require.False(t, history[i-1].CreatedAt.Before(transaction.CreatedAt), "created_at should be non increasing")
			}

			// Balance always equals the sum of the history
			balance, err := s.GetBalance(t.Context(), user.ID)
			require.NoError(t, err)
			require.Equal(t, sum, balance.Balance, "balance should equal sum of transactions")
			require.Equal(t, balance.Balance, balance.LifetimeEarned-balance.LifetimeSpent)

			limited, err := s.GetHistory(t.Context(), user.ID, 2)
			require.NoError(t, err)
			require.Len(t, limited, 2)
		})
	})
}

// Concurrent applies for one user must not lose updates:
// the balance is moved by the database, not by application code
func TestLedgerService_ConcurrentApplies(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Work on the pool directly: concurrency needs many connections
	storage := postgres.NewStorage(pg.Pool)
	service := NewService(storage)

	user, err := storage.User().CreateUser(t.Context(), "concurrent-fan", "hash")
	require.NoError(t, err)

	const workers = 20

	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := service.ApplyTransaction(t.Context(), ApplyParams{
				UserID:      user.ID,
				Amount:      1,
				Type:        models.TransactionTypeSurveyReward,
				Description: "Survey reward",
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err, "concurrent credit should not fail")
	}

	balance, err := service.GetBalance(t.Context(), user.ID)
	require.NoError(t, err)
	require.EqualValues(t, workers, balance.Balance, "no credit should be lost")

	history, err := service.GetHistory(t.Context(), user.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, workers, "every credit should leave exactly one transaction")
}
