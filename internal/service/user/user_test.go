package user

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/models"
	"github.com/qgfurioso/coinledger/internal/repository"
	"github.com/qgfurioso/coinledger/internal/repository/postgres"
	"github.com/qgfurioso/coinledger/internal/testutil"
)

func Test_UserService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(t *testing.T, cfg Config, fn func(s *UserService, storage repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(nil, storage, cfg), storage)
		})
	}

	t.Run("CreateUser", func(t *testing.T) {
		t.Run("create ok with signup bonus", func(t *testing.T) {
			withTx(t, Config{SignupBonus: 100}, func(s *UserService, storage repository.Storage) {
				user, err := s.CreateUser(t.Context(), "furioso-fan", "pwd")

				require.NoError(t, err)
				require.Equal(t, "furioso-fan", user.Username)
				require.NotEqual(t, "pwd", user.HashedPassword, "password should never be stored as is")

				balance, err := storage.Ledger().GetBalance(t.Context(), user.ID)
				require.NoError(t, err)
				require.EqualValues(t, 100, balance.Balance, "signup bonus should be on the balance")

				history, err := storage.Ledger().ListTransactions(t.Context(), user.ID, 0)
				require.NoError(t, err)
				require.Len(t, history, 1)
				require.Equal(t, models.TransactionTypeSignupBonus, history[0].Type)
				require.EqualValues(t, 100, history[0].Amount)
			})
		})

		t.Run("create ok without bonus", func(t *testing.T) {
			withTx(t, Config{}, func(s *UserService, storage repository.Storage) {
				user, err := s.CreateUser(t.Context(), "furioso-fan", "pwd")
				require.NoError(t, err)

				// Balance row exists and holds nothing
				balance, err := storage.Ledger().GetBalance(t.Context(), user.ID)
				require.NoError(t, err)
				require.Zero(t, balance.Balance)

				history, err := storage.Ledger().ListTransactions(t.Context(), user.ID, 0)
				require.NoError(t, err)
				require.Empty(t, history)
			})
		})

		t.Run("fail if username taken", func(t *testing.T) {
			withTx(t, Config{SignupBonus: 100}, func(s *UserService, _ repository.Storage) {
				_, err := s.CreateUser(t.Context(), "furioso-fan", "pwd")
				require.NoError(t, err)

				_, err = s.CreateUser(t.Context(), "furioso-fan", "other-pwd")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			withTx(t, Config{}, func(s *UserService, _ repository.Storage) {
				created, err := s.CreateUser(t.Context(), "furioso-fan", "pwd")
				require.NoError(t, err)

				user, err := s.Login(t.Context(), "furioso-fan", "pwd")

				require.NoError(t, err)
				require.Equal(t, created.ID, user.ID)
			})
		})

		t.Run("wrong password", func(t *testing.T) {
			withTx(t, Config{}, func(s *UserService, _ repository.Storage) {
				_, err := s.CreateUser(t.Context(), "furioso-fan", "pwd")
				require.NoError(t, err)

				_, err = s.Login(t.Context(), "furioso-fan", "wrong")

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})

		t.Run("unknown user", func(t *testing.T) {
			withTx(t, Config{}, func(s *UserService, _ repository.Storage) {
				_, err := s.Login(t.Context(), "nobody", "pwd")

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("SetStaff", func(t *testing.T) {
		withTx(t, Config{}, func(s *UserService, _ repository.Storage) {
			created, err := s.CreateUser(t.Context(), "furioso-fan", "pwd")
			require.NoError(t, err)
			require.False(t, created.IsStaff)

			user, err := s.SetStaff(t.Context(), created.ID, true)

			require.NoError(t, err)
			require.True(t, user.IsStaff)
		})
	})
}
