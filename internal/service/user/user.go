package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/models"
	"github.com/qgfurioso/coinledger/internal/repository"
	"github.com/qgfurioso/coinledger/internal/service/auth"
	"github.com/qgfurioso/coinledger/internal/service/ledger"
)

const signupBonusDescription = "Signup bonus"

type Config struct {
	// Coins granted on registration. Zero disables the bonus
	SignupBonus int64
}

type UserService struct {
	hasher      auth.PasswordHasher
	storage     repository.Storage
	signupBonus int64
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage, cfg Config) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:      hasher,
		storage:     storage,
		signupBonus: cfg.SignupBonus,
	}
}

// Create user with zero balance and grant the signup bonus if configured
// User row, balance row and bonus transaction appear atomically or not at all
func (s *UserService) CreateUser(ctx context.Context, username string, password string) (models.User, error) {
	var user models.User
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		user, err = st.User().CreateUser(ctx, username, hash)
		if err != nil {
			return fmt.Errorf("can't create user. Err: %w", err)
		}

		if err := st.Ledger().CreateBalance(ctx, user.ID); err != nil {
			return fmt.Errorf("can't create balance. Err: %w", err)
		}

		if s.signupBonus > 0 {
			_, _, err = ledger.Apply(ctx, st, ledger.ApplyParams{
				UserID:      user.ID,
				Amount:      s.signupBonus,
				Type:        models.TransactionTypeSignupBonus,
				Description: signupBonusDescription,
			})
			if err != nil {
				return fmt.Errorf("can't grant signup bonus. Err: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login user by username and password
// Unknown username and wrong password are not distinguishable for the caller
func (s *UserService) Login(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		// Compare anyway to keep response timing the same for unknown users
		_ = s.hasher.Compare(user.HashedPassword, password)
		return models.User{}, apperrors.ErrUserNotFound
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

// Grant or revoke the staff flag
func (s *UserService) SetStaff(ctx context.Context, userID uuid.UUID, isStaff bool) (models.User, error) {
	return s.storage.User().SetStaff(ctx, userID, isStaff)
}
