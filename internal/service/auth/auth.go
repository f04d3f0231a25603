package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qgfurioso/coinledger/internal/apperrors"
	"github.com/qgfurioso/coinledger/internal/models"
	"github.com/qgfurioso/coinledger/internal/service/auth/tokenmanager"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "refreshToken"
)

// User operations the auth service relies on
// Satisfied by the user service
type userService interface {
	// Create user
	// Has to return apperrors.ErrUserAlreadyExists if username is taken
	CreateUser(ctx context.Context, username string, password string) (models.User, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound for unknown user or wrong password
	Login(ctx context.Context, username string, password string) (models.User, error)

	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type Config struct {
	// Header and scheme to transfer access token
	// If not set than default is used
	AccessHeaderName string
	AccessAuthScheme string

	// Cookie name to transfer refresh token
	// If not set than default is used
	RefreshCookieName string
}

// Auth service: token pairs over the user service
type AuthService struct {
	// Manager to issue token pairs (access and refresh)
	token *tokenmanager.TokenManager

	// Service to create and authenticate users
	users userService

	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, users userService) (*AuthService, error) {
	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultString(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefaultString(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &AuthService{
		token:             token,
		users:             users,
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		refreshCookieName: cfg.RefreshCookieName,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.users.CreateUser(ctx, username, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.users.Login(ctx, username, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

// Rotate token pair with single use refresh token
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.users.GetUserByID(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

// Authenticate request by access token
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(s.accessHeaderName)

	access, found := strings.CutPrefix(header, s.accessAuthScheme+" ")
	if !found || access == "" {
		return models.User{}, errors.New("no access token in request")
	}

	userID, err := s.token.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("token user not found. Err: %w", apperrors.ErrUserNotFound)
	}

	return user, nil
}

// Set token pair to response: access in header, refresh in http only cookie
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		Expires:  pair.Refresh.ExpiresAt,
		MaxAge:   int(time.Until(pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Set token pair to request the same way SetTokenPairToResponse writes it
// Handy for clients and tests
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	r.AddCookie(&http.Cookie{
		Name:  s.refreshCookieName,
		Value: pair.Refresh.Value,
	})
}

// Get refresh token string from request cookie
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil {
		return "", fmt.Errorf("no refresh token in request. Err: %w", err)
	}
	return cookie.Value, nil
}
