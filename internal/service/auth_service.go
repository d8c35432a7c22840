package service

import (
	"errors"
	"strings"
	"time"

	"github.com/noteduco342/OMCalendar-backend/internal/apperr"
	"github.com/noteduco342/OMCalendar-backend/internal/auth"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/repository"
	"github.com/noteduco342/OMCalendar-backend/internal/validation"
	"gorm.io/gorm"
)

type AuthService struct {
	store      repository.Store
	issuer     auth.TokenIssuer
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(store repository.Store, issuer auth.TokenIssuer, refreshTTL time.Duration) *AuthService {
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &AuthService{store: store, issuer: issuer, refreshTTL: refreshTTL, now: time.Now}
}

type SignupInput struct {
	FirstName string `json:"firstname" validate:"max=100"`
	LastName  string `json:"lastname" validate:"max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

type SigninInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshtoken"`
}

var errInvalidCredentials = apperr.Unauthorized("invalid email or password")

// Signup registers a USER account.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	return createUser(s.store.Users(), CreateUserInput{
		FirstName:  input.FirstName,
		SecondName: input.LastName,
		Email:      input.Email,
		Password:   input.Password,
		Role:       string(models.RoleUser),
	})
}

func (s *AuthService) Signin(input SigninInput) (*TokenPair, error) {
	user, err := s.store.Users().FindByEmail(validation.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !checkPassword(user.PasswordHash, input.Password) {
		return nil, errInvalidCredentials
	}
	return s.issueTokens(s.store, user)
}

// Refresh exchanges a valid refresh token for a new pair. The presented token is revoked.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperr.Unauthorized("missing refresh token")
	}
	hash := auth.HashRefreshToken(refreshToken)

	var pair *TokenPair
	err := s.store.Transaction(func(tx repository.Store) error {
		token, err := tx.RefreshTokens().FindValidByHash(hash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Unauthorized("invalid or expired refresh token")
			}
			return err
		}
		user, err := tx.Users().FindByID(token.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Unauthorized("invalid or expired refresh token")
			}
			return err
		}
		revoked, err := tx.RefreshTokens().RevokeByHash(hash)
		if err != nil {
			return err
		}
		if revoked == 0 {
			return apperr.Unauthorized("invalid or expired refresh token")
		}
		pair, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Signout revokes the refresh token. Unknown or already revoked tokens are ignored.
func (s *AuthService) Signout(refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	_, err := s.store.RefreshTokens().RevokeByHash(auth.HashRefreshToken(refreshToken))
	return err
}

func (s *AuthService) RoleByEmail(email string) (models.Role, error) {
	email = validation.NormalizeEmail(email)
	user, err := s.store.Users().FindByEmail(email)
	if err != nil {
		return "", notFound(err, "user with email %s not found", email)
	}
	return user.Role, nil
}

func (s *AuthService) issueTokens(store repository.Store, user *models.User) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := store.RefreshTokens().Create(&models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}
	return &TokenPair{Token: access, RefreshToken: raw}, nil
}
