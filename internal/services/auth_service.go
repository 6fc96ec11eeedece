package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/utils"
)

const minPasswordLength = 8

var ErrInvalidCredentials = errors.New("invalid credentials")

type AdminRepository interface {
	PasswordHash(ctx context.Context) (string, error)
	SetPasswordHash(ctx context.Context, hash string) error
}

// AuthService guards the admin surface with a single password.
type AuthService struct {
	repo      AdminRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo AdminRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Bootstrap stores the hash of password when no admin password exists yet.
func (s *AuthService) Bootstrap(ctx context.Context, password string) error {
	_, err := s.repo.PasswordHash(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("auth: load admin password: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("auth: hash bootstrap password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, hash); err != nil {
		return fmt.Errorf("auth: store bootstrap password: %w", err)
	}

	log.Info().Msg("auth: admin password bootstrapped")
	return nil
}

// Login returns a signed admin token when password matches.
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", apperr.Validation("Password is required", "password")
	}

	hash, err := s.repo.PasswordHash(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth: load admin password: %w", err)
	}
	if !utils.CheckPassword(hash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(s.jwtSecret, utils.RoleAdmin, utils.RoleAdmin, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	var missing []string
	if current == "" {
		missing = append(missing, "current_password")
	}
	if next == "" {
		missing = append(missing, "new_password")
	}
	if err := apperr.MissingFields(missing); err != nil {
		return err
	}
	if len(next) < minPasswordLength {
		return apperr.Validation(fmt.Sprintf("new password must be at least %d characters", minPasswordLength), "new_password")
	}

	hash, err := s.repo.PasswordHash(ctx)
	if err != nil {
		return fmt.Errorf("auth: load admin password: %w", err)
	}
	if !utils.CheckPassword(hash, current) {
		return ErrInvalidCredentials
	}

	newHash, err := utils.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.repo.SetPasswordHash(ctx, newHash); err != nil {
		return fmt.Errorf("auth: store admin password: %w", err)
	}

	log.Info().Msg("auth: admin password changed")
	return nil
}
