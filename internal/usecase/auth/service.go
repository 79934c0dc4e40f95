package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/pkg/hash"
	"github.com/frontandrew/fleettrack/internal/pkg/jwt"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/frontandrew/fleettrack/internal/pkg/sanitize"
)

// LoginRequest - данные формы входа
type LoginRequest struct {
	Username string
	Password string
}

// Service содержит бизнес-логику аутентификации диспетчера
// Учетная запись одна и берется из окружения; пароль хешируется при старте
// и в открытом виде дальше нигде не хранится
type Service struct {
	username     string
	passwordHash string
	tokenService *jwt.TokenService
	logger       logger.Logger
}

// NewService создает новый экземпляр AuthService
func NewService(
	username string,
	password string,
	tokenService *jwt.TokenService,
	logger logger.Logger,
) (*Service, error) {
	passwordHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash dispatcher password: %w", err)
	}

	return &Service{
		username:     username,
		passwordHash: passwordHash,
		tokenService: tokenService,
		logger:       logger,
	}, nil
}

// Login проверяет учетные данные и выдает сессионный токен
func (s *Service) Login(ctx context.Context, req *LoginRequest) (string, time.Time, error) {
	username := sanitize.CleanText(req.Username)

	if !sanitize.ValidUsername(username) {
		s.logger.Warn("Login failed: invalid username format")
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	if username != s.username || !hash.CheckPassword(s.passwordHash, req.Password) {
		s.logger.Warn("Login failed: invalid credentials", map[string]interface{}{
			"username": username,
		})
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenService.GenerateSessionToken(username)
	if err != nil {
		s.logger.Error("Failed to generate session token", map[string]interface{}{
			"error": err.Error(),
		})
		return "", time.Time{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	s.logger.Info("Dispatcher logged in", map[string]interface{}{
		"username": username,
	})

	return token, expiresAt, nil
}

// ValidateSession проверяет сессионный токен и возвращает claims
func (s *Service) ValidateSession(tokenString string) (*jwt.Claims, error) {
	return s.tokenService.ValidateSessionToken(tokenString)
}
