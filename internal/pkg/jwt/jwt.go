package jwt

import (
	"fmt"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims содержит payload сессионного токена
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService управляет созданием и валидацией сессионных токенов
// Сессия диспетчера - подписанный JWT в cookie, серверного хранилища сессий нет
type TokenService struct {
	secretKey  string
	sessionTTL time.Duration
}

// NewTokenService создает новый сервис для работы с сессионными токенами
func NewTokenService(secretKey string, sessionTTL time.Duration) *TokenService {
	return &TokenService{
		secretKey:  secretKey,
		sessionTTL: sessionTTL,
	}
}

// GenerateSessionToken генерирует подписанный сессионный токен
func (ts *TokenService) GenerateSessionToken(username string) (string, time.Time, error) {
	expiresAt := time.Now().Add(ts.sessionTTL)

	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "fleettrack",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(ts.secretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateSessionToken валидирует сессионный токен и возвращает claims
func (ts *TokenService) ValidateSessionToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.secretKey), nil
	})

	if err != nil {
		return nil, domain.ErrInvalidSession
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidSession
	}

	// Проверяем срок действия
	if claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}

	return claims, nil
}
