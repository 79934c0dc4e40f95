package csrf

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frontandrew/fleettrack/internal/pkg/redis"
	redisv9 "github.com/redis/go-redis/v9"
)

// keyPrefix - префикс ключей одноразового состояния в Redis
const keyPrefix = "csrf:"

// rawTokenBytes - 256 бит случайности на токен
const rawTokenBytes = 32

// Service выдает и проверяет одноразовые CSRF-токены форм
// Токен состоит из случайной части и HMAC-SHA256 подписи ("raw.hexsig").
// Одноразовость обеспечивается атомарным GETDEL в Redis: повторная отправка
// той же формы не проходит проверку
type Service struct {
	secretKey string
	store     *redis.Client
	ttl       time.Duration
}

// NewService создает новый CSRF сервис
func NewService(secretKey string, store *redis.Client, ttl time.Duration) *Service {
	return &Service{
		secretKey: secretKey,
		store:     store,
		ttl:       ttl,
	}
}

// Issue генерирует подписанный одноразовый токен и регистрирует его в Redis
func (s *Service) Issue(ctx context.Context) (string, error) {
	raw, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}

	if err := s.store.Set(ctx, keyPrefix+raw, "1", s.ttl); err != nil {
		return "", fmt.Errorf("failed to register csrf token: %w", err)
	}

	return s.sign(raw), nil
}

// Consume проверяет подпись токена и атомарно гасит его
// false означает недействительный, истекший или уже использованный токен;
// ошибка возвращается только при недоступности Redis
func (s *Service) Consume(ctx context.Context, signedToken string) (bool, error) {
	raw, ok := s.verify(signedToken)
	if !ok {
		return false, nil
	}

	_, err := s.store.GetDel(ctx, keyPrefix+raw)
	if err != nil {
		if errors.Is(err, redisv9.Nil) {
			// Токен истек или уже был использован
			return false, nil
		}
		return false, fmt.Errorf("failed to consume csrf token: %w", err)
	}

	return true, nil
}

// sign подписывает случайную часть токена HMAC-SHA256
func (s *Service) sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(s.secretKey))
	mac.Write([]byte(raw))
	return raw + "." + hex.EncodeToString(mac.Sum(nil))
}

// verify проверяет подпись и возвращает случайную часть токена
func (s *Service) verify(signedToken string) (string, bool) {
	parts := strings.SplitN(signedToken, ".", 2)
	if len(parts) != 2 {
		return "", false
	}
	raw, signature := parts[0], parts[1]

	mac := hmac.New(sha256.New, []byte(s.secretKey))
	mac.Write([]byte(raw))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}
	return raw, true
}

// generateToken возвращает URL-safe токен с 256 битами случайности
func generateToken() (string, error) {
	buf := make([]byte, rawTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
