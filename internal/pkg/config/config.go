package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Security SecurityConfig
	Upload   UploadConfig
	Logger   LoggerConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Host         string
	Port         string
	BaseURL      string // Внешний адрес приложения, используется в ссылках для водителей
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SMTPConfig содержит настройки почтового сервера
// В разработке используется MailHog (localhost:1025, без аутентификации)
type SMTPConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Sender          string // Адрес отправителя
	SenderName      string // Отображаемое имя отправителя
	DispatcherEmail string // Адрес диспетчера для предупреждений о ТО
}

// AuthConfig содержит учетные данные диспетчера
// В системе ровно один оператор, аккаунт задается окружением
type AuthConfig struct {
	Username string
	Password string
}

// SecurityConfig содержит настройки сессий и CSRF-защиты
type SecurityConfig struct {
	SecretKey  string
	SessionTTL time.Duration
	CSRFTTL    time.Duration
}

// UploadConfig содержит настройки загрузки фотографий одометра
type UploadConfig struct {
	Dir string
}

// LoggerConfig содержит настройки логирования
type LoggerConfig struct {
	Level  string
	Format string // json или console
	Output string // stdout или путь к файлу
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку, если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			BaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "fleettrack_user"),
			Password:        getEnv("DB_PASSWORD", "fleettrack_password"),
			Database:        getEnv("DB_NAME", "fleettrack_db"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:            getEnv("SMTP_HOST", "localhost"),
			Port:            getIntEnv("SMTP_PORT", 1025),
			Username:        getEnv("SMTP_USERNAME", ""),
			Password:        getEnv("SMTP_PASSWORD", ""),
			Sender:          getEnv("MAIL_ABSENDER", "fleettrack@localhost"),
			SenderName:      getEnv("MAIL_ABSENDER_NAME", "FleetTrack"),
			DispatcherEmail: getEnv("DISPONENT_EMAIL", "disponent@localhost"),
		},
		Auth: AuthConfig{
			// Имена переменных унаследованы от прежнего деплоя
			Username: getEnv("DISPONENT_BENUTZERNAME", "disponent"),
			Password: getEnv("DISPONENT_PASSWORT", "Dispo123!"),
		},
		Security: SecurityConfig{
			SecretKey:  getEnv("SECRET_KEY", "change-this-secret-in-production"),
			SessionTTL: getDurationEnv("SESSION_TTL", 8*time.Hour),
			CSRFTTL:    getDurationEnv("CSRF_TTL", 1*time.Hour),
		},
		Upload: UploadConfig{
			Dir: getEnv("UPLOAD_DIR", "uploads"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
	}

	return cfg, nil
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Address возвращает адрес сервера
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Address возвращает адрес Redis
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
