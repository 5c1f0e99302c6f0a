// /internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================
// КОНФИГУРАЦИЯ БАЗЫ ДАННЫХ
// ============================================

// DatabaseConfig - конфигурация PostgreSQL (архив сработавших алертов)
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	// Архив в БД опционален: по умолчанию выключен
	Enabled bool

	// Настройки пула соединений
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig - конфигурация Redis (бэкенд персистентности кэша снапшотов)
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// Redis-бэкенд опционален: по умолчанию кэш пишется в JSON-файл
	Enabled bool

	// Настройки пула соединений
	PoolSize        int
	MinIdleConns    int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolTimeout     time.Duration
}

// ============================================
// ОСНОВНАЯ КОНФИГУРАЦИЯ ПРИЛОЖЕНИЯ
// ============================================

// Config - основная структура конфигурации
type Config struct {
	Environment string
	Version     string

	// ======================
	// TELEGRAM
	// ======================
	Telegram struct {
		Enabled  bool
		BotToken string
	}

	// POLLING КОНФИГУРАЦИЯ
	Polling struct {
		Timeout       int // timeout long poll в секундах
		Limit         int // лимит обновлений за запрос
		RetryInterval int // пауза после ошибки, секунды
	}

	// ======================
	// РЫНОЧНЫЕ ДАННЫЕ И РАССЫЛКА
	// ======================
	UpdateInterval int           // дефолтная частота рассылки, минуты
	CacheTTL       time.Duration // срок годности снапшота в кэше
	LookbackDays   int           // глубина истории часовых свечей

	// ======================
	// ХРАНИЛИЩА
	// ======================
	DataDir  string // директория JSON-хранилищ
	Database DatabaseConfig
	Redis    RedisConfig

	// ======================
	// ЛОГИРОВАНИЕ
	// ======================
	Logging struct {
		Level     string
		File      string
		DebugMode bool
	}
}

// LoadConfig загружает конфигурацию из .env файла
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		fmt.Printf("⚠️  Config file not found, using environment variables\n")
	}

	cfg := &Config{}

	cfg.Environment = getEnv("ENVIRONMENT", "production")
	cfg.Version = getEnv("VERSION", "1.0.0")

	// ======================
	// TELEGRAM
	// ======================
	cfg.Telegram.Enabled = getEnvBool("TELEGRAM_ENABLED", true)
	cfg.Telegram.BotToken = getEnv("TG_API_KEY", "")

	cfg.Polling.Timeout = getEnvInt("POLLING_TIMEOUT", 30)
	cfg.Polling.Limit = getEnvInt("POLLING_LIMIT", 100)
	cfg.Polling.RetryInterval = getEnvInt("POLLING_RETRY_INTERVAL", 5)

	// ======================
	// РЫНОЧНЫЕ ДАННЫЕ И РАССЫЛКА
	// ======================
	cfg.UpdateInterval = getEnvInt("UPDATE_INTERVAL", 30)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
	cfg.LookbackDays = getEnvInt("LOOKBACK_DAYS", 30)

	// ======================
	// ХРАНИЛИЩА
	// ======================
	cfg.DataDir = getEnv("DATA_DIR", "data")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.Database.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	cfg.Database.MaxConnIdleTime = getEnvDuration("DB_MAX_CONN_IDLE_TIME", 10*time.Minute)
	cfg.Database.Enabled = getEnvBool("DB_ENABLED", false)

	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnvInt("REDIS_PORT", 6379)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", 10)
	cfg.Redis.MinIdleConns = getEnvInt("REDIS_MIN_IDLE_CONNS", 5)
	cfg.Redis.MaxRetries = getEnvInt("REDIS_MAX_RETRIES", 3)
	cfg.Redis.MinRetryBackoff = getEnvDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond)
	cfg.Redis.MaxRetryBackoff = getEnvDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond)
	cfg.Redis.DialTimeout = getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.Redis.ReadTimeout = getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.Redis.WriteTimeout = getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.Redis.PoolTimeout = getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second)
	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", false)

	// ======================
	// ЛОГИРОВАНИЕ
	// ======================
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.File = getEnv("LOG_FILE", "logs/forex_bot.log")
	cfg.Logging.DebugMode = getEnvBool("DEBUG_MODE", false)

	// ======================
	// ВАЛИДАЦИЯ КОНФИГУРАЦИИ
	// ======================
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ============================================
// ВАЛИДАЦИЯ
// ============================================

// validate проверяет обязательные параметры конфигурации
func (c *Config) validate() error {
	var validationErrors []string

	// Проверка Telegram если включен
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		validationErrors = append(validationErrors, "TG_API_KEY is required when Telegram is enabled")
	}

	if c.UpdateInterval < 15 || c.UpdateInterval > 1440 {
		validationErrors = append(validationErrors, "UPDATE_INTERVAL must be within 15-1440 minutes")
	}
	if c.CacheTTL <= 0 {
		validationErrors = append(validationErrors, "CACHE_TTL must be positive")
	}
	if c.LookbackDays <= 0 {
		validationErrors = append(validationErrors, "LOOKBACK_DAYS must be positive")
	}
	if c.DataDir == "" {
		validationErrors = append(validationErrors, "DATA_DIR is required")
	}

	if c.Polling.Timeout <= 0 {
		validationErrors = append(validationErrors, "POLLING_TIMEOUT must be positive")
	}

	// Проверка настроек базы данных только если архив включен
	if c.Database.Enabled {
		if c.Database.User == "" {
			validationErrors = append(validationErrors, "DB_USER is required when DB is enabled")
		}
		if c.Database.Password == "" {
			validationErrors = append(validationErrors, "DB_PASSWORD is required when DB is enabled")
		}
		if c.Database.Name == "" {
			validationErrors = append(validationErrors, "DB_NAME is required when DB is enabled")
		}
		if c.Database.Port <= 0 {
			validationErrors = append(validationErrors, "DB_PORT must be positive")
		}
	}

	if len(validationErrors) > 0 {
		errMsg := strings.Join(validationErrors, "; ")
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// GetPostgresDSN возвращает DSN для подключения к PostgreSQL
func (c *Config) GetPostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddress возвращает адрес Redis
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// PrintSummary выводит сводку конфигурации при старте
func (c *Config) PrintSummary() {
	log.Printf("📋 Конфигурация приложения:")
	log.Printf("   • Окружение: %s", c.Environment)
	log.Printf("   • Уровень логирования: %s", c.Logging.Level)
	log.Printf("   • Telegram включен: %v", c.Telegram.Enabled)

	if c.Telegram.Enabled {
		token := c.Telegram.BotToken
		if len(token) > 10 {
			token = token[:10] + "..." + token[len(token)-10:]
		}
		log.Printf("   • Telegram Token: %s", token)
		log.Printf("   • Polling timeout: %d сек", c.Polling.Timeout)
	}

	log.Printf("   • Интервал рассылки: %d мин", c.UpdateInterval)
	log.Printf("   • TTL кэша снапшотов: %s", c.CacheTTL)
	log.Printf("   • Глубина истории: %d дней", c.LookbackDays)
	log.Printf("   • Директория данных: %s", c.DataDir)

	if c.Redis.Enabled {
		log.Printf("   • Redis: %s:%d (DB: %d, Pool: %d)",
			c.Redis.Host, c.Redis.Port, c.Redis.DB, c.Redis.PoolSize)
	} else {
		log.Printf("   • Redis: выключен (кэш в JSON-файле)")
	}

	if c.Database.Enabled {
		log.Printf("   • PostgreSQL: %s:%d/%s", c.Database.Host, c.Database.Port, c.Database.Name)
	} else {
		log.Printf("   • PostgreSQL: выключен (архив алертов не ведётся)")
	}
}

// IsDev возвращает true если текущее окружение — разработка
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ ФУНКЦИИ
// ============================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
