package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"forex-signal-bot/internal/infrastructure/config"
	"forex-signal-bot/pkg/logger"
)

// Connect открывает пул соединений к Postgres и готовит схему.
// Вызывается только при DB_ENABLED=true; журнал алертов — единственный
// потребитель БД, всё остальное живет в JSON-файлах.
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetPostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Настройки пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.Database.MaxConnIdleTime)

	// Проверка подключения
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("✅ [Postgres] Подключение установлено (%s:%d/%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return db, nil
}

// ensureSchema создает таблицы, если их нет
func ensureSchema(db *sqlx.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS alert_history (
			id          UUID PRIMARY KEY,
			chat_id     BIGINT NOT NULL,
			symbol      TEXT NOT NULL,
			alert_type  TEXT NOT NULL,
			threshold   DOUBLE PRECISION NOT NULL,
			fired_price DOUBLE PRECISION NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			fired_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_alert_history_chat
			ON alert_history (chat_id, fired_at DESC);`

	if _, err := db.Exec(schema); err != nil {
		return err
	}
	logger.Debug("📂 [Postgres] Схема alert_history готова")
	return nil
}
