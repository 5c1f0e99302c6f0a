package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"forex-signal-bot/internal/types"
)

// FiredRecord - строка журнала срабатываний
type FiredRecord struct {
	ID         string    `db:"id"`
	ChatID     int64     `db:"chat_id"`
	Symbol     string    `db:"symbol"`
	AlertType  string    `db:"alert_type"`
	Threshold  float64   `db:"threshold"`
	FiredPrice float64   `db:"fired_price"`
	CreatedAt  time.Time `db:"created_at"`
	FiredAt    time.Time `db:"fired_at"`
}

// AlertHistory - журнал сработавших алертов. Пишется best-effort:
// ошибка записи не мешает доставке уведомления.
type AlertHistory struct {
	db *sqlx.DB
}

func NewAlertHistory(db *sqlx.DB) *AlertHistory {
	return &AlertHistory{db: db}
}

// RecordFired добавляет запись о срабатывании
func (h *AlertHistory) RecordFired(ctx context.Context, chatID int64, alert types.Alert, firedPrice float64) error {
	const query = `
		INSERT INTO alert_history (id, chat_id, symbol, alert_type, threshold, fired_price, created_at, fired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := h.db.ExecContext(ctx, query,
		uuid.NewString(), chatID, alert.Symbol, string(alert.Type),
		alert.Price, firedPrice, alert.Created.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record fired alert: %w", err)
	}
	return nil
}

// RecentForChat возвращает последние срабатывания чата
func (h *AlertHistory) RecentForChat(ctx context.Context, chatID int64, limit int) ([]FiredRecord, error) {
	const query = `
		SELECT id, chat_id, symbol, alert_type, threshold, fired_price, created_at, fired_at
		FROM alert_history
		WHERE chat_id = $1
		ORDER BY fired_at DESC
		LIMIT $2`

	var records []FiredRecord
	if err := h.db.SelectContext(ctx, &records, query, chatID, limit); err != nil {
		return nil, fmt.Errorf("failed to load alert history: %w", err)
	}
	return records, nil
}
