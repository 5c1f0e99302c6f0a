// application/services/notification/service.go
package notification

import (
	"context"
	"fmt"

	"forex-signal-bot/internal/core/signal"
	"forex-signal-bot/internal/market"
	"forex-signal-bot/internal/storage"
	"forex-signal-bot/internal/types"
	tgtypes "forex-signal-bot/internal/types/telegram"
	"forex-signal-bot/pkg/logger"
)

// Sender - исходящий транспорт рассылки
type Sender interface {
	SendMessage(chatID int64, text string, keyboard *tgtypes.ReplyKeyboardMarkup) error
}

// HistoryRecorder - опциональный журнал срабатываний (Postgres)
type HistoryRecorder interface {
	RecordFired(ctx context.Context, chatID int64, alert types.Alert, firedPrice float64) error
}

// Service - рассылка обновлений по рынку. Один вызов SendUpdate
// обслуживает один чат: на каждый его инструмент берётся снапшот
// (кэш или фетч), считается сигнал и отправляется сообщение.
// Срабатывание алертов — побочный эффект каждого свежего фетча.
type Service struct {
	provider market.Provider
	cache    *storage.SnapshotCache
	alerts   *storage.AlertStore
	settings *storage.SettingsStore
	subs     *storage.SubscriberStore
	sender   Sender
	history  HistoryRecorder // nil, если БД выключена
	menu     *tgtypes.ReplyKeyboardMarkup
}

// New создает сервис рассылки. history может быть nil.
func New(
	provider market.Provider,
	cache *storage.SnapshotCache,
	alerts *storage.AlertStore,
	settings *storage.SettingsStore,
	subs *storage.SubscriberStore,
	sender Sender,
	history HistoryRecorder,
	menu *tgtypes.ReplyKeyboardMarkup,
) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		alerts:   alerts,
		settings: settings,
		subs:     subs,
		sender:   sender,
		history:  history,
		menu:     menu,
	}
}

// SendUpdate отправляет чату обновление по всем его инструментам.
// Ошибка по одному инструменту логируется и не прерывает остальные.
func (s *Service) SendUpdate(ctx context.Context, chatID int64) error {
	settings := s.settings.GetEffective(chatID)

	var failed int
	for _, symbol := range settings.Symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		snap, err := s.snapshot(ctx, symbol)
		if err != nil {
			failed++
			logger.Error("❌ [Notify] Чат %d, %s: %v", chatID, symbol, err)
			continue
		}

		res := signal.Evaluate(snap, settings)
		text := signal.FormatUpdate(snap, res, settings)

		if err := s.sender.SendMessage(chatID, text, s.menu); err != nil {
			failed++
			logger.Error("❌ [Notify] Чат %d, %s: отправка не удалась: %v", chatID, symbol, err)
			continue
		}
		logger.Recommendation(symbol, res.Recommendation, snap.Price)
	}

	if failed == len(settings.Symbols) && failed > 0 {
		return fmt.Errorf("all %d symbols failed for chat %d", failed, chatID)
	}
	return nil
}

// SendScheduledUpdate - то же, что SendUpdate, но уважает флаг
// уведомлений: выключенные уведомления глушат только плановую
// рассылку, ручной Refresh и алерты продолжают работать.
func (s *Service) SendScheduledUpdate(ctx context.Context, chatID int64) error {
	if !s.subs.Contains(chatID) {
		logger.Debug("⏭ [Notify] Чат %d отписан, плановая рассылка пропущена", chatID)
		return nil
	}
	if !s.settings.GetEffective(chatID).Notifications {
		logger.Debug("🔕 [Notify] Чат %d: уведомления выключены, пропуск", chatID)
		return nil
	}
	return s.SendUpdate(ctx, chatID)
}

// snapshot возвращает снапшот из кэша или фетчит свежий.
// Свежий фетч прогоняется через алерты до возврата.
func (s *Service) snapshot(ctx context.Context, symbol string) (types.Snapshot, error) {
	if snap, ok := s.cache.Get(symbol); ok {
		logger.Debug("💾 [Notify] %s из кэша", symbol)
		return snap, nil
	}

	snap, err := s.provider.Fetch(ctx, symbol)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	s.cache.Put(symbol, snap)

	s.dispatchFired(ctx, s.alerts.MatchAndFire(symbol, snap.Price))
	return snap, nil
}

// dispatchFired рассылает уведомления о сработавших алертах их
// владельцам и best-effort пишет их в журнал
func (s *Service) dispatchFired(ctx context.Context, fired []storage.FiredAlert) {
	for _, f := range fired {
		text := signal.FormatAlertFired(f.Alert, f.FiredPrice)
		if err := s.sender.SendMessage(f.ChatID, text, s.menu); err != nil {
			logger.Error("❌ [Notify] Алерт для чата %d не доставлен: %v", f.ChatID, err)
		}
		if s.history != nil {
			if err := s.history.RecordFired(ctx, f.ChatID, f.Alert, f.FiredPrice); err != nil {
				logger.Warn("⚠️ [Notify] Журнал алертов: %v", err)
			}
		}
	}
}
