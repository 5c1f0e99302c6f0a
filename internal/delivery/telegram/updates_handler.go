// internal/delivery/telegram/updates_handler.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"forex-signal-bot/internal/infrastructure/config"
	tgtypes "forex-signal-bot/internal/types/telegram"
	"forex-signal-bot/pkg/logger"
)

// UpdatesHandler - polling-цикл getUpdates. Обновления обрабатываются
// последовательно, так что события одного чата применяются в порядке
// прихода; долгие операции ограничены таймаутом на событие.
type UpdatesHandler struct {
	cfg          *config.Config
	bot          *Bot
	dialog       *Dialog
	lastUpdateID int64
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// NewUpdatesHandler создает обработчик обновлений
func NewUpdatesHandler(cfg *config.Config, bot *Bot, dialog *Dialog) *UpdatesHandler {
	return &UpdatesHandler{
		cfg:      cfg,
		bot:      bot,
		dialog:   dialog,
		stopChan: make(chan struct{}),
	}
}

// Start снимает webhook и запускает polling в фоновой горутине
func (uh *UpdatesHandler) Start() error {
	if !uh.cfg.Telegram.Enabled {
		logger.Warn("📴 [Telegram] Отключен конфигурацией, polling не запущен")
		return nil
	}

	if err := uh.bot.DeleteWebhook(); err != nil {
		logger.Warn("⚠️ [Telegram] Не удалось удалить webhook: %v", err)
	}

	uh.wg.Add(1)
	go func() {
		defer uh.wg.Done()
		uh.pollLoop()
	}()

	logger.Info("🔄 [Telegram] Polling запущен (timeout %d сек)", uh.cfg.Polling.Timeout)
	return nil
}

// Stop останавливает polling и ждёт завершения цикла
func (uh *UpdatesHandler) Stop() {
	close(uh.stopChan)
	uh.wg.Wait()
	logger.Info("🛑 [Telegram] Polling остановлен")
}

func (uh *UpdatesHandler) pollLoop() {
	retryInterval := time.Duration(uh.cfg.Polling.RetryInterval) * time.Second

	for {
		select {
		case <-uh.stopChan:
			return
		default:
		}

		updates, err := uh.bot.GetUpdates(uh.lastUpdateID, uh.cfg.Polling.Timeout, uh.cfg.Polling.Limit)
		if err != nil {
			logger.Error("❌ [Telegram] Ошибка получения обновлений: %v", err)
			select {
			case <-uh.stopChan:
				return
			case <-time.After(retryInterval):
			}
			continue
		}

		for _, update := range updates {
			uh.processUpdate(update)
			uh.lastUpdateID = update.UpdateID + 1
		}
	}
}

// isOldUpdate отсекает события старше пяти минут (накопились,
// пока бот был выключен)
func isOldUpdate(update tgtypes.Update) bool {
	if update.Message == nil || update.Message.Date == 0 {
		return false
	}
	return time.Since(time.Unix(update.Message.Date, 0)) > 5*time.Minute
}

// processUpdate обрабатывает одно обновление
func (uh *UpdatesHandler) processUpdate(update tgtypes.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	if isOldUpdate(update) {
		logger.Debug("⏰ [Telegram] Пропуск старого обновления %d", update.UpdateID)
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	logger.Debug("💬 [Telegram] Чат %d: %q", chatID, text)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	var err error
	if strings.HasPrefix(text, "/") {
		err = uh.handleCommand(ctx, chatID, text)
	} else {
		err = uh.dialog.HandleEvent(ctx, chatID, text)
	}
	if err != nil {
		logger.Error("❌ [Telegram] Ошибка обработки события чата %d: %v", chatID, err)
	}
}

// handleCommand обрабатывает команды
func (uh *UpdatesHandler) handleCommand(ctx context.Context, chatID int64, command string) error {
	switch command {
	case "/start":
		return uh.dialog.Subscribe(ctx, chatID)
	case "/stop":
		return uh.dialog.Unsubscribe(chatID)
	default:
		return uh.bot.SendMessage(chatID,
			fmt.Sprintf("❓ Unknown command %s. Use /start to subscribe or /stop to leave.", command), nil)
	}
}
