// internal/delivery/telegram/bot.go
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"forex-signal-bot/internal/infrastructure/config"
	tgtypes "forex-signal-bot/internal/types/telegram"
	"forex-signal-bot/pkg/logger"
)

// Sender - исходящая сторона транспорта. Ошибки доставки
// логируются вызывающим, повторов нет.
type Sender interface {
	SendMessage(chatID int64, text string, keyboard *tgtypes.ReplyKeyboardMarkup) error
	RemoveKeyboard(chatID int64, text string) error
}

// Bot - клиент Telegram Bot API поверх net/http
type Bot struct {
	enabled    bool
	baseURL    string
	httpClient *http.Client
}

// NewBot создает клиент из конфигурации
func NewBot(cfg *config.Config) *Bot {
	return &Bot{
		enabled:    cfg.Telegram.Enabled,
		baseURL:    fmt.Sprintf("https://api.telegram.org/bot%s/", cfg.Telegram.BotToken),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// SendMessage отправляет HTML-сообщение, опционально с reply-клавиатурой
func (b *Bot) SendMessage(chatID int64, text string, keyboard *tgtypes.ReplyKeyboardMarkup) error {
	if !b.enabled {
		logger.Debug("📴 [Telegram] Отправка выключена, пропуск сообщения для %d", chatID)
		return nil
	}

	req := tgtypes.SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}
	if keyboard != nil {
		req.ReplyMarkup = keyboard
	}
	return b.request("sendMessage", req)
}

// RemoveKeyboard отправляет сообщение и убирает клавиатуру у чата
func (b *Bot) RemoveKeyboard(chatID int64, text string) error {
	if !b.enabled {
		return nil
	}
	req := tgtypes.SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: tgtypes.ReplyKeyboardRemove{RemoveKeyboard: true},
	}
	return b.request("sendMessage", req)
}

// GetUpdates делает long poll getUpdates с заданным offset
func (b *Bot) GetUpdates(offset int64, timeoutSec, limit int) ([]tgtypes.Update, error) {
	params := map[string]interface{}{
		"offset":  offset,
		"timeout": timeoutSec,
		"limit":   limit,
	}

	body, err := b.post("getUpdates", params)
	if err != nil {
		return nil, err
	}

	var response tgtypes.UpdatesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse updates: %w", err)
	}
	if !response.OK {
		return nil, fmt.Errorf("telegram API error: %s", string(body))
	}
	return response.Result, nil
}

// DeleteWebhook снимает webhook перед переходом на polling
func (b *Bot) DeleteWebhook() error {
	_, err := b.post("deleteWebhook", map[string]interface{}{
		"drop_pending_updates": false,
	})
	return err
}

// request отправляет запрос и разбирает обёртку ответа.
// На 429 ждёт retry_after и повторяет один раз.
func (b *Bot) request(method string, payload interface{}) error {
	body, err := b.post(method, payload)
	if err != nil {
		return err
	}

	var apiResp tgtypes.APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !apiResp.OK {
		if apiResp.ErrorCode == 429 {
			retryAfter := 5
			if apiResp.Parameters.RetryAfter > 0 {
				retryAfter = apiResp.Parameters.RetryAfter
			}
			logger.Warn("⚠️ [Telegram] API лимит, ждем %d секунд", retryAfter)
			time.Sleep(time.Duration(retryAfter) * time.Second)

			body, err = b.post(method, payload)
			if err != nil {
				return err
			}
			apiResp = tgtypes.APIResponse{}
			if err := json.Unmarshal(body, &apiResp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			if apiResp.OK {
				return nil
			}
		}
		return fmt.Errorf("telegram API error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}
	return nil
}

// post выполняет один HTTP POST к методу Bot API
func (b *Bot) post(method string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := b.httpClient.Post(b.baseURL+method, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
