// internal/types/telegram/telegram.go
package telegram

// Chat - чат телеграм
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"` // "private", "group", "supergroup", "channel"
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Message - входящее сообщение телеграм
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"` // Unix timestamp в секундах
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// Update - одно обновление из getUpdates
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// APIResponse - обёртка ответа Telegram API
type APIResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Parameters  struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

// UpdatesResponse - ответ getUpdates
type UpdatesResponse struct {
	OK     bool     `json:"ok"`
	Result []Update `json:"result"`
}

// SendMessageRequest - тело запроса sendMessage
type SendMessageRequest struct {
	ChatID      int64       `json:"chat_id"`
	Text        string      `json:"text"`
	ParseMode   string      `json:"parse_mode,omitempty"`
	ReplyMarkup interface{} `json:"reply_markup,omitempty"`
}

// ReplyKeyboardButton - кнопка reply клавиатуры
type ReplyKeyboardButton struct {
	Text string `json:"text"`
}

// ReplyKeyboardMarkup - разметка reply клавиатуры
type ReplyKeyboardMarkup struct {
	Keyboard        [][]ReplyKeyboardButton `json:"keyboard"`
	ResizeKeyboard  bool                    `json:"resize_keyboard,omitempty"`
	OneTimeKeyboard bool                    `json:"one_time_keyboard,omitempty"`
	IsPersistent    bool                    `json:"is_persistent,omitempty"`
}

// ReplyKeyboardRemove - убирает reply клавиатуру у чата
type ReplyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

// Row собирает один ряд кнопок из подписей
func Row(labels ...string) []ReplyKeyboardButton {
	row := make([]ReplyKeyboardButton, 0, len(labels))
	for _, l := range labels {
		row = append(row, ReplyKeyboardButton{Text: l})
	}
	return row
}

// NewKeyboard собирает разметку из рядов кнопок
func NewKeyboard(rows ...[]ReplyKeyboardButton) *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}
}
