// internal/delivery/telegram/keyboards.go
package telegram

import (
	"fmt"

	"forex-signal-bot/internal/market"
	tgtypes "forex-signal-bot/internal/types/telegram"
)

// Подписи кнопок. Пользовательский ввод нормализуется до текста
// без эмодзи, поэтому кнопки и набранный вручную текст равнозначны.
const (
	btnRefresh  = "🔄 Refresh"
	btnAnalysis = "📊 Analysis"
	btnAlerts   = "🔔 Alerts"
	btnSettings = "⚙️ Settings"
	btnSymbols  = "📈 Symbols"
	btnStop     = "🛑 Stop"
	btnBack     = "⬅️ Back"
	btnNewAlert = "➕ New Alert"
)

// MenuKeyboard - главное меню
func MenuKeyboard() *tgtypes.ReplyKeyboardMarkup {
	return tgtypes.NewKeyboard(
		tgtypes.Row(btnRefresh, btnAnalysis),
		tgtypes.Row(btnAlerts, btnSettings),
		tgtypes.Row(btnSymbols, btnStop),
	)
}

// SettingsKeyboard - нумерованное меню настроек
func SettingsKeyboard() *tgtypes.ReplyKeyboardMarkup {
	return tgtypes.NewKeyboard(
		tgtypes.Row("1. Timezone", "2. Frequency"),
		tgtypes.Row("3. Indicators", "4. Risk"),
		tgtypes.Row("5. Notifications", "6. Symbols"),
		tgtypes.Row(btnBack),
	)
}

// AlertsKeyboard - меню алертов с динамическими кнопками удаления
func AlertsKeyboard(alertCount int) *tgtypes.ReplyKeyboardMarkup {
	rows := [][]tgtypes.ReplyKeyboardButton{tgtypes.Row(btnNewAlert)}

	var deleteRow []tgtypes.ReplyKeyboardButton
	for i := 1; i <= alertCount; i++ {
		deleteRow = append(deleteRow, tgtypes.ReplyKeyboardButton{Text: fmt.Sprintf("❌ Delete %d", i)})
		if len(deleteRow) == 3 {
			rows = append(rows, deleteRow)
			deleteRow = nil
		}
	}
	if len(deleteRow) > 0 {
		rows = append(rows, deleteRow)
	}

	rows = append(rows, tgtypes.Row(btnBack))
	return tgtypes.NewKeyboard(rows...)
}

// SymbolsKeyboard - все известные инструменты по два в ряд
func SymbolsKeyboard() *tgtypes.ReplyKeyboardMarkup {
	symbols := market.AllSymbols()
	var rows [][]tgtypes.ReplyKeyboardButton

	for i := 0; i < len(symbols); i += 2 {
		if i+1 < len(symbols) {
			rows = append(rows, tgtypes.Row(symbols[i], symbols[i+1]))
		} else {
			rows = append(rows, tgtypes.Row(symbols[i]))
		}
	}
	rows = append(rows, tgtypes.Row(btnBack))
	return tgtypes.NewKeyboard(rows...)
}

// TimezoneKeyboard - распространённые часовые пояса
func TimezoneKeyboard() *tgtypes.ReplyKeyboardMarkup {
	return tgtypes.NewKeyboard(
		tgtypes.Row("UTC", "Europe/London"),
		tgtypes.Row("Europe/Moscow", "America/New_York"),
		tgtypes.Row("Asia/Tokyo", "Asia/Singapore"),
		tgtypes.Row(btnBack),
	)
}

// FreqKeyboard - типовые частоты рассылки в минутах
func FreqKeyboard() *tgtypes.ReplyKeyboardMarkup {
	return tgtypes.NewKeyboard(
		tgtypes.Row("15", "30", "60"),
		tgtypes.Row("120", "240", "1440"),
		tgtypes.Row(btnBack),
	)
}

// IndicatorsKeyboard - готовые комбинации индикаторов
func IndicatorsKeyboard() *tgtypes.ReplyKeyboardMarkup {
	return tgtypes.NewKeyboard(
		tgtypes.Row("RSI, ATR, MACD"),
		tgtypes.Row("RSI, ATR", "RSI, MACD"),
		tgtypes.Row("RSI", "ATR", "MACD"),
		tgtypes.Row(btnBack),
	)
}

// RiskKeyboard - уровни аппетита к риску
func RiskKeyboard() *tgtypes.ReplyKeyboardMarkup {
	return tgtypes.NewKeyboard(
		tgtypes.Row("Low", "Medium", "High"),
		tgtypes.Row(btnBack),
	)
}

// AlertTypeKeyboard - направление алерта
func AlertTypeKeyboard() *tgtypes.ReplyKeyboardMarkup {
	return tgtypes.NewKeyboard(
		tgtypes.Row("Above", "Below"),
		tgtypes.Row(btnBack),
	)
}
