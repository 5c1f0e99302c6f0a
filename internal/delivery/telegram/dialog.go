// internal/delivery/telegram/dialog.go
package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"forex-signal-bot/internal/core/signal"
	"forex-signal-bot/internal/market"
	"forex-signal-bot/internal/storage"
	"forex-signal-bot/internal/types"
	tgtypes "forex-signal-bot/internal/types/telegram"
	"forex-signal-bot/pkg/logger"
)

// RefreshFunc отправляет чату свежий разбор по его инструментам
type RefreshFunc func(ctx context.Context, chatID int64) error

// ChatScheduler управляет периодической задачей чата
type ChatScheduler interface {
	Reschedule(chatID int64, minutes int)
	Unschedule(chatID int64)
}

// Dialog - конечный автомат разговора. Переходы держатся в таблице
// состояние → обработчик; обработчики валидируют ввод, мутируют
// хранилища и решают, какой промпт показать дальше.
type Dialog struct {
	sender    Sender
	settings  *storage.SettingsStore
	alerts    *storage.AlertStore
	subs      *storage.SubscriberStore
	sessions  *SessionManager
	refresh   RefreshFunc
	scheduler ChatScheduler
}

// NewDialog собирает автомат из зависимостей
func NewDialog(
	sender Sender,
	settings *storage.SettingsStore,
	alerts *storage.AlertStore,
	subs *storage.SubscriberStore,
	refresh RefreshFunc,
	scheduler ChatScheduler,
) *Dialog {
	return &Dialog{
		sender:    sender,
		settings:  settings,
		alerts:    alerts,
		subs:      subs,
		sessions:  NewSessionManager(),
		refresh:   refresh,
		scheduler: scheduler,
	}
}

// handlerFunc - обработчик одного состояния
type handlerFunc func(ctx context.Context, d *Dialog, sess *Session, text string) error

// Таблица переходов: все десять состояний автомата
var transitions = map[State]handlerFunc{
	StateMenu:            handleMenu,
	StateSettings:        handleSettings,
	StateAlerts:          handleAlerts,
	StateSymbolSelection: handleSymbolSelection,
	StateSetAlertPrice:   handleSetAlertPrice,
	StateSetAlertType:    handleSetAlertType,
	StateSetTimezone:     handleSetTimezone,
	StateSetUpdateFreq:   handleSetUpdateFreq,
	StateSetIndicators:   handleSetIndicators,
	StateSetRisk:         handleSetRisk,
}

// HandleEvent обрабатывает одно входящее текстовое событие чата.
// Мьютекс сессии гарантирует порядок внутри чата; разные чаты
// обрабатываются независимо.
func (d *Dialog) HandleEvent(ctx context.Context, chatID int64, text string) error {
	sess := d.sessions.Get(chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	handler, ok := transitions[sess.State]
	if !ok {
		sess.ResetFlow()
		handler = handleMenu
	}
	return handler(ctx, d, sess, text)
}

// Subscribe подписывает чат: главное меню, задача рассылки
// на эффективной частоте и немедленный разбор
func (d *Dialog) Subscribe(ctx context.Context, chatID int64) error {
	sess := d.sessions.Get(chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	fresh := d.subs.Add(chatID)
	sess.ResetFlow()

	welcome := "👋 <b>Welcome back!</b>"
	if fresh {
		welcome = "👋 <b>Welcome to the Forex Signal Bot!</b>\n\nYou are subscribed to periodic market updates. Use the menu below."
	}
	if err := d.sender.SendMessage(chatID, welcome, MenuKeyboard()); err != nil {
		logger.Error("❌ [Dialog] Не удалось отправить приветствие в %d: %v", chatID, err)
	}

	d.scheduler.Reschedule(chatID, d.settings.GetEffective(chatID).UpdateFreq)
	return d.refresh(ctx, chatID)
}

// Unsubscribe снимает подписку и задачу чата. Настройки остаются.
func (d *Dialog) Unsubscribe(chatID int64) error {
	sess := d.sessions.Get(chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return d.stop(sess)
}

func (d *Dialog) stop(sess *Session) error {
	d.subs.Remove(sess.ChatID)
	d.scheduler.Unschedule(sess.ChatID)
	sess.ResetFlow()
	return d.sender.RemoveKeyboard(sess.ChatID, "👋 You are unsubscribed. Send /start to come back.")
}

// ============================================
// ОБРАБОТЧИКИ СОСТОЯНИЙ
// ============================================

func handleMenu(ctx context.Context, d *Dialog, sess *Session, text string) error {
	switch normalize(text) {
	case "Refresh", "Analysis":
		return d.refresh(ctx, sess.ChatID)
	case "Alerts":
		sess.State = StateAlerts
		return d.showAlerts(sess, "")
	case "Settings":
		sess.State = StateSettings
		return d.showSettings(sess, "")
	case "Symbols":
		sess.State = StateSymbolSelection
		return d.promptSymbols(sess, "")
	case "Stop":
		return d.stop(sess)
	default:
		return d.sender.SendMessage(sess.ChatID, "❓ Unknown option, use the menu below.", MenuKeyboard())
	}
}

func handleSettings(_ context.Context, d *Dialog, sess *Session, text string) error {
	n := normalize(text)
	switch {
	case strings.HasPrefix(n, "1"):
		sess.State = StateSetTimezone
		return d.sender.SendMessage(sess.ChatID,
			"🌍 Send a timezone name (e.g. <code>Europe/London</code>) or pick one below.", TimezoneKeyboard())
	case strings.HasPrefix(n, "2"):
		sess.State = StateSetUpdateFreq
		return d.sender.SendMessage(sess.ChatID,
			"⏱ Send the update frequency in minutes (15-1440).", FreqKeyboard())
	case strings.HasPrefix(n, "3"):
		sess.State = StateSetIndicators
		return d.sender.SendMessage(sess.ChatID,
			"🧭 Send a comma-separated list of indicators: RSI, ATR, MACD.", IndicatorsKeyboard())
	case strings.HasPrefix(n, "4"):
		sess.State = StateSetRisk
		return d.sender.SendMessage(sess.ChatID,
			"⚖️ Choose your risk appetite.", RiskKeyboard())
	case strings.HasPrefix(n, "5"), n == "Notifications":
		settings := d.settings.GetEffective(sess.ChatID)
		d.settings.SetNotifications(sess.ChatID, !settings.Notifications)
		return d.showSettings(sess, "")
	case strings.HasPrefix(n, "6"):
		sess.State = StateSymbolSelection
		return d.promptSymbols(sess, "")
	case n == "Back":
		sess.ResetFlow()
		return d.sender.SendMessage(sess.ChatID, "🏠 Main menu", MenuKeyboard())
	default:
		return d.showSettings(sess, "❓ Pick an option from the menu.\n\n")
	}
}

func handleAlerts(_ context.Context, d *Dialog, sess *Session, text string) error {
	n := normalize(text)
	switch {
	case n == "New Alert":
		sess.AlertSetup = true
		sess.State = StateSymbolSelection
		return d.promptSymbols(sess, "")
	case strings.HasPrefix(n, "Delete"):
		arg := strings.TrimSpace(strings.TrimPrefix(n, "Delete"))
		idx, err := strconv.Atoi(arg)
		if err != nil || !d.alerts.Remove(sess.ChatID, idx-1) {
			return d.showAlerts(sess, "⚠️ No alert with that number.\n\n")
		}
		return d.showAlerts(sess, "🗑 Alert deleted.\n\n")
	case n == "Back":
		sess.ResetFlow()
		return d.sender.SendMessage(sess.ChatID, "🏠 Main menu", MenuKeyboard())
	default:
		return d.showAlerts(sess, "❓ Pick an option from the menu.\n\n")
	}
}

func handleSymbolSelection(_ context.Context, d *Dialog, sess *Session, text string) error {
	if normalize(text) == "Back" {
		if sess.AlertSetup {
			sess.ResetDraft()
			sess.State = StateAlerts
			return d.showAlerts(sess, "")
		}
		sess.State = StateSettings
		return d.showSettings(sess, "")
	}

	valid := market.ParseSymbols(text)
	if len(valid) == 0 {
		return d.promptSymbols(sess, "⚠️ No known symbols in your input.\n\n")
	}

	if sess.AlertSetup {
		// Для алерта берётся первый валидный инструмент
		sess.AlertSymbol = valid[0]
		sess.State = StateSetAlertPrice
		return d.sender.SendMessage(sess.ChatID,
			"💲 Send the target price for <b>"+sess.AlertSymbol+"</b>.", backOnlyKeyboard())
	}

	d.settings.SetSymbols(sess.ChatID, valid)
	sess.ResetFlow()
	return d.sender.SendMessage(sess.ChatID,
		"✅ Subscribed symbols: "+strings.Join(valid, ", "), MenuKeyboard())
}

func handleSetAlertPrice(_ context.Context, d *Dialog, sess *Session, text string) error {
	n := normalize(text)
	if n == "Back" {
		sess.ResetDraft()
		sess.State = StateAlerts
		return d.showAlerts(sess, "")
	}

	// decimal отбрасывает NaN/Inf, которые ParseFloat молча принимает
	price, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return d.sender.SendMessage(sess.ChatID,
			"⚠️ That is not a number. Send the target price, e.g. <code>1.2000</code>.", backOnlyKeyboard())
	}

	sess.AlertPrice = price.InexactFloat64()
	sess.State = StateSetAlertType
	return d.sender.SendMessage(sess.ChatID,
		"📐 Should the alert fire <b>Above</b> or <b>Below</b> that price?", AlertTypeKeyboard())
}

func handleSetAlertType(_ context.Context, d *Dialog, sess *Session, text string) error {
	switch normalize(text) {
	case "Above":
		return d.createAlert(sess, types.AlertAbove)
	case "Below":
		return d.createAlert(sess, types.AlertBelow)
	case "Back":
		sess.ResetDraft()
		sess.State = StateAlerts
		return d.showAlerts(sess, "")
	default:
		return d.sender.SendMessage(sess.ChatID, "❓ Choose Above or Below.", AlertTypeKeyboard())
	}
}

func handleSetTimezone(_ context.Context, d *Dialog, sess *Session, text string) error {
	n := normalize(text)
	if n == "Back" {
		sess.State = StateSettings
		return d.showSettings(sess, "")
	}

	tz := strings.TrimSpace(text)
	if _, err := time.LoadLocation(tz); err != nil {
		return d.sender.SendMessage(sess.ChatID,
			"⚠️ Unknown timezone. Use names like <code>Europe/London</code>.", TimezoneKeyboard())
	}

	d.settings.SetTimezone(sess.ChatID, tz)
	sess.ResetFlow()
	return d.sender.SendMessage(sess.ChatID, "✅ Timezone set to "+tz, MenuKeyboard())
}

func handleSetUpdateFreq(_ context.Context, d *Dialog, sess *Session, text string) error {
	n := normalize(text)
	if n == "Back" {
		sess.State = StateSettings
		return d.showSettings(sess, "")
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || minutes < 15 || minutes > 1440 {
		return d.sender.SendMessage(sess.ChatID,
			"⚠️ Frequency must be a number between 15 and 1440 minutes.", FreqKeyboard())
	}

	d.settings.SetUpdateFreq(sess.ChatID, minutes)
	d.scheduler.Reschedule(sess.ChatID, minutes)
	sess.ResetFlow()
	return d.sender.SendMessage(sess.ChatID,
		"✅ Update frequency set to "+strconv.Itoa(minutes)+" min", MenuKeyboard())
}

func handleSetIndicators(_ context.Context, d *Dialog, sess *Session, text string) error {
	n := normalize(text)
	if n == "Back" {
		sess.State = StateSettings
		return d.showSettings(sess, "")
	}

	var indicators []string
	for _, part := range strings.Split(text, ",") {
		token := strings.ToUpper(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		if token != "RSI" && token != "ATR" && token != "MACD" {
			return d.sender.SendMessage(sess.ChatID,
				"⚠️ Unknown indicator <code>"+token+"</code>. Allowed: RSI, ATR, MACD.", IndicatorsKeyboard())
		}
		indicators = append(indicators, token)
	}
	if len(indicators) == 0 {
		return d.sender.SendMessage(sess.ChatID,
			"⚠️ Send at least one of: RSI, ATR, MACD.", IndicatorsKeyboard())
	}

	d.settings.SetIndicators(sess.ChatID, indicators)
	sess.ResetFlow()
	return d.sender.SendMessage(sess.ChatID,
		"✅ Indicators: "+strings.Join(indicators, ", "), MenuKeyboard())
}

func handleSetRisk(_ context.Context, d *Dialog, sess *Session, text string) error {
	switch normalize(text) {
	case "Low", "Medium", "High":
		risk := strings.ToLower(normalize(text))
		d.settings.SetRiskAppetite(sess.ChatID, risk)
		sess.ResetFlow()
		return d.sender.SendMessage(sess.ChatID, "✅ Risk appetite: "+risk, MenuKeyboard())
	case "Back":
		sess.State = StateSettings
		return d.showSettings(sess, "")
	default:
		return d.sender.SendMessage(sess.ChatID, "❓ Choose Low, Medium or High.", RiskKeyboard())
	}
}

// ============================================
// РЕНДЕРИНГ ПРОМПТОВ
// ============================================

func (d *Dialog) showSettings(sess *Session, prefix string) error {
	settings := d.settings.GetEffective(sess.ChatID)
	return d.sender.SendMessage(sess.ChatID, prefix+signal.FormatSettings(settings), SettingsKeyboard())
}

func (d *Dialog) showAlerts(sess *Session, prefix string) error {
	alerts := d.alerts.List(sess.ChatID)
	return d.sender.SendMessage(sess.ChatID, prefix+signal.FormatAlertList(alerts), AlertsKeyboard(len(alerts)))
}

func (d *Dialog) promptSymbols(sess *Session, prefix string) error {
	text := prefix + "📈 Send symbols separated by commas (e.g. <code>EUR/USD, XAU/USD</code>) or pick below."
	return d.sender.SendMessage(sess.ChatID, text, SymbolsKeyboard())
}

func (d *Dialog) createAlert(sess *Session, typ types.AlertType) error {
	d.alerts.Add(sess.ChatID, sess.AlertSymbol, typ, sess.AlertPrice)
	msg := "✅ Alert created: " + sess.AlertSymbol + " " + strings.ToUpper(string(typ))
	sess.ResetFlow()
	return d.sender.SendMessage(sess.ChatID, msg, MenuKeyboard())
}

func backOnlyKeyboard() *tgtypes.ReplyKeyboardMarkup {
	return tgtypes.NewKeyboard(tgtypes.Row(btnBack))
}

// normalize обрезает пробелы и ведущие эмодзи кнопок, так что
// "🔄 Refresh" и набранное вручную "Refresh" равнозначны
func normalize(text string) string {
	text = strings.TrimSpace(text)
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			break
		}
		text = text[size:]
	}
	return strings.TrimSpace(text)
}
