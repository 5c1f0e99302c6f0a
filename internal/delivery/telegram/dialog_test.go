package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"forex-signal-bot/internal/storage"
	tgtypes "forex-signal-bot/internal/types/telegram"
)

// fakeSender копит исходящие сообщения вместо похода в Telegram
type fakeSender struct {
	messages []sentMessage
	removed  []int64
}

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *tgtypes.ReplyKeyboardMarkup
}

func (f *fakeSender) SendMessage(chatID int64, text string, keyboard *tgtypes.ReplyKeyboardMarkup) error {
	f.messages = append(f.messages, sentMessage{chatID: chatID, text: text, keyboard: keyboard})
	return nil
}

func (f *fakeSender) RemoveKeyboard(chatID int64, text string) error {
	f.removed = append(f.removed, chatID)
	return nil
}

func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	if len(f.messages) == 0 {
		t.Fatal("ожидали хотя бы одно исходящее сообщение")
	}
	return f.messages[len(f.messages)-1]
}

// fakeChatScheduler запоминает последнюю перепланировку
type fakeChatScheduler struct {
	rescheduled map[int64]int
	unscheduled []int64
}

func newFakeChatScheduler() *fakeChatScheduler {
	return &fakeChatScheduler{rescheduled: make(map[int64]int)}
}

func (f *fakeChatScheduler) Reschedule(chatID int64, minutes int) { f.rescheduled[chatID] = minutes }
func (f *fakeChatScheduler) Unschedule(chatID int64)              { f.unscheduled = append(f.unscheduled, chatID) }

type dialogFixture struct {
	dialog    *Dialog
	sender    *fakeSender
	settings  *storage.SettingsStore
	alerts    *storage.AlertStore
	subs      *storage.SubscriberStore
	scheduler *fakeChatScheduler
	refreshed []int64
}

func newDialogFixture(t *testing.T) *dialogFixture {
	t.Helper()
	dir := t.TempDir()

	fx := &dialogFixture{
		sender:    &fakeSender{},
		settings:  storage.NewSettingsStore(filepath.Join(dir, "settings.json")),
		alerts:    storage.NewAlertStore(filepath.Join(dir, "alerts.json")),
		subs:      storage.NewSubscriberStore(filepath.Join(dir, "chat_ids.json")),
		scheduler: newFakeChatScheduler(),
	}
	refresh := func(_ context.Context, chatID int64) error {
		fx.refreshed = append(fx.refreshed, chatID)
		return nil
	}
	fx.dialog = NewDialog(fx.sender, fx.settings, fx.alerts, fx.subs, refresh, fx.scheduler)
	return fx
}

func (fx *dialogFixture) send(t *testing.T, chatID int64, events ...string) {
	t.Helper()
	for _, event := range events {
		if err := fx.dialog.HandleEvent(context.Background(), chatID, event); err != nil {
			t.Fatalf("HandleEvent(%q): %v", event, err)
		}
	}
}

func TestSubscribeFlow(t *testing.T) {
	fx := newDialogFixture(t)

	if err := fx.dialog.Subscribe(context.Background(), 100); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if !fx.subs.Contains(100) {
		t.Error("после /start чат подписан")
	}
	if fx.scheduler.rescheduled[100] != 30 {
		t.Errorf("задача рассылки ставится на дефолтные 30 мин, получили %d", fx.scheduler.rescheduled[100])
	}
	if len(fx.refreshed) != 1 || fx.refreshed[0] != 100 {
		t.Error("после подписки сразу отправляется разбор")
	}
}

func TestUnsubscribeFlow(t *testing.T) {
	fx := newDialogFixture(t)
	fx.dialog.Subscribe(context.Background(), 100)

	if err := fx.dialog.Unsubscribe(100); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	if fx.subs.Contains(100) {
		t.Error("после /stop чат отписан")
	}
	if len(fx.scheduler.unscheduled) != 1 || fx.scheduler.unscheduled[0] != 100 {
		t.Error("задача рассылки чата снимается")
	}
	if len(fx.sender.removed) != 1 {
		t.Error("прощальное сообщение убирает клавиатуру")
	}
}

func TestMenuRefresh(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "🔄 Refresh")
	if len(fx.refreshed) != 1 {
		t.Error("Refresh из меню запускает разбор")
	}

	// Набранный вручную текст без эмодзи работает так же
	fx.send(t, 100, "Refresh")
	if len(fx.refreshed) != 2 {
		t.Error("текст без эмодзи равнозначен кнопке")
	}
}

func TestMenuUnknownOption(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "gibberish")

	msg := fx.sender.last(t)
	if !strings.Contains(msg.text, "Unknown option") {
		t.Errorf("неизвестный ввод в меню переспрашивает, получили %q", msg.text)
	}
}

func TestFrequencyFlow(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "⚙️ Settings", "2. Frequency")

	// Невалидная частота: переспрос, настройка не тронута
	fx.send(t, 100, "10")
	if got := fx.settings.GetEffective(100).UpdateFreq; got != 30 {
		t.Errorf("невалидный ввод не меняет частоту: %d", got)
	}
	if msg := fx.sender.last(t); !strings.Contains(msg.text, "between 15 and 1440") {
		t.Errorf("ожидали переспрос, получили %q", msg.text)
	}

	// Валидная частота: сохраняется, задача переставляется, возврат в меню
	fx.send(t, 100, "60")
	if got := fx.settings.GetEffective(100).UpdateFreq; got != 60 {
		t.Errorf("частота должна сохраниться: %d", got)
	}
	if fx.scheduler.rescheduled[100] != 60 {
		t.Errorf("задача рассылки переставляется на 60 мин: %d", fx.scheduler.rescheduled[100])
	}

	// Следующее событие обрабатывается уже из меню
	fx.send(t, 100, "Refresh")
	if len(fx.refreshed) != 1 {
		t.Error("после сохранения частоты автомат в главном меню")
	}
}

func TestAlertCreationFlow(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "🔔 Alerts", "➕ New Alert", "eur/usd", "1.0950", "Above")

	list := fx.alerts.List(100)
	if len(list) != 1 {
		t.Fatalf("должен появиться один алерт, получили %d", len(list))
	}
	a := list[0]
	if a.Symbol != "EUR/USD" || string(a.Type) != "above" || a.Price != 1.0950 || !a.Active {
		t.Errorf("неожиданный алерт: %+v", a)
	}

	if msg := fx.sender.last(t); !strings.Contains(msg.text, "Alert created") {
		t.Errorf("ожидали подтверждение, получили %q", msg.text)
	}
}

func TestAlertPriceValidation(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "Alerts", "New Alert", "eur/usd", "not-a-number")

	if msg := fx.sender.last(t); !strings.Contains(msg.text, "not a number") {
		t.Errorf("невалидная цена переспрашивается, получили %q", msg.text)
	}

	// Повторный валидный ввод продолжает поток
	fx.send(t, 100, "1.2000", "Below")
	list := fx.alerts.List(100)
	if len(list) != 1 || string(list[0].Type) != "below" {
		t.Errorf("после переспроса поток продолжается: %+v", list)
	}
}

func TestAlertDelete(t *testing.T) {
	fx := newDialogFixture(t)
	fx.alerts.Add(100, "EUR/USD", "above", 1.1)
	fx.alerts.Add(100, "GBP/USD", "below", 1.25)

	fx.send(t, 100, "Alerts", "❌ Delete 1")
	list := fx.alerts.List(100)
	if len(list) != 1 || list[0].Symbol != "GBP/USD" {
		t.Errorf("Delete 1 удаляет первый алерт: %+v", list)
	}

	// Номер за границами: переспрос без изменений
	fx.send(t, 100, "Delete 5")
	if msg := fx.sender.last(t); !strings.Contains(msg.text, "No alert with that number") {
		t.Errorf("ожидали переспрос, получили %q", msg.text)
	}
	if len(fx.alerts.List(100)) != 1 {
		t.Error("невалидное удаление ничего не меняет")
	}
}

func TestSymbolSelectionFromSettings(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "Settings", "6. Symbols", "eur/usd, bogus, gbp/usd")

	got := fx.settings.GetEffective(100).Symbols
	if len(got) != 2 || got[0] != "EUR/USD" || got[1] != "GBP/USD" {
		t.Errorf("валидные инструменты сохраняются, мусор отбрасывается: %v", got)
	}
}

func TestSymbolSelectionAllInvalid(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "Settings", "6. Symbols", "bogus, nonsense")

	if msg := fx.sender.last(t); !strings.Contains(msg.text, "No known symbols") {
		t.Errorf("полностью невалидный ввод переспрашивается, получили %q", msg.text)
	}
	// Дефолтная подписка не тронута
	if got := fx.settings.GetEffective(100).Symbols; len(got) != 1 || got[0] != "EUR/USD" {
		t.Errorf("подписка не должна меняться: %v", got)
	}
}

func TestSymbolSelectionBackRouting(t *testing.T) {
	// Вход из алертов: Back возвращает в алерты
	fx := newDialogFixture(t)
	fx.send(t, 100, "Alerts", "New Alert", "⬅️ Back")
	if msg := fx.sender.last(t); !strings.Contains(msg.text, "Alerts") {
		t.Errorf("Back из выбора инструмента для алерта ведёт в алерты, получили %q", msg.text)
	}

	// Вход из настроек: Back возвращает в настройки
	fx2 := newDialogFixture(t)
	fx2.send(t, 100, "Settings", "6. Symbols", "Back")
	if msg := fx2.sender.last(t); !strings.Contains(msg.text, "Settings") {
		t.Errorf("Back из выбора инструментов ведёт в настройки, получили %q", msg.text)
	}
}

func TestAbandonedAlertDraftDoesNotHijackSymbols(t *testing.T) {
	fx := newDialogFixture(t)

	// Начали создавать алерт, выбрали инструмент и вышли назад до самого меню
	fx.send(t, 100, "Alerts", "New Alert", "eur/usd", "⬅️ Back", "⬅️ Back")

	// Выбор инструментов из главного меню обновляет подписку,
	// а не продолжает брошенный черновик алерта
	fx.send(t, 100, "Symbols", "gbp/usd")

	got := fx.settings.GetEffective(100).Symbols
	if len(got) != 1 || got[0] != "GBP/USD" {
		t.Errorf("подписка должна обновиться на GBP/USD: %v", got)
	}
	if msg := fx.sender.last(t); !strings.Contains(msg.text, "Subscribed symbols") {
		t.Errorf("ожидали подтверждение подписки, получили %q", msg.text)
	}
	if len(fx.alerts.List(100)) != 0 {
		t.Error("брошенный черновик не должен породить алерт")
	}
}

func TestAlertDraftClearedOnBackFromType(t *testing.T) {
	fx := newDialogFixture(t)

	// Дошли до выбора направления и вернулись назад
	fx.send(t, 100, "Alerts", "New Alert", "eur/usd", "1.0950", "⬅️ Back", "⬅️ Back")

	fx.send(t, 100, "Symbols", "xau/usd")
	got := fx.settings.GetEffective(100).Symbols
	if len(got) != 1 || got[0] != "XAU/USD" {
		t.Errorf("подписка должна обновиться на XAU/USD: %v", got)
	}
}

func TestNotificationsToggle(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "Settings", "5. Notifications")

	if fx.settings.GetEffective(100).Notifications {
		t.Error("первый тумблер выключает уведомления")
	}
	if msg := fx.sender.last(t); !strings.Contains(msg.text, "Notifications: off") {
		t.Errorf("меню настроек показывает новое значение, получили %q", msg.text)
	}

	fx.send(t, 100, "5. Notifications")
	if !fx.settings.GetEffective(100).Notifications {
		t.Error("второй тумблер включает уведомления обратно")
	}
}

func TestTimezoneValidation(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "Settings", "1. Timezone", "Nowhere/Land")

	if msg := fx.sender.last(t); !strings.Contains(msg.text, "Unknown timezone") {
		t.Errorf("невалидный пояс переспрашивается, получили %q", msg.text)
	}
	if got := fx.settings.GetEffective(100).Timezone; got != "UTC" {
		t.Errorf("настройка не тронута: %q", got)
	}

	fx.send(t, 100, "UTC")
	if got := fx.settings.GetEffective(100).Timezone; got != "UTC" {
		t.Errorf("валидный пояс сохраняется: %q", got)
	}
}

func TestIndicatorsValidation(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "Settings", "3. Indicators", "RSI, BOGUS")

	if msg := fx.sender.last(t); !strings.Contains(msg.text, "Unknown indicator") {
		t.Errorf("невалидный индикатор переспрашивается, получили %q", msg.text)
	}

	fx.send(t, 100, "rsi, macd")
	got := fx.settings.GetEffective(100).Indicators
	if len(got) != 2 || got[0] != "RSI" || got[1] != "MACD" {
		t.Errorf("индикаторы приводятся к верхнему регистру и сохраняются: %v", got)
	}
}

func TestRiskFlow(t *testing.T) {
	fx := newDialogFixture(t)
	fx.send(t, 100, "Settings", "4. Risk", "High")

	if got := fx.settings.GetEffective(100).RiskAppetite; got != "high" {
		t.Errorf("риск сохраняется в нижнем регистре: %q", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"🔄 Refresh", "Refresh"},
		{"Refresh", "Refresh"},
		{"  ⬅️ Back  ", "Back"},
		{"2. Frequency", "2. Frequency"},
		{"❌ Delete 2", "Delete 2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, ожидали %q", tt.in, got, tt.want)
		}
	}
}
