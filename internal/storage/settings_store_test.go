package storage

import (
	"path/filepath"
	"reflect"
	"testing"
)

func newTestSettingsStore(t *testing.T) *SettingsStore {
	t.Helper()
	return NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))
}

func TestSettingsDefaults(t *testing.T) {
	s := newTestSettingsStore(t)
	got := s.GetEffective(100)

	want := Defaults()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("чат без переопределений получает дефолты:\n got %+v\nwant %+v", got, want)
	}
}

func TestSettingsConfiguredDefaultFreq(t *testing.T) {
	s := newTestSettingsStore(t)
	s.SetDefaultUpdateFreq(60)

	// Чат без переопределения получает сконфигурированную частоту
	if got := s.GetEffective(100).UpdateFreq; got != 60 {
		t.Errorf("дефолтная частота должна браться из конфига: %d", got)
	}

	// Явное переопределение чата сильнее дефолта
	s.SetUpdateFreq(200, 120)
	if got := s.GetEffective(200).UpdateFreq; got != 120 {
		t.Errorf("переопределение сильнее дефолта: %d", got)
	}

	// Остальные дефолты не тронуты
	if got := s.GetEffective(100).Timezone; got != "UTC" {
		t.Errorf("часовой пояс остаётся дефолтным: %q", got)
	}
}

func TestSettingsSingleOverride(t *testing.T) {
	s := newTestSettingsStore(t)
	s.SetUpdateFreq(100, 60)

	got := s.GetEffective(100)
	if got.UpdateFreq != 60 {
		t.Errorf("частота должна быть переопределена: %d", got.UpdateFreq)
	}
	// Остальные поля остаются дефолтными
	if got.Timezone != "UTC" || got.RiskAppetite != "medium" || !got.Notifications {
		t.Errorf("непереопределённые поля падают в дефолты: %+v", got)
	}
	if !reflect.DeepEqual(got.Indicators, []string{"RSI", "ATR", "MACD"}) {
		t.Errorf("индикаторы должны остаться дефолтными: %v", got.Indicators)
	}
}

func TestSettingsOverridesIsolatedPerChat(t *testing.T) {
	s := newTestSettingsStore(t)
	s.SetRiskAppetite(100, "high")

	if got := s.GetEffective(200); got.RiskAppetite != "medium" {
		t.Errorf("переопределение чата 100 не должно трогать чат 200: %q", got.RiskAppetite)
	}
}

func TestSettingsAllSetters(t *testing.T) {
	s := newTestSettingsStore(t)
	s.SetTimezone(100, "Europe/Moscow")
	s.SetUpdateFreq(100, 120)
	s.SetIndicators(100, []string{"RSI"})
	s.SetNotifications(100, false)
	s.SetRiskAppetite(100, "low")
	s.SetSymbols(100, []string{"GBP/USD", "XAU/USD"})

	got := s.GetEffective(100)
	if got.Timezone != "Europe/Moscow" || got.UpdateFreq != 120 ||
		got.RiskAppetite != "low" || got.Notifications {
		t.Errorf("скалярные поля не применились: %+v", got)
	}
	if !reflect.DeepEqual(got.Indicators, []string{"RSI"}) {
		t.Errorf("индикаторы не применились: %v", got.Indicators)
	}
	if !reflect.DeepEqual(got.Symbols, []string{"GBP/USD", "XAU/USD"}) {
		t.Errorf("инструменты не применились: %v", got.Symbols)
	}
}

func TestSettingsPersistRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	first := NewSettingsStore(path)
	first.SetTimezone(100, "Asia/Tokyo")
	first.SetNotifications(100, false)

	second := NewSettingsStore(path)
	got := second.GetEffective(100)
	if got.Timezone != "Asia/Tokyo" {
		t.Errorf("часовой пояс должен пережить рестарт: %q", got.Timezone)
	}
	if got.Notifications {
		t.Error("выключенные уведомления должны пережить рестарт")
	}
	// Непереопределённое поле по-прежнему дефолтное
	if got.UpdateFreq != 30 {
		t.Errorf("частота осталась дефолтной: %d", got.UpdateFreq)
	}
}
