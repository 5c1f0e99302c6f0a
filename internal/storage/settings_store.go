// internal/storage/settings_store.go
package storage

import (
	"strconv"
	"sync"

	"forex-signal-bot/internal/types"
	"forex-signal-bot/pkg/logger"
)

// Defaults возвращает дефолтную запись настроек. Дефолты никогда
// не персистятся — на диск попадают только явные переопределения.
func Defaults() types.UserSettings {
	return types.UserSettings{
		Timezone:      "UTC",
		UpdateFreq:    30,
		Indicators:    []string{"RSI", "ATR", "MACD"},
		Notifications: true,
		RiskAppetite:  "medium",
		Symbols:       []string{"EUR/USD"},
	}
}

// SettingsStore - настройки чатов: частичные переопределения поверх
// дефолтов. Валидация значений — забота диалога, не хранилища.
type SettingsStore struct {
	mu        sync.RWMutex
	base      types.UserSettings
	overrides map[int64]types.SettingsOverride
	doc       *Document
}

// NewSettingsStore создает хранилище и восстанавливает переопределения
func NewSettingsStore(path string) *SettingsStore {
	s := &SettingsStore{
		base:      Defaults(),
		overrides: make(map[int64]types.SettingsOverride),
		doc:       NewDocument(path),
	}

	persisted := make(map[string]types.SettingsOverride)
	if err := s.doc.Load(&persisted); err != nil {
		logger.Warn("⚠️ [Settings] Не удалось загрузить настройки: %v", err)
	}
	for chatKey, ov := range persisted {
		chatID, err := strconv.ParseInt(chatKey, 10, 64)
		if err != nil {
			continue
		}
		s.overrides[chatID] = ov
	}
	return s
}

// SetDefaultUpdateFreq задаёт частоту рассылки для чатов без
// переопределения (конфиг UPDATE_INTERVAL). Вызывается при старте.
func (s *SettingsStore) SetDefaultUpdateFreq(minutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base.UpdateFreq = minutes
}

// GetEffective возвращает дефолты с наложенными переопределениями чата
func (s *SettingsStore) GetEffective(chatID int64) types.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides[chatID].Apply(s.base)
}

// SetTimezone сохраняет часовой пояс
func (s *SettingsStore) SetTimezone(chatID int64, tz string) {
	s.update(chatID, func(ov *types.SettingsOverride) { ov.Timezone = &tz })
}

// SetUpdateFreq сохраняет частоту рассылки в минутах
func (s *SettingsStore) SetUpdateFreq(chatID int64, minutes int) {
	s.update(chatID, func(ov *types.SettingsOverride) { ov.UpdateFreq = &minutes })
}

// SetIndicators сохраняет набор индикаторов
func (s *SettingsStore) SetIndicators(chatID int64, indicators []string) {
	list := append([]string(nil), indicators...)
	s.update(chatID, func(ov *types.SettingsOverride) { ov.Indicators = list })
}

// SetNotifications сохраняет флаг уведомлений
func (s *SettingsStore) SetNotifications(chatID int64, enabled bool) {
	s.update(chatID, func(ov *types.SettingsOverride) { ov.Notifications = &enabled })
}

// SetRiskAppetite сохраняет аппетит к риску (low/medium/high)
func (s *SettingsStore) SetRiskAppetite(chatID int64, risk string) {
	s.update(chatID, func(ov *types.SettingsOverride) { ov.RiskAppetite = &risk })
}

// SetSymbols сохраняет подписку на инструменты
func (s *SettingsStore) SetSymbols(chatID int64, symbols []string) {
	list := append([]string(nil), symbols...)
	s.update(chatID, func(ov *types.SettingsOverride) { ov.Symbols = list })
}

// update применяет мутацию к переопределениям чата и сразу персистит
func (s *SettingsStore) update(chatID int64, mutate func(*types.SettingsOverride)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ov := s.overrides[chatID]
	mutate(&ov)
	s.overrides[chatID] = ov
	s.persist()
}

// persist вызывается строго под s.mu
func (s *SettingsStore) persist() {
	persisted := make(map[string]types.SettingsOverride, len(s.overrides))
	for chatID, ov := range s.overrides {
		persisted[strconv.FormatInt(chatID, 10)] = ov
	}
	if err := s.doc.Save(persisted); err != nil {
		logger.Error("❌ [Settings] Не удалось сохранить настройки: %v", err)
	}
}
