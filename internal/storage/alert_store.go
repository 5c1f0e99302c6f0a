// internal/storage/alert_store.go
package storage

import (
	"strconv"
	"sync"
	"time"

	"forex-signal-bot/internal/types"
	"forex-signal-bot/pkg/logger"
)

// FiredAlert - сработавший алерт вместе с владельцем и ценой,
// на которой он сработал. Отправка уведомления — забота вызывающего.
type FiredAlert struct {
	ChatID     int64
	Alert      types.Alert
	FiredPrice float64
}

// AlertStore - пороговые алерты по чатам. Каждая мутация персистится;
// matchAndFire переводит active→false ровно один раз и персистит
// один раз за проход, а не на каждый алерт.
type AlertStore struct {
	mu     sync.Mutex
	alerts map[int64][]types.Alert
	doc    *Document
}

// NewAlertStore создает хранилище и восстанавливает прежнее состояние
func NewAlertStore(path string) *AlertStore {
	s := &AlertStore{
		alerts: make(map[int64][]types.Alert),
		doc:    NewDocument(path),
	}

	persisted := make(map[string][]types.Alert)
	if err := s.doc.Load(&persisted); err != nil {
		logger.Warn("⚠️ [Alerts] Не удалось загрузить алерты: %v", err)
	}
	for chatKey, list := range persisted {
		chatID, err := strconv.ParseInt(chatKey, 10, 64)
		if err != nil {
			continue
		}
		s.alerts[chatID] = list
	}
	return s
}

// Add добавляет активный алерт. Дубликаты легальны.
func (s *AlertStore) Add(chatID int64, symbol string, typ types.AlertType, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts[chatID] = append(s.alerts[chatID], types.Alert{
		Symbol:  symbol,
		Type:    typ,
		Price:   price,
		Created: time.Now().UTC(),
		Active:  true,
	})
	s.persist()
	logger.Info("🔔 [Alerts] Чат %d: новый алерт %s %s %.5f", chatID, symbol, typ, price)
}

// List возвращает копию списка алертов чата в порядке создания
func (s *AlertStore) List(chatID int64) []types.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Alert(nil), s.alerts[chatID]...)
}

// Remove удаляет алерт по позиционному индексу.
// Выход за границы — false, без паники.
func (s *AlertStore) Remove(chatID int64, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.alerts[chatID]
	if index < 0 || index >= len(list) {
		return false
	}
	s.alerts[chatID] = append(list[:index], list[index+1:]...)
	s.persist()
	return true
}

// MatchAndFire проверяет все активные алерты по символу против
// наблюдаемой цены. Совпавшие переводятся в active=false под локом,
// список сработавших возвращается для отправки уже вне лока.
func (s *AlertStore) MatchAndFire(symbol string, price float64) []FiredAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fired []FiredAlert
	for chatID, list := range s.alerts {
		for i := range list {
			if !list[i].Active || list[i].Symbol != symbol {
				continue
			}
			if list[i].Matches(price) {
				list[i].Active = false
				fired = append(fired, FiredAlert{
					ChatID:     chatID,
					Alert:      list[i],
					FiredPrice: price,
				})
			}
		}
	}

	if len(fired) > 0 {
		s.persist() // один раз за проход
		logger.Info("🔔 [Alerts] %s @ %.5f: сработало алертов %d", symbol, price, len(fired))
	}
	return fired
}

// persist вызывается строго под s.mu
func (s *AlertStore) persist() {
	persisted := make(map[string][]types.Alert, len(s.alerts))
	for chatID, list := range s.alerts {
		persisted[strconv.FormatInt(chatID, 10)] = list
	}
	if err := s.doc.Save(persisted); err != nil {
		logger.Error("❌ [Alerts] Не удалось сохранить алерты: %v", err)
	}
}
