// internal/storage/subscriber_store.go
package storage

import (
	"sort"
	"sync"

	"forex-signal-bot/pkg/logger"
)

// SubscriberStore - множество подписанных чатов. На диске хранится
// как JSON-массив идентификаторов, дедупликация при сохранении.
type SubscriberStore struct {
	mu    sync.RWMutex
	chats map[int64]struct{}
	doc   *Document
}

// NewSubscriberStore создает хранилище и восстанавливает подписчиков
func NewSubscriberStore(path string) *SubscriberStore {
	s := &SubscriberStore{
		chats: make(map[int64]struct{}),
		doc:   NewDocument(path),
	}

	var persisted []int64
	if err := s.doc.Load(&persisted); err != nil {
		logger.Warn("⚠️ [Subscribers] Не удалось загрузить подписчиков: %v", err)
	}
	for _, chatID := range persisted {
		s.chats[chatID] = struct{}{}
	}
	return s
}

// Add подписывает чат; возвращает true, если чат был новым
func (s *SubscriberStore) Add(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; ok {
		return false
	}
	s.chats[chatID] = struct{}{}
	s.persist()
	logger.Info("➕ [Subscribers] Подписан чат %d (всего %d)", chatID, len(s.chats))
	return true
}

// Remove отписывает чат. Настройки чата при этом не трогаются.
func (s *SubscriberStore) Remove(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; !ok {
		return
	}
	delete(s.chats, chatID)
	s.persist()
	logger.Info("➖ [Subscribers] Отписан чат %d (осталось %d)", chatID, len(s.chats))
}

// Contains проверяет подписку чата
func (s *SubscriberStore) Contains(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chats[chatID]
	return ok
}

// List возвращает подписчиков в стабильном порядке
func (s *SubscriberStore) List() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int64, 0, len(s.chats))
	for chatID := range s.chats {
		out = append(out, chatID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// persist вызывается строго под s.mu
func (s *SubscriberStore) persist() {
	out := make([]int64, 0, len(s.chats))
	for chatID := range s.chats {
		out = append(out, chatID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	if err := s.doc.Save(out); err != nil {
		logger.Error("❌ [Subscribers] Не удалось сохранить подписчиков: %v", err)
	}
}
