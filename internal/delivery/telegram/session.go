// internal/delivery/telegram/session.go
package telegram

import "sync"

// State - состояние диалога
type State int

const (
	StateMenu State = iota
	StateSettings
	StateAlerts
	StateSymbolSelection
	StateSetAlertPrice
	StateSetAlertType
	StateSetTimezone
	StateSetUpdateFreq
	StateSetIndicators
	StateSetRisk
)

// Session - разговорная сессия одного чата. Не персистится:
// при рестарте пользователь просто начинает подпоток заново.
// mu сериализует обработку событий чата в порядке прихода.
type Session struct {
	ChatID int64
	State  State

	// Черновик создаваемого алерта
	AlertSetup  bool
	AlertSymbol string
	AlertPrice  float64

	mu sync.Mutex
}

// ResetFlow сбрасывает сессию к главному меню и чистит черновик
func (s *Session) ResetFlow() {
	s.State = StateMenu
	s.ResetDraft()
}

// ResetDraft чистит черновик алерта, не меняя состояние.
// Вызывается на любом выходе из подпотока создания алерта.
func (s *Session) ResetDraft() {
	s.AlertSetup = false
	s.AlertSymbol = ""
	s.AlertPrice = 0
}

// SessionManager - реестр сессий по чатам
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[int64]*Session)}
}

// Get возвращает сессию чата, создавая её при первом событии
func (m *SessionManager) Get(chatID int64) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[chatID]
	m.mu.RUnlock()
	if ok {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok = m.sessions[chatID]; ok {
		return sess
	}
	sess = &Session{ChatID: chatID, State: StateMenu}
	m.sessions[chatID] = sess
	return sess
}
