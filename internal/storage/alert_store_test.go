package storage

import (
	"path/filepath"
	"testing"

	"forex-signal-bot/internal/types"
)

func newTestAlertStore(t *testing.T) *AlertStore {
	t.Helper()
	return NewAlertStore(filepath.Join(t.TempDir(), "alerts.json"))
}

func TestAlertAddAndList(t *testing.T) {
	s := newTestAlertStore(t)
	s.Add(100, "EUR/USD", types.AlertAbove, 1.1)
	s.Add(100, "GBP/USD", types.AlertBelow, 1.25)
	s.Add(200, "EUR/USD", types.AlertAbove, 1.2)

	list := s.List(100)
	if len(list) != 2 {
		t.Fatalf("у чата 100 должно быть 2 алерта, получили %d", len(list))
	}
	if list[0].Symbol != "EUR/USD" || list[1].Symbol != "GBP/USD" {
		t.Error("алерты должны храниться в порядке создания")
	}
	if !list[0].Active || !list[1].Active {
		t.Error("новые алерты активны")
	}
	if len(s.List(200)) != 1 {
		t.Error("алерты чатов не должны смешиваться")
	}
}

func TestAlertFiresExactlyOnce(t *testing.T) {
	s := newTestAlertStore(t)
	s.Add(100, "EUR/USD", types.AlertAbove, 1.1)

	fired := s.MatchAndFire("EUR/USD", 1.15)
	if len(fired) != 1 {
		t.Fatalf("ожидали 1 срабатывание, получили %d", len(fired))
	}
	if fired[0].ChatID != 100 || fired[0].FiredPrice != 1.15 {
		t.Errorf("неожиданное срабатывание: %+v", fired[0])
	}

	// Повторное наблюдение той же цены: алерт уже неактивен
	if again := s.MatchAndFire("EUR/USD", 1.15); len(again) != 0 {
		t.Errorf("одноразовый алерт не должен срабатывать повторно, получили %d", len(again))
	}

	list := s.List(100)
	if len(list) != 1 || list[0].Active {
		t.Error("сработавший алерт остаётся в списке как неактивный")
	}
}

func TestAlertBoundaryMatches(t *testing.T) {
	s := newTestAlertStore(t)
	s.Add(100, "EUR/USD", types.AlertAbove, 1.1)
	s.Add(100, "EUR/USD", types.AlertBelow, 1.0)

	// Равенство порогу считается срабатыванием
	if fired := s.MatchAndFire("EUR/USD", 1.1); len(fired) != 1 {
		t.Errorf("above на ровно пороге должен сработать, получили %d", len(fired))
	}
	if fired := s.MatchAndFire("EUR/USD", 1.0); len(fired) != 1 {
		t.Errorf("below на ровно пороге должен сработать, получили %d", len(fired))
	}
}

func TestAlertNoMatchOtherSymbol(t *testing.T) {
	s := newTestAlertStore(t)
	s.Add(100, "EUR/USD", types.AlertAbove, 1.1)

	if fired := s.MatchAndFire("GBP/USD", 99); len(fired) != 0 {
		t.Errorf("алерт по другому символу не должен срабатывать, получили %d", len(fired))
	}
}

func TestAlertRemove(t *testing.T) {
	s := newTestAlertStore(t)
	s.Add(100, "EUR/USD", types.AlertAbove, 1.1)
	s.Add(100, "GBP/USD", types.AlertBelow, 1.25)

	if !s.Remove(100, 0) {
		t.Fatal("удаление существующего индекса должно вернуть true")
	}
	list := s.List(100)
	if len(list) != 1 || list[0].Symbol != "GBP/USD" {
		t.Errorf("после удаления остаётся второй алерт, получили %+v", list)
	}

	if s.Remove(100, 5) {
		t.Error("индекс за границами — false, без паники")
	}
	if s.Remove(100, -1) {
		t.Error("отрицательный индекс — false")
	}
	if s.Remove(999, 0) {
		t.Error("чат без алертов — false")
	}
}

func TestAlertPersistRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")

	first := NewAlertStore(path)
	first.Add(100, "EUR/USD", types.AlertAbove, 1.1)
	first.MatchAndFire("EUR/USD", 1.2)
	first.Add(100, "GBP/USD", types.AlertBelow, 1.25)

	second := NewAlertStore(path)
	list := second.List(100)
	if len(list) != 2 {
		t.Fatalf("после рестарта должно быть 2 алерта, получили %d", len(list))
	}
	if list[0].Active {
		t.Error("сработавший алерт должен восстановиться неактивным")
	}
	if !list[1].Active {
		t.Error("несработавший алерт должен остаться активным")
	}

	// Неактивный алерт не срабатывает и после рестарта
	if fired := second.MatchAndFire("EUR/USD", 1.3); len(fired) != 0 {
		t.Errorf("восстановленный неактивный алерт не срабатывает, получили %d", len(fired))
	}
}
