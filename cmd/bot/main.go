package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"forex-signal-bot/application/scheduler"
	"forex-signal-bot/application/services/notification"
	"forex-signal-bot/internal/delivery/telegram"
	"forex-signal-bot/internal/infrastructure/config"
	"forex-signal-bot/internal/infrastructure/persistence/postgres"
	"forex-signal-bot/internal/market"
	"forex-signal-bot/internal/storage"
	"forex-signal-bot/pkg/logger"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	if err := logger.InitGlobal(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.DebugMode); err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}

	printHeader("FOREX SIGNAL BOT")
	cfg.PrintSummary()
	fmt.Println()

	// Бэкенд персистентности кэша: Redis или JSON-файл
	var cachePersister storage.CachePersister
	var redisPersister *storage.RedisCachePersister
	if cfg.Redis.Enabled {
		redisPersister, err = storage.NewRedisCachePersister(cfg)
		if err != nil {
			logger.Warn("⚠️ Redis недоступен, кэш переключен на JSON-файл: %v", err)
			cachePersister = storage.NewFileCachePersister(filepath.Join(cfg.DataDir, "cache.json"))
		} else {
			cachePersister = redisPersister
		}
	} else {
		cachePersister = storage.NewFileCachePersister(filepath.Join(cfg.DataDir, "cache.json"))
	}

	// Хранилища
	cache := storage.NewSnapshotCache(cfg.CacheTTL, cachePersister)
	subscribers := storage.NewSubscriberStore(filepath.Join(cfg.DataDir, "chat_ids.json"))
	alerts := storage.NewAlertStore(filepath.Join(cfg.DataDir, "alerts.json"))
	settings := storage.NewSettingsStore(filepath.Join(cfg.DataDir, "settings.json"))
	settings.SetDefaultUpdateFreq(cfg.UpdateInterval)

	// Опциональный журнал срабатываний в Postgres
	var history notification.HistoryRecorder
	if cfg.Database.Enabled {
		db, err := postgres.Connect(cfg)
		if err != nil {
			logger.Warn("⚠️ PostgreSQL недоступен, журнал алертов выключен: %v", err)
		} else {
			defer db.Close()
			history = postgres.NewAlertHistory(db)
		}
	}

	// Рыночные данные и транспорт
	provider := market.NewYahooProvider(cfg.LookbackDays)
	bot := telegram.NewBot(cfg)

	svc := notification.New(provider, cache, alerts, settings, subscribers, bot, history, telegram.MenuKeyboard())

	// Планировщик: по одной задаче рассылки на подписанный чат
	sched := scheduler.New()
	chatSched := &chatScheduler{sched: sched, svc: svc}

	dialog := telegram.NewDialog(bot, settings, alerts, subscribers, svc.SendUpdate, chatSched)
	updates := telegram.NewUpdatesHandler(cfg, bot, dialog)

	// Восстанавливаем задачи рассылки для уже подписанных чатов
	for _, chatID := range subscribers.List() {
		chatSched.Reschedule(chatID, settings.GetEffective(chatID).UpdateFreq)
	}
	logger.Info("👥 Подписчиков при старте: %d", len(subscribers.List()))

	sched.Start()
	if err := updates.Start(); err != nil {
		log.Fatalf("Не удалось запустить polling: %v", err)
	}

	fmt.Println("🎮 Управление:")
	fmt.Println("   Ctrl+C - Остановить бота")
	fmt.Println()

	// Ожидание сигнала остановки
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	<-stopChan

	fmt.Println()
	printHeader("Завершение работы")

	updates.Stop()
	sched.Stop()
	cache.Flush()
	if redisPersister != nil {
		redisPersister.Close()
	}
	logger.Close()

	fmt.Println("✅ Бот остановлен корректно")
}

// chatScheduler адаптирует планировщик под диалог: одна именованная
// задача на чат, повторная регистрация заменяет прежнюю
type chatScheduler struct {
	sched *scheduler.Scheduler
	svc   *notification.Service
}

func (c *chatScheduler) Reschedule(chatID int64, minutes int) {
	id := chatID
	c.sched.Register(&scheduler.Job{
		Name:        fmt.Sprintf("chat:%d", chatID),
		Description: fmt.Sprintf("Плановая рассылка для чата %d", chatID),
		Schedule:    scheduler.Every(time.Duration(minutes) * time.Minute),
		Handler: func(ctx context.Context) error {
			return c.svc.SendScheduledUpdate(ctx, id)
		},
	})
}

func (c *chatScheduler) Unschedule(chatID int64) {
	c.sched.Remove(fmt.Sprintf("chat:%d", chatID))
}

func printHeader(text string) {
	width := 80
	padding := (width - len(text)) / 2
	if padding < 0 {
		padding = 0
	}
	fmt.Println(strings.Repeat("═", width))
	fmt.Printf("%s%s%s\n",
		strings.Repeat(" ", padding),
		text,
		strings.Repeat(" ", width-len(text)-padding))
	fmt.Println(strings.Repeat("═", width))
}
