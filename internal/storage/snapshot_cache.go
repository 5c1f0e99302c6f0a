// internal/storage/snapshot_cache.go
package storage

import (
	"sync"
	"time"

	"forex-signal-bot/internal/types"
	"forex-signal-bot/pkg/logger"
)

// CacheDocument - персистентная форма кэша: снапшоты и отметки
// времени последнего обновления (ISO-8601), ключ — символ инструмента
type CacheDocument struct {
	Data        map[string]types.Snapshot `json:"data"`
	LastUpdated map[string]string         `json:"last_updated"`
}

// CachePersister - бэкенд персистентности кэша (JSON-файл или Redis)
type CachePersister interface {
	Load() (*CacheDocument, error)
	Save(doc *CacheDocument) error
}

// SnapshotCache - кэш снапшотов с TTL. Валидность считается при
// чтении; протухшая запись не удаляется, а перезаписывается следующим
// успешным фетчем. Каждая запись персистится целым документом.
type SnapshotCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	data      map[string]types.Snapshot
	updated   map[string]time.Time
	persister CachePersister

	now func() time.Time // подменяется в тестах
}

// NewSnapshotCache создает кэш и восстанавливает прежнее состояние
func NewSnapshotCache(ttl time.Duration, persister CachePersister) *SnapshotCache {
	c := &SnapshotCache{
		ttl:       ttl,
		data:      make(map[string]types.Snapshot),
		updated:   make(map[string]time.Time),
		persister: persister,
		now:       time.Now,
	}
	c.restore()
	return c
}

// restore загружает сохранённый документ; любая проблема — пустой кэш
func (c *SnapshotCache) restore() {
	if c.persister == nil {
		return
	}
	doc, err := c.persister.Load()
	if err != nil {
		logger.Warn("⚠️ [Cache] Не удалось восстановить кэш: %v", err)
		return
	}
	if doc == nil {
		return
	}
	for symbol, snap := range doc.Data {
		ts, err := time.Parse(time.RFC3339, doc.LastUpdated[symbol])
		if err != nil {
			continue // запись без валидной отметки времени бесполезна
		}
		c.data[symbol] = snap
		c.updated[symbol] = ts
	}
	if len(c.data) > 0 {
		logger.Info("💾 [Cache] Восстановлено снапшотов: %d", len(c.data))
	}
}

// Get возвращает снапшот, только если он ещё валиден по TTL
func (c *SnapshotCache) Get(symbol string) (types.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.data[symbol]
	if !ok {
		return types.Snapshot{}, false
	}
	if c.now().Sub(c.updated[symbol]) >= c.ttl {
		return types.Snapshot{}, false
	}
	return snap, true
}

// Put перезаписывает снапшот и синхронно персистит весь кэш.
// Ошибка персистентности логируется и не откатывает память.
func (c *SnapshotCache) Put(symbol string, snap types.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[symbol] = snap
	c.updated[symbol] = c.now()

	if err := c.persist(); err != nil {
		logger.Error("❌ [Cache] Не удалось сохранить кэш: %v", err)
	}
}

// Flush принудительно персистит текущее состояние (на завершении)
func (c *SnapshotCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.persist(); err != nil {
		logger.Error("❌ [Cache] Финальный сброс кэша не удался: %v", err)
	}
}

// persist вызывается строго под c.mu
func (c *SnapshotCache) persist() error {
	if c.persister == nil {
		return nil
	}
	doc := &CacheDocument{
		Data:        make(map[string]types.Snapshot, len(c.data)),
		LastUpdated: make(map[string]string, len(c.updated)),
	}
	for symbol, snap := range c.data {
		doc.Data[symbol] = snap
		doc.LastUpdated[symbol] = c.updated[symbol].UTC().Format(time.RFC3339)
	}
	return c.persister.Save(doc)
}

// FileCachePersister - дефолтный бэкенд: JSON-документ на диске
type FileCachePersister struct {
	doc *Document
}

func NewFileCachePersister(path string) *FileCachePersister {
	return &FileCachePersister{doc: NewDocument(path)}
}

func (p *FileCachePersister) Load() (*CacheDocument, error) {
	doc := &CacheDocument{}
	if err := p.doc.Load(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *FileCachePersister) Save(doc *CacheDocument) error {
	return p.doc.Save(doc)
}
