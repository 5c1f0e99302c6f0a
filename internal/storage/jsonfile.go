// internal/storage/jsonfile.go
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"forex-signal-bot/pkg/logger"
)

// Document - один JSON-документ на диске. Загрузка терпима к
// отсутствующему или битому файлу: это "пустое хранилище", не ошибка.
type Document struct {
	path string
}

// NewDocument создает документ по пути внутри DATA_DIR
func NewDocument(path string) *Document {
	return &Document{path: path}
}

// Load читает документ в v. Отсутствующий файл или битый JSON
// оставляют v нетронутым и не считаются ошибкой.
func (d *Document) Load(v interface{}) error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", d.path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("⚠️ [Storage] Битый JSON в %s, хранилище считается пустым: %v", d.path, err)
		return nil
	}
	return nil
}

// Save атомарно записывает v: сначала во временный файл, потом rename
func (d *Document) Save(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", d.path, err)
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("rename %s: %w", d.path, err)
	}
	return nil
}
