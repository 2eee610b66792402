package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tasklist-app/internal/logger"
	"tasklist-app/internal/manager"
)

// JSONStorage хранит весь список задач в одном JSON-файле.
type JSONStorage struct {
	path string
}

func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

func (s *JSONStorage) Path() string {
	return s.path
}

// Load читает файл. Отсутствующий, нечитаемый или битый файл дает пустой список.
func (s *JSONStorage) Load() *manager.TaskList {
	ctx := context.Background()

	list, reason, err := s.read()
	if err != nil {
		loadFailures.WithLabelValues(DriverJSON, reason).Inc()
		logger.Warn(ctx, "unable to load task file, starting empty", "path", s.path, "reason", reason, "error", err)
		return manager.NewTaskList()
	}

	logger.Debug(ctx, "task file loaded", "path", s.path, "tasks", list.Len())
	return list
}

// LoadStrict в отличие от Load возвращает ошибку, если файла нет или он битый.
func (s *JSONStorage) LoadStrict() (*manager.TaskList, error) {
	list, _, err := s.read()
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *JSONStorage) read() (*manager.TaskList, string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "missing", err
		}
		return nil, "read", err
	}

	list := manager.NewTaskList()
	if err := json.Unmarshal(data, list); err != nil {
		return nil, "parse", fmt.Errorf("parse %s: %w", s.path, err)
	}
	return list, "", nil
}

// Save сериализует список и заменяет файл целиком (временный файл + rename).
func (s *JSONStorage) Save(list *manager.TaskList) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		saveDuration.WithLabelValues(DriverJSON, status).Observe(time.Since(start).Seconds())
	}()

	text, err := list.Serialize()
	if err != nil {
		return err
	}

	if err := writeFileAtomic(s.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, s.path, err)
	}
	return nil
}

func (s *JSONStorage) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
