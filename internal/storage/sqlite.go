package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tasklist-app/internal/logger"
	"tasklist-app/internal/manager"
	"tasklist-app/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStorage - альтернатива JSON-файлу с тем же контрактом:
// Save переписывает таблицу целиком, Load при ошибке отдает пустой список.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info(context.Background(), "sqlite storage initialized", "path", dbPath)
	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func createTables(db *sql.DB) error {
	// seq сохраняет порядок добавления; id не уникален, дубликаты из файла переносятся как есть
	createTasksTable := `
	CREATE TABLE IF NOT EXISTS tasks (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		owner TEXT NOT NULL
	)`

	if _, err := db.Exec(createTasksTable); err != nil {
		return fmt.Errorf("create table tasks: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Load() *manager.TaskList {
	list, reason, err := s.read()
	if err != nil {
		loadFailures.WithLabelValues(DriverSQLite, reason).Inc()
		logger.Warn(context.Background(), "unable to load tasks, starting empty", "path", s.path, "reason", reason, "error", err)
		return manager.NewTaskList()
	}
	return list
}

// LoadStrict возвращает ошибку запроса вместо пустого списка.
func (s *SQLiteStorage) LoadStrict() (*manager.TaskList, error) {
	list, _, err := s.read()
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SQLiteStorage) read() (*manager.TaskList, string, error) {
	rows, err := s.db.Query("SELECT id, name, owner FROM tasks ORDER BY seq")
	if err != nil {
		return nil, "query", fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, "scan", fmt.Errorf("scan tasks: %w", err)
	}
	return manager.NewTaskList(tasks...), "", nil
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		var id int64
		if err := rows.Scan(&id, &task.Name, &task.Owner); err != nil {
			return nil, err
		}
		if id < 0 || id > int64(^uint32(0)) {
			return nil, fmt.Errorf("task id %d out of range", id)
		}
		task.ID = uint32(id)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStorage) Save(list *manager.TaskList) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		saveDuration.WithLabelValues(DriverSQLite, status).Observe(time.Since(start).Seconds())
	}()

	if err := s.replaceAll(list.Tasks()); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func (s *SQLiteStorage) replaceAll(tasks []models.Task) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO tasks (id, name, owner) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, task := range tasks {
		if _, err := stmt.Exec(int64(task.ID), task.Name, task.Owner); err != nil {
			return fmt.Errorf("insert task %d: %w", task.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
