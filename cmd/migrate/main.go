package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"tasklist-app/internal/config"
	"tasklist-app/internal/manager"
	"tasklist-app/internal/storage"
)

func main() {
	var (
		configPath string
		reverse    bool
		force      bool
	)
	flag.StringVar(&configPath, "config", "config.yaml", "configuration file")
	flag.BoolVar(&reverse, "reverse", false, "copy from sqlite back into the json file")
	flag.BoolVar(&force, "force", false, "overwrite a non-empty destination with an empty source")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	jsonStore := storage.NewJSONStorage(cfg.Storage.FilePath)
	sqliteStore, err := storage.NewSQLiteStorage(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatal("❌ cannot open sqlite database: ", err)
	}
	defer sqliteStore.Close()

	var src, dst storage.Storage = jsonStore, sqliteStore
	from, to := cfg.Storage.FilePath, cfg.Storage.SQLitePath
	if reverse {
		src, dst = dst, src
		from, to = to, from
	}

	log.Printf("🔄 copying tasks %s -> %s", from, to)

	n, err := migrate(src, dst, force)
	if err != nil {
		log.Fatal("❌ migration failed: ", err)
	}

	log.Printf("✅ %d tasks copied", n)
}

var errEmptySource = errors.New("source is empty, destination has tasks (use -force to overwrite)")

// strictLoader - хранилище, которое умеет сообщить об ошибке чтения
// вместо того, чтобы вернуть пустой список.
type strictLoader interface {
	LoadStrict() (*manager.TaskList, error)
}

// migrate переносит весь список задач из src в dst, сохраняя порядок и ID.
// Нечитаемый источник - ошибка; пустой источник не затирает непустой dst без force.
func migrate(src, dst storage.Storage, force bool) (int, error) {
	list, err := loadSource(src)
	if err != nil {
		return 0, err
	}

	if list.Len() == 0 && !force {
		if existing := dst.Load().Len(); existing > 0 {
			return 0, fmt.Errorf("%w: %d tasks would be lost", errEmptySource, existing)
		}
	}

	if err := dst.Save(list); err != nil {
		return 0, err
	}
	return list.Len(), nil
}

func loadSource(src storage.Storage) (*manager.TaskList, error) {
	sl, ok := src.(strictLoader)
	if !ok {
		return src.Load(), nil
	}
	list, err := sl.LoadStrict()
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return list, nil
}
