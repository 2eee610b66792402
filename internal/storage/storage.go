package storage

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tasklist-app/internal/manager"
)

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// ErrIO оборачивает ошибки записи. Ошибки чтения наружу не выходят.
var ErrIO = errors.New("io error")

var (
	loadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasklist_storage_load_failures_total",
			Help: "Loads that fell back to an empty task list",
		},
		[]string{"driver", "reason"},
	)

	saveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasklist_storage_save_duration_seconds",
			Help:    "Duration of Save operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "status"},
	)
)

// Storage интерфейс для абстракции хранилища.
//
// Load никогда не возвращает ошибку: недоступные или поврежденные данные
// логируются и превращаются в пустой список. Save перезаписывает хранилище
// целиком и возвращает ошибку, обернутую в ErrIO.
type Storage interface {
	Load() *manager.TaskList
	Save(list *manager.TaskList) error
	Close() error
}

type Options struct {
	Driver     string
	FilePath   string
	SQLitePath string
}

func New(opts Options) (Storage, error) {
	switch opts.Driver {
	case DriverJSON, "":
		return NewJSONStorage(opts.FilePath), nil
	case DriverSQLite:
		return NewSQLiteStorage(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
