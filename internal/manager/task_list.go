package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tasklist-app/internal/models"
)

var ErrSerialization = errors.New("serialization error")

var (
	addTaskCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasklist_tasks_added_total",
			Help: "Total number of Add operations",
		},
	)

	removeTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasklist_tasks_removed_total",
			Help: "Total number of RemoveByID operations",
		},
		[]string{"result"},
	)

	lookupCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasklist_task_lookups_total",
			Help: "Total number of GetByID operations",
		},
		[]string{"result"},
	)

	taskNameLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tasklist_task_name_length_bytes",
			Help:    "Length distribution of task names",
			Buckets: []float64{10, 50, 100, 500, 1000},
		},
	)
)

// TaskList хранит задачи в порядке добавления.
// Все ID, выданные через Add, уникальны; загруженные из файла дубликаты не чинятся.
type TaskList struct {
	mu    sync.Mutex
	tasks []models.Task
}

// NewTaskList создает список из уже существующих задач (например, прочитанных с диска)
func NewTaskList(tasks ...models.Task) *TaskList {
	tl := &TaskList{tasks: make([]models.Task, 0, len(tasks))}
	tl.tasks = append(tl.tasks, tasks...)
	return tl
}

// Add назначает ID = max(ID) + 1 (или 1 для пустого списка) и добавляет задачу в конец.
func (tl *TaskList) Add(input models.TaskInput) models.Task {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	task := models.Task{
		ID:    tl.nextID(),
		Name:  input.Name,
		Owner: input.Owner,
	}
	tl.tasks = append(tl.tasks, task)

	addTaskCount.Inc()
	taskNameLength.Observe(float64(len(input.Name)))

	return task
}

// RemoveByID удаляет задачу с указанным ID. Отсутствие задачи - не ошибка.
func (tl *TaskList) RemoveByID(id uint32) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	kept := tl.tasks[:0]
	for _, task := range tl.tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}

	if len(kept) == len(tl.tasks) {
		removeTaskCount.WithLabelValues("absent").Inc()
	} else {
		removeTaskCount.WithLabelValues("removed").Inc()
	}
	tl.tasks = kept
}

func (tl *TaskList) GetByID(id uint32) (models.Task, bool) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	for _, task := range tl.tasks {
		if task.ID == id {
			lookupCount.WithLabelValues("found").Inc()
			return task, true
		}
	}
	lookupCount.WithLabelValues("not_found").Inc()
	return models.Task{}, false
}

func (tl *TaskList) NextID() uint32 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.nextID()
}

func (tl *TaskList) nextID() uint32 {
	var maxID uint32
	for _, task := range tl.tasks {
		if task.ID > maxID {
			maxID = task.ID
		}
	}
	return maxID + 1
}

// Tasks возвращает копию задач в порядке добавления
func (tl *TaskList) Tasks() []models.Task {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	out := make([]models.Task, len(tl.tasks))
	copy(out, tl.tasks)
	return out
}

func (tl *TaskList) Len() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.tasks)
}

type taskListJSON struct {
	Tasks []models.Task `json:"tasks"`
}

// Serialize возвращает {"tasks": [...]}; пустой список дает [] а не null.
func (tl *TaskList) Serialize() (string, error) {
	b, err := json.Marshal(tl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(b), nil
}

func (tl *TaskList) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskListJSON{Tasks: tl.Tasks()})
}

func (tl *TaskList) UnmarshalJSON(data []byte) error {
	var raw taskListJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Tasks == nil {
		raw.Tasks = []models.Task{}
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.tasks = raw.Tasks
	return nil
}
