package manager

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tasklist-app/internal/models"
)

func TestAddAssignsIncreasingIDs(t *testing.T) {
	tl := NewTaskList()

	for want := uint32(1); want <= 5; want++ {
		task := tl.Add(models.TaskInput{Name: "task", Owner: "owner"})
		if task.ID != want {
			t.Fatalf("Ожидался ID=%d, получено %d", want, task.ID)
		}
	}

	if tl.Len() != 5 {
		t.Errorf("Ожидалось 5 задач, получено %d", tl.Len())
	}
}

func TestAddUsesMaxIDNotCount(t *testing.T) {
	tl := NewTaskList(
		models.Task{ID: 7, Name: "a", Owner: "x"},
		models.Task{ID: 3, Name: "b", Owner: "y"},
	)

	task := tl.Add(models.TaskInput{Name: "c", Owner: "z"})
	if task.ID != 8 {
		t.Errorf("expected ID 8, got %d", task.ID)
	}
}

func TestAddReusesFreedMaxID(t *testing.T) {
	tl := NewTaskList()
	tl.Add(models.TaskInput{Name: "a"})
	second := tl.Add(models.TaskInput{Name: "b"})

	tl.RemoveByID(second.ID)
	again := tl.Add(models.TaskInput{Name: "c"})

	if again.ID != second.ID {
		t.Errorf("expected freed max ID %d to be reassigned, got %d", second.ID, again.ID)
	}
}

func TestRemoveByIDAbsentIsNoop(t *testing.T) {
	tl := NewTaskList()
	tl.Add(models.TaskInput{Name: "a", Owner: "x"})
	tl.Add(models.TaskInput{Name: "b", Owner: "y"})
	before := tl.Tasks()

	tl.RemoveByID(42)

	if diff := cmp.Diff(before, tl.Tasks()); diff != "" {
		t.Errorf("store changed after removing absent id (-before +after):\n%s", diff)
	}
}

func TestRemoveByIDKeepsOrder(t *testing.T) {
	tl := NewTaskList()
	tl.Add(models.TaskInput{Name: "a"})
	tl.Add(models.TaskInput{Name: "b"})
	tl.Add(models.TaskInput{Name: "c"})

	tl.RemoveByID(2)

	want := []models.Task{{ID: 1, Name: "a"}, {ID: 3, Name: "c"}}
	if diff := cmp.Diff(want, tl.Tasks()); diff != "" {
		t.Errorf("unexpected tasks (-want +got):\n%s", diff)
	}
}

func TestGetByIDAfterAdd(t *testing.T) {
	tl := NewTaskList()
	created := tl.Add(models.TaskInput{Name: "Купить молоко", Owner: "alice"})

	got, ok := tl.GetByID(created.ID)
	if !ok {
		t.Fatal("задача не найдена")
	}

	want := models.Task{ID: created.ID, Name: "Купить молоко", Owner: "alice"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected task (-want +got):\n%s", diff)
	}
}

func TestGetByIDReturnsCopy(t *testing.T) {
	tl := NewTaskList()
	created := tl.Add(models.TaskInput{Name: "a", Owner: "x"})

	got, _ := tl.GetByID(created.ID)
	got.Name = "mutated"

	again, _ := tl.GetByID(created.ID)
	if again.Name != "a" {
		t.Errorf("store was aliased: name = %q", again.Name)
	}
}

func TestScenarioAliceBob(t *testing.T) {
	tl := NewTaskList()

	first := tl.Add(models.TaskInput{Name: "write spec", Owner: "alice"})
	if diff := cmp.Diff(models.Task{ID: 1, Name: "write spec", Owner: "alice"}, first); diff != "" {
		t.Fatalf("first task (-want +got):\n%s", diff)
	}

	second := tl.Add(models.TaskInput{Name: "review", Owner: "bob"})
	if diff := cmp.Diff(models.Task{ID: 2, Name: "review", Owner: "bob"}, second); diff != "" {
		t.Fatalf("second task (-want +got):\n%s", diff)
	}

	tl.RemoveByID(1)

	if _, ok := tl.GetByID(1); ok {
		t.Error("task 1 should be gone")
	}
	if _, ok := tl.GetByID(2); !ok {
		t.Error("task 2 should still exist")
	}
}

func TestSerialize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s, err := NewTaskList().Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		if s != `{"tasks":[]}` {
			t.Errorf("got %s", s)
		}
	})

	t.Run("zero value", func(t *testing.T) {
		var tl TaskList
		s, err := tl.Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		if s != `{"tasks":[]}` {
			t.Errorf("got %s", s)
		}
	})

	t.Run("with tasks", func(t *testing.T) {
		tl := NewTaskList()
		tl.Add(models.TaskInput{Name: "write spec", Owner: "alice"})
		tl.Add(models.TaskInput{Name: "review", Owner: "bob"})

		s, err := tl.Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		want := `{"tasks":[{"id":1,"name":"write spec","owner":"alice"},{"id":2,"name":"review","owner":"bob"}]}`
		if s != want {
			t.Errorf("got %s, want %s", s, want)
		}
	})
}

func TestUnmarshalKeepsDuplicates(t *testing.T) {
	data := `{"tasks":[{"id":4,"name":"a","owner":"x"},{"id":4,"name":"b","owner":"y"},{"id":9,"name":"c","owner":"z"}]}`

	tl := NewTaskList()
	if err := json.Unmarshal([]byte(data), tl); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if tl.Len() != 3 {
		t.Fatalf("expected 3 tasks, got %d", tl.Len())
	}
	if tl.NextID() != 10 {
		t.Errorf("expected next id 10, got %d", tl.NextID())
	}

	tl.RemoveByID(4)
	if tl.Len() != 1 {
		t.Errorf("expected both duplicates removed, %d left", tl.Len())
	}
}

func TestUnmarshalNullTasks(t *testing.T) {
	tl := NewTaskList()
	if err := json.Unmarshal([]byte(`{"tasks":null}`), tl); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	s, _ := tl.Serialize()
	if !strings.Contains(s, `"tasks":[]`) {
		t.Errorf("expected empty array, got %s", s)
	}
}

func TestTaskListMetrics(t *testing.T) {
	// Сохраняем оригинальные метрики
	originalAdd := addTaskCount
	originalRemove := removeTaskCount
	originalLookup := lookupCount

	registry := prometheus.NewRegistry()

	testAdd := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tasklist_tasks_added_total",
		Help: "Test counter",
	})
	testRemove := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tasklist_tasks_removed_total",
		Help: "Test counter",
	}, []string{"result"})
	testLookup := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tasklist_task_lookups_total",
		Help: "Test counter",
	}, []string{"result"})

	registry.MustRegister(testAdd, testRemove, testLookup)

	// Подменяем глобальные метрики
	addTaskCount = testAdd
	removeTaskCount = testRemove
	lookupCount = testLookup
	defer func() {
		addTaskCount = originalAdd
		removeTaskCount = originalRemove
		lookupCount = originalLookup
	}()

	tl := NewTaskList()
	tl.Add(models.TaskInput{Name: "a"})
	tl.Add(models.TaskInput{Name: "b"})
	tl.RemoveByID(1)
	tl.RemoveByID(1)
	tl.GetByID(2)
	tl.GetByID(1)

	if got := testutil.ToFloat64(testAdd); got != 2 {
		t.Errorf("expected 2 adds, got %v", got)
	}
	if got := testutil.ToFloat64(testRemove.WithLabelValues("removed")); got != 1 {
		t.Errorf("expected 1 removal, got %v", got)
	}
	if got := testutil.ToFloat64(testRemove.WithLabelValues("absent")); got != 1 {
		t.Errorf("expected 1 absent removal, got %v", got)
	}
	if got := testutil.ToFloat64(testLookup.WithLabelValues("not_found")); got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
}
