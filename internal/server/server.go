package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tasklist-app/internal/logger"
	"tasklist-app/internal/manager"
	"tasklist-app/internal/models"
	"tasklist-app/internal/storage"
)

const maxBodyBytes = 1 << 20

var httpRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tasklist_http_requests_total",
		Help: "HTTP requests by route, method and status code",
	},
	[]string{"route", "method", "code"},
)

type Options struct {
	// Timeout ограничивает обработку одного запроса; 0 - без ограничения
	Timeout        time.Duration
	MetricsEnabled bool
	MetricsPath    string
}

type handler struct {
	store storage.Storage
	// при включенном middleware.Timeout ответ 504 по дедлайну пишет он сам
	deadlineHandled bool
}

// NewRouter собирает HTTP API. Каждый запрос заново читает хранилище целиком,
// а изменяющие запросы целиком его перезаписывают.
func NewRouter(store storage.Storage, opts Options) *chi.Mux {
	h := &handler{store: store, deadlineHandled: opts.Timeout > 0}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	r.Get("/", welcomeHandler)
	r.Get("/healthz", healthHandler)

	r.Get("/tasks", h.listTasks)
	r.Post("/tasks", h.addTask)
	r.Get("/tasks/{id}", h.getTask)
	r.Delete("/tasks/{id}", h.deleteTask)

	if opts.MetricsEnabled {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, promhttp.Handler())
	}

	return r
}

func welcomeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("welcome!"))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	respondList(w, r, h.store.Load())
}

func (h *handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(r.Context(), w, err)
		return
	}

	task, ok := h.store.Load().GetByID(id)
	if !ok {
		writeErr(r.Context(), w, fmt.Errorf("%w: task %d not found", ErrBadClientData, id))
		return
	}

	body, err := task.JSON()
	if err != nil {
		writeErr(r.Context(), w, fmt.Errorf("%w: %v", ErrInternal, err))
		return
	}
	writeRaw(w, body, http.StatusOK)
}

type createTaskRequest struct {
	Name  *string `json:"name"`
	Owner *string `json:"owner"`
}

func decodeTaskInput(body io.Reader) (models.TaskInput, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes+1))
	if err != nil {
		return models.TaskInput{}, fmt.Errorf("%w: read body: %v", ErrBadClientData, err)
	}
	if len(data) > maxBodyBytes {
		return models.TaskInput{}, fmt.Errorf("%w: body too large", ErrBadClientData)
	}

	var req createTaskRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return models.TaskInput{}, fmt.Errorf("%w: invalid json: %v", ErrBadClientData, err)
	}
	// оба поля обязательны, пустые строки допустимы
	if req.Name == nil || req.Owner == nil {
		return models.TaskInput{}, fmt.Errorf("%w: name and owner are required", ErrBadClientData)
	}

	return models.TaskInput{Name: *req.Name, Owner: *req.Owner}, nil
}

func (h *handler) addTask(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	input, err := decodeTaskInput(r.Body)
	if err != nil {
		writeErr(r.Context(), w, err)
		return
	}

	list := h.store.Load()
	task := list.Add(input)

	if h.requestDone(w, r) {
		return
	}
	if err := h.store.Save(list); err != nil {
		writeErr(r.Context(), w, fmt.Errorf("%w: %v", ErrInternal, err))
		return
	}

	logger.Info(r.Context(), "task added", "id", task.ID, "owner", task.Owner)
	respondList(w, r, list)
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(r.Context(), w, err)
		return
	}

	list := h.store.Load()
	list.RemoveByID(id)

	if h.requestDone(w, r) {
		return
	}
	if err := h.store.Save(list); err != nil {
		writeErr(r.Context(), w, fmt.Errorf("%w: %v", ErrInternal, err))
		return
	}

	logger.Info(r.Context(), "task removed", "id", id)
	respondList(w, r, list)
}

// requestDone сообщает, что контекст запроса уже завершен и сохранять ничего нельзя.
func (h *handler) requestDone(w http.ResponseWriter, r *http.Request) bool {
	err := r.Context().Err()
	if err == nil {
		return false
	}
	if h.deadlineHandled && errors.Is(err, context.DeadlineExceeded) {
		logger.Warn(r.Context(), "request deadline exceeded, changes discarded")
		return true
	}
	writeErr(r.Context(), w, fmt.Errorf("%w: %v", ErrTimeout, err))
	return true
}

func respondList(w http.ResponseWriter, r *http.Request, list *manager.TaskList) {
	body, err := list.Serialize()
	if err != nil {
		writeErr(r.Context(), w, fmt.Errorf("%w: %v", ErrInternal, err))
		return
	}
	writeRaw(w, body, http.StatusOK)
}

func parseID(raw string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", ErrBadClientData, raw)
	}
	return uint32(id), nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logger.WithFields(r.Context(), "request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(ctx)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()

		logger.Debug(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
		)
	})
}
