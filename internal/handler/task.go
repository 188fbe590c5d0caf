package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fonnet/fonnetapp/internal/model"
	"github.com/fonnet/fonnetapp/internal/telemetry"
)

// TaskService is the task hierarchy as seen by the HTTP layer.
type TaskService interface {
	ListTasks(ctx context.Context, projectID string) ([]*model.TaskNode, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, req *model.CreateTaskRequest) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, req *model.UpdateTaskRequest) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ReorderTasks(ctx context.Context, projectID string, orderedIDs []string) (*model.ReorderResult, error)
	ComputeStats(ctx context.Context, projectID string) (*model.TaskStats, error)
	ListOverdue(ctx context.Context, projectID string) ([]model.Task, error)
}

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	base
	svc TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc TaskService, logger *slog.Logger, metrics *telemetry.Metrics, translator Localizer) *TaskHandler {
	return &TaskHandler{
		base: base{logger: logger, metrics: metrics, translator: translator},
		svc:  svc,
	}
}

// ProjectRoutes registers the routes nested under /projects/{projectID}/tasks.
func (h *TaskHandler) ProjectRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/order", h.Reorder)
	r.Get("/stats", h.Stats)
	r.Get("/overdue", h.Overdue)
}

// Routes returns the chi router for single-task routes.
func (h *TaskHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// List returns the task tree of a project.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	projectID := chi.URLParam(r, "projectID")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.List",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	roots, err := h.svc.ListTasks(ctx, projectID)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}

	h.logger.InfoContext(ctx, "tasks listed", slog.String("project_id", projectID), slog.Int("roots", len(roots)))
	h.ok(w, r, http.StatusOK, roots, start)
}

// Create adds a task to a project.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	projectID := chi.URLParam(r, "projectID")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Create",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	var req model.CreateTaskRequest
	if !h.decode(w, r, start, &req) {
		return
	}
	req.ProjectID = projectID

	task, err := h.svc.CreateTask(ctx, &req)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}

	span.SetAttributes(attribute.String("task.id", task.ID))
	h.logger.InfoContext(ctx, "task created", slog.String("id", task.ID), slog.Int("depth", task.DepthLevel))
	h.ok(w, r, http.StatusCreated, task, start)
}

// GetByID returns a task by ID.
func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.GetByID",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	task, err := h.svc.GetTask(ctx, id)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, task, start)
}

// Update modifies an existing task.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Update",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	var req model.UpdateTaskRequest
	if !h.decode(w, r, start, &req) {
		return
	}

	task, err := h.svc.UpdateTask(ctx, id, &req)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}

	h.logger.InfoContext(ctx, "task updated", slog.String("id", id))
	h.ok(w, r, http.StatusOK, task, start)
}

// Delete removes a task and its subtasks.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Delete",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	if err := h.svc.DeleteTask(ctx, id); err != nil {
		h.fail(w, r, err, start)
		return
	}

	h.logger.InfoContext(ctx, "task deleted", slog.String("id", id))
	h.ok(w, r, http.StatusNoContent, nil, start)
}

// Reorder applies a new sibling order to a project's tasks.
func (h *TaskHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	projectID := chi.URLParam(r, "projectID")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Reorder",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	var req model.ReorderRequest
	if !h.decode(w, r, start, &req) {
		return
	}

	res, err := h.svc.ReorderTasks(ctx, projectID, req.TaskIDs)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, res, start)
}

// Stats returns the task counters of a project.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	projectID := chi.URLParam(r, "projectID")

	stats, err := h.svc.ComputeStats(r.Context(), projectID)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, stats, start)
}

// Overdue returns the open tasks of a project that are past due.
func (h *TaskHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	projectID := chi.URLParam(r, "projectID")

	tasks, err := h.svc.ListOverdue(r.Context(), projectID)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, tasks, start)
}
