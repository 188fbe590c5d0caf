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

// ProjectService covers projects and their comments.
type ProjectService interface {
	CreateProject(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListComments(ctx context.Context, projectID string) ([]model.Comment, error)
	CreateComment(ctx context.Context, projectID string, req *model.CommentRequest) (*model.Comment, error)
	UpdateComment(ctx context.Context, id string, req *model.CommentRequest) (*model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// ProjectHandler handles HTTP requests for projects and comments.
type ProjectHandler struct {
	base
	svc   ProjectService
	tasks *TaskHandler
}

// NewProjectHandler creates a new ProjectHandler. Task routes of a project
// are served by tasks.
func NewProjectHandler(svc ProjectService, tasks *TaskHandler, logger *slog.Logger, metrics *telemetry.Metrics, translator Localizer) *ProjectHandler {
	return &ProjectHandler{
		base:  base{logger: logger, metrics: metrics, translator: translator},
		svc:   svc,
		tasks: tasks,
	}
}

// Routes returns the chi router with project routes.
func (h *ProjectHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/", h.GetByID)
		r.Get("/comments", h.ListComments)
		r.Post("/comments", h.CreateComment)
		r.Route("/tasks", h.tasks.ProjectRoutes)
	})

	return r
}

// CommentRoutes returns the chi router for single-comment routes.
func (h *ProjectHandler) CommentRoutes() chi.Router {
	r := chi.NewRouter()

	r.Patch("/{id}", h.UpdateComment)
	r.Delete("/{id}", h.DeleteComment)

	return r
}

// List returns all projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	projects, err := h.svc.ListProjects(r.Context())
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, projects, start)
}

// Create adds a new project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "ProjectHandler.Create")
	defer span.End()
	r = r.WithContext(ctx)

	var req model.CreateProjectRequest
	if !h.decode(w, r, start, &req) {
		return
	}

	p, err := h.svc.CreateProject(ctx, &req)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}

	span.SetAttributes(attribute.String("project.id", p.ID))
	h.logger.InfoContext(ctx, "project created", slog.String("id", p.ID))
	h.ok(w, r, http.StatusCreated, p, start)
}

// GetByID returns a project by ID.
func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	p, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, p, start)
}

// ListComments returns the comments of a project.
func (h *ProjectHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	comments, err := h.svc.ListComments(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, comments, start)
}

// CreateComment adds a comment to a project.
func (h *ProjectHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	projectID := chi.URLParam(r, "projectID")

	ctx, span := tracer.Start(r.Context(), "ProjectHandler.CreateComment",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	var req model.CommentRequest
	if !h.decode(w, r, start, &req) {
		return
	}

	c, err := h.svc.CreateComment(ctx, projectID, &req)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusCreated, c, start)
}

// UpdateComment edits a comment.
func (h *ProjectHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req model.CommentRequest
	if !h.decode(w, r, start, &req) {
		return
	}

	c, err := h.svc.UpdateComment(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, c, start)
}

// DeleteComment removes a comment.
func (h *ProjectHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.svc.DeleteComment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusNoContent, nil, start)
}
