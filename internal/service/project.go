package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fonnet/fonnetapp/internal/auth"
	"github.com/fonnet/fonnetapp/internal/model"
)

// CommentStore is the persistence for project comments.
type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Comment, error)
	UpdateContent(ctx context.Context, c *model.Comment) error
	Delete(ctx context.Context, id string) error
}

// ProjectService manages projects and their comment threads.
type ProjectService struct {
	projects ProjectStore
	comments CommentStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projects ProjectStore, comments CommentStore, logger *slog.Logger, opts ...Option) *ProjectService {
	o := buildOptions(opts)
	return &ProjectService{projects: projects, comments: comments, logger: logger, now: o.now}
}

// CreateProject creates a project owned by the authenticated actor.
func (s *ProjectService) CreateProject(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &model.Project{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to create project", slog.Any("error", err))
		return nil, err
	}
	return p, nil
}

// GetProject returns a project.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return s.projects.GetByID(ctx, id)
}

// ListProjects returns every project.
func (s *ProjectService) ListProjects(ctx context.Context) ([]model.Project, error) {
	return s.projects.List(ctx)
}

// ListComments returns a project's comments, oldest first.
func (s *ProjectService) ListComments(ctx context.Context, projectID string) ([]model.Comment, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.comments.ListByProject(ctx, projectID)
}

// CreateComment adds a comment authored by the authenticated actor.
func (s *ProjectService) CreateComment(ctx context.Context, projectID string, req *model.CommentRequest) (*model.Comment, error) {
	ctx, span := tracer.Start(ctx, "ProjectService.CreateComment",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()

	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &model.Comment{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		UserID:    actor,
		Content:   strings.TrimSpace(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to create comment", slog.Any("error", err))
		return nil, err
	}
	return c, nil
}

// UpdateComment replaces the text of a comment. Only its author may edit it.
func (s *ProjectService) UpdateComment(ctx context.Context, id string, req *model.CommentRequest) (*model.Comment, error) {
	c, err := s.ownComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.Content = strings.TrimSpace(req.Content)
	c.UpdatedAt = s.now().UTC()
	if err := s.comments.UpdateContent(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to update comment", slog.String("id", id), slog.Any("error", err))
		return nil, err
	}
	return c, nil
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *ProjectService) DeleteComment(ctx context.Context, id string) error {
	if _, err := s.ownComment(ctx, id); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete comment", slog.String("id", id), slog.Any("error", err))
		return err
	}
	return nil
}

func (s *ProjectService) ownComment(ctx context.Context, id string) (*model.Comment, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor {
		return nil, model.ErrForbidden
	}
	return c, nil
}
