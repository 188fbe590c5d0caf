// Package service implements the application operations on top of the
// repositories and the document store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fonnet/fonnetapp/internal/auth"
	"github.com/fonnet/fonnetapp/internal/model"
	"github.com/fonnet/fonnetapp/internal/tasktree"
)

var tracer = otel.Tracer("github.com/fonnet/fonnetapp/internal/service")

// TaskStore is the persistence the task service needs.
type TaskStore interface {
	ListByProject(ctx context.Context, projectID string) ([]model.Task, error)
	GetByID(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, t *model.Task) error
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id string) error
	UpdateOrder(ctx context.Context, projectID string, updates []model.OrderUpdate, at time.Time) error
}

// ProjectStore is the persistence for projects.
type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
}

// Option configures a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TaskService manages the task hierarchy of projects.
type TaskService struct {
	tasks    TaskStore
	projects ProjectStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks TaskStore, projects ProjectStore, logger *slog.Logger, opts ...Option) *TaskService {
	o := buildOptions(opts)
	return &TaskService{tasks: tasks, projects: projects, logger: logger, now: o.now}
}

// ListTasks returns the task tree of a project.
func (s *TaskService) ListTasks(ctx context.Context, projectID string) ([]*model.TaskNode, error) {
	ctx, span := tracer.Start(ctx, "TaskService.ListTasks",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()

	tasks, err := s.projectTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	roots := tasktree.Build(tasks)
	span.SetAttributes(attribute.Int("task.roots", len(roots)))
	return roots, nil
}

// GetTask returns a single task.
func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// CreateTask creates a task for the authenticated actor. Parent linkage and
// depth are checked here rather than trusted from the caller.
func (s *TaskService) CreateTask(ctx context.Context, req *model.CreateTaskRequest) (*model.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.CreateTask",
		trace.WithAttributes(attribute.String("project.id", req.ProjectID)),
	)
	defer span.End()

	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	siblings, err := s.projectTasks(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	depth := 0
	var parentID *string
	if req.ParentTaskID != nil && *req.ParentTaskID != "" {
		parent, err := s.tasks.GetByID(ctx, *req.ParentTaskID)
		if err != nil {
			if model.IsNotFound(err) {
				return nil, model.ErrParentNotFound
			}
			return nil, err
		}
		if parent.ProjectID != req.ProjectID {
			return nil, model.ErrParentProjectMismatch
		}
		if parent.DepthLevel >= model.MaxDepthLevel {
			s.logger.WarnContext(ctx, "subtask rejected at depth limit",
				slog.String("parent_id", parent.ID),
				slog.Int("parent_depth", parent.DepthLevel),
			)
			return nil, model.DepthLimitError{ParentID: parent.ID, ParentDepth: parent.DepthLevel}
		}
		depth = parent.DepthLevel + 1
		parentID = &parent.ID
	}
	if req.DepthLevel != nil && *req.DepthLevel != depth {
		return nil, model.ErrDepthMismatch
	}

	now := s.now().UTC()
	task := &model.Task{
		ID:           uuid.New().String(),
		ProjectID:    req.ProjectID,
		ParentTaskID: parentID,
		DepthLevel:   depth,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		AssigneeID:   req.AssigneeID,
		DueDate:      dueDay(req.DueDate),
		CreatedBy:    actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if task.Status == "" {
		task.Status = model.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Status == model.StatusDone {
		task.CompletedAt = &now
	}
	if req.OrderIndex != nil {
		task.OrderIndex = *req.OrderIndex
	} else {
		task.OrderIndex = countSiblings(siblings, parentID)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "failed to create task", slog.Any("error", err))
		return nil, err
	}

	span.SetAttributes(attribute.String("task.id", task.ID))
	return task, nil
}

// UpdateTask applies a partial update. Moving to done stamps the completion
// time unless one is given; moving anywhere else always clears it.
func (s *TaskService) UpdateTask(ctx context.Context, id string, req *model.UpdateTaskRequest) (*model.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.UpdateTask",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.AssigneeID != nil {
		task.AssigneeID = req.AssigneeID
	}
	if req.DueDate != nil {
		task.DueDate = dueDay(req.DueDate)
	}
	if req.OrderIndex != nil {
		task.OrderIndex = *req.OrderIndex
	}
	if req.CompletedAt != nil {
		task.CompletedAt = req.CompletedAt
	}
	if req.Status != nil {
		task.Status = *req.Status
		switch {
		case task.Status != model.StatusDone:
			task.CompletedAt = nil
		case req.CompletedAt == nil:
			task.CompletedAt = &now
		}
	}
	task.UpdatedAt = now

	if err := s.tasks.Update(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "failed to update task", slog.String("id", id), slog.Any("error", err))
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task. The store removes its subtree.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "TaskService.DeleteTask",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()

	if err := s.tasks.Delete(ctx, id); err != nil {
		if !model.IsNotFound(err) {
			s.logger.ErrorContext(ctx, "failed to delete task", slog.String("id", id), slog.Any("error", err))
		}
		return err
	}
	return nil
}

// ReorderTasks sets each task's order index to its position in orderedIDs.
// Ids that do not belong to the project are skipped and reported.
func (s *TaskService) ReorderTasks(ctx context.Context, projectID string, orderedIDs []string) (*model.ReorderResult, error) {
	ctx, span := tracer.Start(ctx, "TaskService.ReorderTasks",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.Int("task.count", len(orderedIDs)),
		),
	)
	defer span.End()

	tasks, err := s.projectTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		owned[t.ID] = true
	}

	result := &model.ReorderResult{Skipped: []string{}}
	updates := make([]model.OrderUpdate, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		if !owned[id] {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		updates = append(updates, model.OrderUpdate{ID: id, OrderIndex: i})
	}
	if len(result.Skipped) > 0 {
		s.logger.WarnContext(ctx, "reorder skipped tasks outside project",
			slog.String("project_id", projectID),
			slog.Any("skipped", result.Skipped),
		)
	}

	if len(updates) > 0 {
		if err := s.tasks.UpdateOrder(ctx, projectID, updates, s.now()); err != nil {
			s.logger.ErrorContext(ctx, "failed to reorder tasks", slog.String("project_id", projectID), slog.Any("error", err))
			return nil, err
		}
	}
	result.Updated = len(updates)
	return result, nil
}

// ComputeStats counts the project's tasks by status and overdue state.
func (s *TaskService) ComputeStats(ctx context.Context, projectID string) (*model.TaskStats, error) {
	ctx, span := tracer.Start(ctx, "TaskService.ComputeStats",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()

	tasks, err := s.projectTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats := &model.TaskStats{Total: len(tasks), ByStatus: make(map[model.Status]int, len(model.Statuses))}
	for _, st := range model.Statuses {
		stats.ByStatus[st] = 0
	}
	today := calendarDay(s.now())
	for i := range tasks {
		stats.ByStatus[tasks[i].Status]++
		if isOverdue(&tasks[i], today) {
			stats.Overdue++
		}
	}
	return stats, nil
}

// ListOverdue returns the project's overdue tasks, earliest due date first.
func (s *TaskService) ListOverdue(ctx context.Context, projectID string) ([]model.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.ListOverdue",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()

	tasks, err := s.projectTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	today := calendarDay(s.now())
	overdue := []model.Task{}
	for i := range tasks {
		if isOverdue(&tasks[i], today) {
			overdue = append(overdue, tasks[i])
		}
	}
	slices.SortStableFunc(overdue, func(a, b model.Task) int {
		return a.DueDate.Compare(*b.DueDate)
	})
	return overdue, nil
}

// projectTasks loads a project's rows after checking the project exists.
func (s *TaskService) projectTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list tasks", slog.String("project_id", projectID), slog.Any("error", err))
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func countSiblings(tasks []model.Task, parentID *string) int {
	n := 0
	for i := range tasks {
		t := &tasks[i]
		switch {
		case parentID == nil && !t.HasParent():
			n++
		case parentID != nil && t.HasParent() && *t.ParentTaskID == *parentID:
			n++
		}
	}
	return n
}

// calendarDay returns t's calendar date, read in t's own zone, as midnight UTC.
// Due dates are days, so two instants compare by the day each names.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dueDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	day := calendarDay(*t)
	return &day
}

// isOverdue reports whether an open task was due on a day before today.
func isOverdue(t *model.Task, today time.Time) bool {
	return t.Status != model.StatusDone && t.DueDate != nil && calendarDay(*t.DueDate).Before(today)
}
