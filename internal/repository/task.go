package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fonnet/fonnetapp/internal/model"
)

const taskColumns = `id, project_id, parent_task_id, depth_level, title, description, status, priority,
	assignee_id, due_date, completed_at, order_index, created_by, created_at, updated_at`

// TaskRepository stores tasks in the relational database.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListByProject returns the project's tasks ordered by depth, sibling order
// and creation time, the order tree construction relies on.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]model.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.ListByProject",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()

	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks
		WHERE project_id = ?
		ORDER BY depth_level ASC, order_index ASC, created_at ASC`)

	tasks := []model.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, projectID); err != nil {
		return nil, fmt.Errorf("list tasks of project %s: %w", projectID, err)
	}

	span.SetAttributes(attribute.Int("task.count", len(tasks)))
	return tasks, nil
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*model.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.GetByID",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()

	var t model.Task
	err := r.db.GetContext(ctx, &t, r.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("task.found", false))
		return nil, model.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}

	span.SetAttributes(attribute.Bool("task.found", true))
	return &t, nil
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, t *model.Task) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.Create",
		trace.WithAttributes(
			attribute.String("task.id", t.ID),
			attribute.Int("task.depth_level", t.DepthLevel),
		),
	)
	defer span.End()

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`) VALUES (
		:id, :project_id, :parent_task_id, :depth_level, :title, :description, :status, :priority,
		:assignee_id, :due_date, :completed_at, :order_index, :created_by, :created_at, :updated_at)`, t)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Update writes the mutable fields of an existing task.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.Update",
		trace.WithAttributes(attribute.String("task.id", t.ID)),
	)
	defer span.End()

	res, err := r.db.NamedExecContext(ctx, `UPDATE tasks SET
		title = :title, description = :description, status = :status, priority = :priority,
		assignee_id = :assignee_id, due_date = :due_date, completed_at = :completed_at,
		order_index = :order_index, updated_at = :updated_at
		WHERE id = :id`, t)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return requireAffected(res, model.ErrTaskNotFound)
}

// Delete removes a task. Descendants go with it through ON DELETE CASCADE.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.Delete",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return requireAffected(res, model.ErrTaskNotFound)
}

// UpdateOrder applies the order indexes in a single transaction, stamping
// updated_at with at. Every statement is scoped to projectID, so ids of other
// projects are untouched.
func (r *TaskRepository) UpdateOrder(ctx context.Context, projectID string, updates []model.OrderUpdate, at time.Time) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.UpdateOrder",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.Int("task.count", len(updates)),
		),
	)
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	at = at.UTC()
	query := tx.Rebind(`UPDATE tasks SET order_index = ?, updated_at = ?
		WHERE id = ? AND project_id = ?`)
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, query, u.OrderIndex, at, u.ID, projectID); err != nil {
			return fmt.Errorf("reorder task %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// Count returns the total number of tasks.
func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tasks`); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
