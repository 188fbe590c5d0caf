package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fonnet/fonnetapp/internal/model"
)

// CommentRepository stores project comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a new comment.
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	ctx, span := tracer.Start(ctx, "CommentRepository.Create",
		trace.WithAttributes(attribute.String("project.id", c.ProjectID)),
	)
	defer span.End()

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO project_comments
		(id, project_id, user_id, content, created_at, updated_at)
		VALUES (:id, :project_id, :user_id, :content, :created_at, :updated_at)`, c)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by its ID.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	ctx, span := tracer.Start(ctx, "CommentRepository.GetByID",
		trace.WithAttributes(attribute.String("comment.id", id)),
	)
	defer span.End()

	var c model.Comment
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`SELECT id, project_id, user_id, content, created_at, updated_at
		FROM project_comments WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	return &c, nil
}

// ListByProject returns a project's comments, oldest first.
func (r *CommentRepository) ListByProject(ctx context.Context, projectID string) ([]model.Comment, error) {
	ctx, span := tracer.Start(ctx, "CommentRepository.ListByProject",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()

	comments := []model.Comment{}
	err := r.db.SelectContext(ctx, &comments, r.db.Rebind(`SELECT id, project_id, user_id, content, created_at, updated_at
		FROM project_comments WHERE project_id = ? ORDER BY created_at ASC`), projectID)
	if err != nil {
		return nil, fmt.Errorf("list comments of project %s: %w", projectID, err)
	}
	return comments, nil
}

// UpdateContent replaces the text of a comment.
func (r *CommentRepository) UpdateContent(ctx context.Context, c *model.Comment) error {
	ctx, span := tracer.Start(ctx, "CommentRepository.UpdateContent",
		trace.WithAttributes(attribute.String("comment.id", c.ID)),
	)
	defer span.End()

	res, err := r.db.NamedExecContext(ctx, `UPDATE project_comments
		SET content = :content, updated_at = :updated_at WHERE id = :id`, c)
	if err != nil {
		return fmt.Errorf("update comment %s: %w", c.ID, err)
	}
	return requireAffected(res, model.ErrCommentNotFound)
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "CommentRepository.Delete",
		trace.WithAttributes(attribute.String("comment.id", id)),
	)
	defer span.End()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM project_comments WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	return requireAffected(res, model.ErrCommentNotFound)
}
