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

// ProjectRepository stores projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	ctx, span := tracer.Start(ctx, "ProjectRepository.Create",
		trace.WithAttributes(attribute.String("project.id", p.ID)),
	)
	defer span.End()

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO projects
		(id, name, description, created_by, created_at, updated_at)
		VALUES (:id, :name, :description, :created_by, :created_at, :updated_at)`, p)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	ctx, span := tracer.Start(ctx, "ProjectRepository.GetByID",
		trace.WithAttributes(attribute.String("project.id", id)),
	)
	defer span.End()

	var p model.Project
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT id, name, description, created_by, created_at, updated_at
		FROM projects WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &p, nil
}

// List returns all projects, most recently updated first.
func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	ctx, span := tracer.Start(ctx, "ProjectRepository.List")
	defer span.End()

	projects := []model.Project{}
	err := r.db.SelectContext(ctx, &projects, `SELECT id, name, description, created_by, created_at, updated_at
		FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}
