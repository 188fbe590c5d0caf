package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/fonnet/fonnetapp/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "fonnet.db") + "?_foreign_keys=on"
	db, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	// Migrate twice to make sure the schema is idempotent.
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func seedProject(t *testing.T, repo *ProjectRepository, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), &model.Project{
		ID: id, Name: "Project " + id, CreatedBy: "u1", CreatedAt: now, UpdatedAt: now,
	}))
}

func newTask(id, projectID string, parent *string, depth, order int) *model.Task {
	now := time.Now().UTC()
	return &model.Task{
		ID: id, ProjectID: projectID, ParentTaskID: parent, DepthLevel: depth,
		Title: "Task " + id, Status: model.StatusTodo, Priority: model.PriorityMedium,
		OrderIndex: order, CreatedBy: "u1", CreatedAt: now, UpdatedAt: now,
	}
}

func strPtr(s string) *string { return &s }

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)

	seedProject(t, projects, "p1")
	seedProject(t, projects, "p2")

	require.NoError(t, tasks.Create(ctx, newTask("a", "p1", nil, 0, 1)))
	require.NoError(t, tasks.Create(ctx, newTask("z", "p1", nil, 0, 0)))
	require.NoError(t, tasks.Create(ctx, newTask("b", "p1", strPtr("a"), 1, 0)))
	require.NoError(t, tasks.Create(ctx, newTask("c", "p1", strPtr("b"), 2, 0)))
	require.NoError(t, tasks.Create(ctx, newTask("other", "p2", nil, 0, 0)))

	t.Run("list orders by depth then order index", func(t *testing.T) {
		got, err := tasks.ListByProject(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, got, 4)
		require.Equal(t, []string{"z", "a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
		require.NotNil(t, got[2].ParentTaskID)
		require.Equal(t, "a", *got[2].ParentTaskID)
		require.Nil(t, got[0].ParentTaskID)
	})

	t.Run("get missing task", func(t *testing.T) {
		_, err := tasks.GetByID(ctx, "missing")
		require.ErrorIs(t, err, model.ErrTaskNotFound)
	})

	t.Run("update persists nullable fields", func(t *testing.T) {
		task, err := tasks.GetByID(ctx, "b")
		require.NoError(t, err)

		done := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
		task.Status = model.StatusDone
		task.CompletedAt = &done
		task.Description = strPtr("copy review")
		require.NoError(t, tasks.Update(ctx, task))

		got, err := tasks.GetByID(ctx, "b")
		require.NoError(t, err)
		require.Equal(t, model.StatusDone, got.Status)
		require.NotNil(t, got.CompletedAt)
		require.True(t, got.CompletedAt.Equal(done))
		require.Equal(t, "copy review", *got.Description)

		require.ErrorIs(t, tasks.Update(ctx, newTask("missing", "p1", nil, 0, 0)), model.ErrTaskNotFound)
	})

	t.Run("reorder is scoped to the project", func(t *testing.T) {
		reordered := time.Date(2026, time.October, 16, 20, 0, 0, 0, time.UTC)
		err := tasks.UpdateOrder(ctx, "p1", []model.OrderUpdate{
			{ID: "a", OrderIndex: 0},
			{ID: "z", OrderIndex: 1},
			{ID: "other", OrderIndex: 7},
		}, reordered)
		require.NoError(t, err)

		a, err := tasks.GetByID(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, 0, a.OrderIndex)
		require.True(t, a.UpdatedAt.Equal(reordered))

		other, err := tasks.GetByID(ctx, "other")
		require.NoError(t, err)
		require.Equal(t, 0, other.OrderIndex)
	})

	t.Run("delete cascades to descendants", func(t *testing.T) {
		require.NoError(t, tasks.Delete(ctx, "a"))

		got, err := tasks.ListByProject(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "z", got[0].ID)

		require.ErrorIs(t, tasks.Delete(ctx, "a"), model.ErrTaskNotFound)

		n, err := tasks.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
	})
}

func TestCommentRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProject(t, NewProjectRepository(db), "p1")
	comments := NewCommentRepository(db)

	now := time.Now().UTC()
	c := &model.Comment{ID: "c1", ProjectID: "p1", UserID: "u1", Content: "first", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, comments.Create(ctx, c))

	c.Content = "edited"
	require.NoError(t, comments.UpdateContent(ctx, c))

	list, err := comments.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "edited", list[0].Content)

	require.NoError(t, comments.Delete(ctx, "c1"))
	_, err = comments.GetByID(ctx, "c1")
	require.ErrorIs(t, err, model.ErrCommentNotFound)
}

func TestProviderRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	providers := NewProviderRepository(db)

	now := time.Now().UTC()
	require.NoError(t, providers.Create(ctx, &model.Provider{
		ID: "prov-1", Name: "Editorial Andina", TaxID: "900123456", CreatedAt: now, UpdatedAt: now,
	}))

	p, err := providers.GetByID(ctx, "prov-1")
	require.NoError(t, err)
	require.Equal(t, "900123456", p.TaxID)
	require.Nil(t, p.Email)

	_, err = providers.GetByID(ctx, "nope")
	require.ErrorIs(t, err, model.ErrProviderNotFound)

	inv := &model.Invoice{
		ID: "inv-1", ProviderID: "prov-1", Radicado: "FAC-20261016-ABC123", FileName: "factura.pdf",
		FileID: "file-1", CreatedBy: "u1", CreatedAt: now,
	}
	require.NoError(t, providers.CreateInvoice(ctx, inv))
	require.Error(t, providers.CreateInvoice(ctx, &model.Invoice{
		ID: "inv-2", ProviderID: "prov-1", Radicado: inv.Radicado, FileName: "dup.pdf",
		FileID: "file-2", CreatedBy: "u1", CreatedAt: now,
	}), "radicado must be unique")

	invoices, err := providers.ListInvoices(ctx, "prov-1")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Equal(t, "file-1", invoices[0].FileID)
}
