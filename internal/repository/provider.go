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

// ProviderRepository stores providers and their invoices.
type ProviderRepository struct {
	db *sqlx.DB
}

// NewProviderRepository creates a new ProviderRepository.
func NewProviderRepository(db *sqlx.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// Create inserts a new provider.
func (r *ProviderRepository) Create(ctx context.Context, p *model.Provider) error {
	ctx, span := tracer.Start(ctx, "ProviderRepository.Create",
		trace.WithAttributes(attribute.String("provider.id", p.ID)),
	)
	defer span.End()

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO providers (id, name, tax_id, email, created_at, updated_at)
		VALUES (:id, :name, :tax_id, :email, :created_at, :updated_at)`, p)
	if err != nil {
		return fmt.Errorf("insert provider: %w", err)
	}
	return nil
}

// GetByID retrieves a provider by its ID.
func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*model.Provider, error) {
	ctx, span := tracer.Start(ctx, "ProviderRepository.GetByID",
		trace.WithAttributes(attribute.String("provider.id", id)),
	)
	defer span.End()

	var p model.Provider
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT id, name, tax_id, email, created_at, updated_at
		FROM providers WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get provider %s: %w", id, err)
	}
	return &p, nil
}

// List returns all providers ordered by name.
func (r *ProviderRepository) List(ctx context.Context) ([]model.Provider, error) {
	ctx, span := tracer.Start(ctx, "ProviderRepository.List")
	defer span.End()

	providers := []model.Provider{}
	err := r.db.SelectContext(ctx, &providers, `SELECT id, name, tax_id, email, created_at, updated_at
		FROM providers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return providers, nil
}

// CreateInvoice inserts an invoice record.
func (r *ProviderRepository) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	ctx, span := tracer.Start(ctx, "ProviderRepository.CreateInvoice",
		trace.WithAttributes(
			attribute.String("provider.id", inv.ProviderID),
			attribute.String("invoice.radicado", inv.Radicado),
		),
	)
	defer span.End()

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO invoices
		(id, provider_id, radicado, file_name, file_id, web_view_link, content_link, created_by, created_at)
		VALUES (:id, :provider_id, :radicado, :file_name, :file_id, :web_view_link, :content_link, :created_by, :created_at)`, inv)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// ListInvoices returns a provider's invoices, newest first.
func (r *ProviderRepository) ListInvoices(ctx context.Context, providerID string) ([]model.Invoice, error) {
	ctx, span := tracer.Start(ctx, "ProviderRepository.ListInvoices",
		trace.WithAttributes(attribute.String("provider.id", providerID)),
	)
	defer span.End()

	invoices := []model.Invoice{}
	err := r.db.SelectContext(ctx, &invoices, r.db.Rebind(`SELECT id, provider_id, radicado, file_name, file_id,
		web_view_link, content_link, created_by, created_at
		FROM invoices WHERE provider_id = ? ORDER BY created_at DESC`), providerID)
	if err != nil {
		return nil, fmt.Errorf("list invoices of provider %s: %w", providerID, err)
	}
	return invoices, nil
}
