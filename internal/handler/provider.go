package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fonnet/fonnetapp/internal/model"
	"github.com/fonnet/fonnetapp/internal/service"
	"github.com/fonnet/fonnetapp/internal/telemetry"
)

// MaxUploadSize bounds the multipart body of document and invoice uploads.
const MaxUploadSize = 32 << 20

// ProviderService covers providers and their stored files.
type ProviderService interface {
	CreateProvider(ctx context.Context, req *model.CreateProviderRequest) (*model.Provider, error)
	GetProvider(ctx context.Context, id string) (*model.Provider, error)
	ListProviders(ctx context.Context) ([]model.Provider, error)
	ProvisionFolders(ctx context.Context, providerID string) (*model.ProviderFolders, error)
	UploadDocument(ctx context.Context, providerID string, f service.FileUpload) (*model.UploadedFile, error)
	SubmitInvoice(ctx context.Context, providerID string, f service.FileUpload) (*model.Invoice, error)
	ListInvoices(ctx context.Context, providerID string) ([]model.Invoice, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// ProviderHandler handles HTTP requests for providers and their files.
type ProviderHandler struct {
	base
	svc ProviderService
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(svc ProviderService, logger *slog.Logger, metrics *telemetry.Metrics, translator Localizer) *ProviderHandler {
	return &ProviderHandler{
		base: base{logger: logger, metrics: metrics, translator: translator},
		svc:  svc,
	}
}

// Routes returns the chi router with provider routes.
func (h *ProviderHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/folders", h.ProvisionFolders)
	r.Post("/{id}/documents", h.UploadDocument)
	r.Get("/{id}/invoices", h.ListInvoices)
	r.Post("/{id}/invoices", h.SubmitInvoice)

	return r
}

// FileRoutes returns the chi router for stored files.
func (h *ProviderHandler) FileRoutes() chi.Router {
	r := chi.NewRouter()
	r.Delete("/{fileID}", h.DeleteFile)
	return r
}

// List returns all providers.
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	providers, err := h.svc.ListProviders(r.Context())
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, providers, start)
}

// Create registers a provider.
func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req model.CreateProviderRequest
	if !h.decode(w, r, start, &req) {
		return
	}

	p, err := h.svc.CreateProvider(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}

	h.logger.InfoContext(r.Context(), "provider created", slog.String("id", p.ID))
	h.ok(w, r, http.StatusCreated, p, start)
}

// GetByID returns a provider by ID.
func (h *ProviderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	p, err := h.svc.GetProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, p, start)
}

// ProvisionFolders ensures the provider's folders exist and returns their ids.
func (h *ProviderHandler) ProvisionFolders(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "ProviderHandler.ProvisionFolders",
		trace.WithAttributes(attribute.String("provider.id", id)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	folders, err := h.svc.ProvisionFolders(ctx, id)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	if folders.Degraded {
		h.metrics.RecordDegraded(ctx, "folders")
	}
	h.ok(w, r, http.StatusOK, folders, start)
}

// UploadDocument stores the multipart "file" in the provider's documents
// folder.
func (h *ProviderHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "ProviderHandler.UploadDocument",
		trace.WithAttributes(attribute.String("provider.id", id)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	f, cleanup, err := h.formFile(w, r)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	defer cleanup()

	up, err := h.svc.UploadDocument(ctx, id, f)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}

	h.metrics.RecordUpload(ctx, "document", up.Degraded)
	h.logger.InfoContext(ctx, "document uploaded",
		slog.String("provider_id", id),
		slog.String("file_id", up.ID),
		slog.Bool("degraded", up.Degraded),
	)
	h.ok(w, r, http.StatusCreated, up, start)
}

// SubmitInvoice files the multipart "file" as an invoice and returns its
// receipt.
func (h *ProviderHandler) SubmitInvoice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "ProviderHandler.SubmitInvoice",
		trace.WithAttributes(attribute.String("provider.id", id)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	f, cleanup, err := h.formFile(w, r)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	defer cleanup()

	inv, err := h.svc.SubmitInvoice(ctx, id, f)
	if err != nil {
		h.fail(w, r, err, start)
		return
	}

	h.metrics.RecordUpload(ctx, "invoice", false)
	h.logger.InfoContext(ctx, "invoice submitted",
		slog.String("provider_id", id),
		slog.String("radicado", inv.Radicado),
	)
	h.ok(w, r, http.StatusCreated, inv, start)
}

// ListInvoices returns the invoices of a provider.
func (h *ProviderHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	invoices, err := h.svc.ListInvoices(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, start)
		return
	}
	h.ok(w, r, http.StatusOK, invoices, start)
}

// DeleteFile removes a stored file.
func (h *ProviderHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	fileID := chi.URLParam(r, "fileID")

	if err := h.svc.DeleteFile(r.Context(), fileID); err != nil {
		h.fail(w, r, err, start)
		return
	}

	h.logger.InfoContext(r.Context(), "file deleted", slog.String("file_id", fileID))
	h.ok(w, r, http.StatusNoContent, nil, start)
}

// formFile extracts the "file" part of a multipart request.
func (h *ProviderHandler) formFile(w http.ResponseWriter, r *http.Request) (service.FileUpload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) && !errors.Is(err, http.ErrMissingFile) {
			h.logger.WarnContext(r.Context(), "invalid multipart body", slog.Any("error", err))
		}
		return service.FileUpload{}, func() {}, model.ErrFileRequired
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	cleanup := func() {
		_ = file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return service.FileUpload{Name: header.Filename, MimeType: mimeType, Content: file}, cleanup, nil
}
