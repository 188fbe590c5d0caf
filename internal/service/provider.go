package service

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fonnet/fonnetapp/internal/auth"
	"github.com/fonnet/fonnetapp/internal/drive"
	"github.com/fonnet/fonnetapp/internal/mail"
	"github.com/fonnet/fonnetapp/internal/model"
)

// ProviderStore is the persistence for providers and invoices.
type ProviderStore interface {
	Create(ctx context.Context, p *model.Provider) error
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	List(ctx context.Context) ([]model.Provider, error)
	CreateInvoice(ctx context.Context, inv *model.Invoice) error
	ListInvoices(ctx context.Context, providerID string) ([]model.Invoice, error)
}

// FolderProvisioner is the document-store side of provider operations.
type FolderProvisioner interface {
	GetOrCreateProviderFolders(ctx context.Context, provider drive.ProviderIdentity) (*model.ProviderFolders, error)
	GetOrCreateDateFolder(ctx context.Context, parentID string) (drive.Folder, error)
	UploadFile(ctx context.Context, u drive.Upload) (*model.UploadedFile, error)
	DeleteFile(ctx context.Context, fileID string) error
	Cleanup(ctx context.Context, fileID string)
}

// FileUpload is a file received from a client.
type FileUpload struct {
	Name     string
	MimeType string
	Content  io.Reader
}

var invoiceMail = template.Must(template.New("invoice").Parse(
	`<p>Se recibió una nueva factura de <strong>{{.Provider.Name}}</strong> (NIT {{.TaxID}}).</p>
<p>Radicado: <strong>{{.Invoice.Radicado}}</strong><br>
Archivo: <a href="{{.Invoice.WebViewLink}}">{{.Invoice.FileName}}</a></p>`))

// ProviderService manages providers, their folders, documents and invoices.
type ProviderService struct {
	providers ProviderStore
	folders   FolderProvisioner
	mailer    mail.Sender
	notifyTo  []string
	logger    *slog.Logger
	now       func() time.Time
}

// NewProviderService creates a new ProviderService. notifyTo receives a copy
// of every invoice notification.
func NewProviderService(providers ProviderStore, folders FolderProvisioner, mailer mail.Sender, notifyTo []string, logger *slog.Logger, opts ...Option) *ProviderService {
	o := buildOptions(opts)
	return &ProviderService{
		providers: providers,
		folders:   folders,
		mailer:    mailer,
		notifyTo:  notifyTo,
		logger:    logger,
		now:       o.now,
	}
}

// CreateProvider registers a provider.
func (s *ProviderService) CreateProvider(ctx context.Context, req *model.CreateProviderRequest) (*model.Provider, error) {
	if _, ok := auth.ActorFromContext(ctx); !ok {
		return nil, model.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &model.Provider{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		TaxID:     strings.TrimSpace(req.TaxID),
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.providers.Create(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to create provider", slog.Any("error", err))
		return nil, err
	}
	return p, nil
}

// GetProvider returns a provider.
func (s *ProviderService) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	return s.providers.GetByID(ctx, id)
}

// ListProviders returns every provider.
func (s *ProviderService) ListProviders(ctx context.Context) ([]model.Provider, error) {
	return s.providers.List(ctx)
}

// ProvisionFolders ensures the provider's folder layout exists.
func (s *ProviderService) ProvisionFolders(ctx context.Context, providerID string) (*model.ProviderFolders, error) {
	ctx, span := tracer.Start(ctx, "ProviderService.ProvisionFolders",
		trace.WithAttributes(attribute.String("provider.id", providerID)),
	)
	defer span.End()

	p, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return s.folders.GetOrCreateProviderFolders(ctx, identity(p))
}

// UploadDocument stores a file in the provider's documents folder.
func (s *ProviderService) UploadDocument(ctx context.Context, providerID string, f FileUpload) (*model.UploadedFile, error) {
	ctx, span := tracer.Start(ctx, "ProviderService.UploadDocument",
		trace.WithAttributes(attribute.String("provider.id", providerID), attribute.String("file.name", f.Name)),
	)
	defer span.End()

	if _, ok := auth.ActorFromContext(ctx); !ok {
		return nil, model.ErrUnauthenticated
	}
	folders, err := s.ProvisionFolders(ctx, providerID)
	if err != nil {
		return nil, err
	}

	up, err := s.folders.UploadFile(ctx, drive.Upload{
		Name:     f.Name,
		MimeType: f.MimeType,
		FolderID: folders.DocumentsID,
		Content:  f.Content,
	})
	if err != nil {
		return nil, err
	}
	up.Degraded = up.Degraded || folders.Degraded
	return up, nil
}

// SubmitInvoice uploads an invoice into today's folder under "Facturas" and
// records it. If the record cannot be written the upload is removed again.
func (s *ProviderService) SubmitInvoice(ctx context.Context, providerID string, f FileUpload) (*model.Invoice, error) {
	ctx, span := tracer.Start(ctx, "ProviderService.SubmitInvoice",
		trace.WithAttributes(attribute.String("provider.id", providerID), attribute.String("file.name", f.Name)),
	)
	defer span.End()

	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	p, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	folders, err := s.folders.GetOrCreateProviderFolders(ctx, identity(p))
	if err != nil {
		return nil, err
	}
	day, err := s.folders.GetOrCreateDateFolder(ctx, folders.InvoicesID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve invoice date folder", slog.Any("error", err))
		return nil, model.ErrProvisioningFailed
	}

	up, err := s.folders.UploadFile(ctx, drive.Upload{
		Name:     f.Name,
		MimeType: f.MimeType,
		FolderID: day.ID,
		Content:  f.Content,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &model.Invoice{
		ID:          uuid.New().String(),
		ProviderID:  p.ID,
		Radicado:    NewRadicado(now),
		FileName:    f.Name,
		FileID:      up.ID,
		WebViewLink: up.WebViewLink,
		ContentLink: up.ContentLink,
		CreatedBy:   actor,
		CreatedAt:   now.UTC(),
	}
	if err := s.providers.CreateInvoice(ctx, inv); err != nil {
		s.logger.ErrorContext(ctx, "failed to record invoice, removing upload",
			slog.String("file_id", up.ID),
			slog.Any("error", err),
		)
		s.folders.Cleanup(ctx, up.ID)
		return nil, err
	}

	span.SetAttributes(attribute.String("invoice.radicado", inv.Radicado))
	s.notifyInvoice(ctx, p, inv)
	return inv, nil
}

// ListInvoices returns a provider's invoices.
func (s *ProviderService) ListInvoices(ctx context.Context, providerID string) ([]model.Invoice, error) {
	if _, err := s.providers.GetByID(ctx, providerID); err != nil {
		return nil, err
	}
	return s.providers.ListInvoices(ctx, providerID)
}

// DeleteFile removes a file from the document store.
func (s *ProviderService) DeleteFile(ctx context.Context, fileID string) error {
	if _, ok := auth.ActorFromContext(ctx); !ok {
		return model.ErrUnauthenticated
	}
	if err := s.folders.DeleteFile(ctx, fileID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete file", slog.String("file_id", fileID), slog.Any("error", err))
		return err
	}
	return nil
}

// NewRadicado returns a receipt number like FAC-20261016-3F9A1C.
func NewRadicado(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return "FAC-" + t.Format("20060102") + "-" + suffix
}

func (s *ProviderService) notifyInvoice(ctx context.Context, p *model.Provider, inv *model.Invoice) {
	to := append([]string{}, s.notifyTo...)
	if p.Email != nil && *p.Email != "" {
		to = append(to, *p.Email)
	}
	if len(to) == 0 || s.mailer == nil {
		return
	}

	taxID := p.TaxID
	if taxID == "" {
		taxID = drive.MissingTaxID
	}
	var body bytes.Buffer
	if err := invoiceMail.Execute(&body, map[string]any{"Provider": p, "Invoice": inv, "TaxID": taxID}); err != nil {
		s.logger.ErrorContext(ctx, "failed to render invoice email", slog.Any("error", err))
		return
	}

	err := s.mailer.Send(ctx, mail.Message{
		To:      to,
		Subject: "Factura radicada " + inv.Radicado,
		HTML:    body.String(),
		Text:    "Factura de " + p.Name + " radicada con número " + inv.Radicado,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to send invoice notification",
			slog.String("radicado", inv.Radicado),
			slog.Any("error", err),
		)
	}
}

func identity(p *model.Provider) drive.ProviderIdentity {
	return drive.ProviderIdentity{ID: p.ID, Name: p.Name, TaxID: p.TaxID}
}
