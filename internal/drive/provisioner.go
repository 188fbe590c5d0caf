package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/fonnet/fonnetapp/internal/model"
)

var tracer = otel.Tracer("github.com/fonnet/fonnetapp/internal/drive")

const (
	// lookupTimeout bounds a shared folder lookup, which no longer follows
	// the context of the caller that started it.
	lookupTimeout = 30 * time.Second
	// cleanupTimeout bounds a compensating delete.
	cleanupTimeout = 15 * time.Second
)

// Folder is a resolved folder. Degraded is set when the folder was created
// but the public-read grant failed.
type Folder struct {
	ID       string
	Created  bool
	Degraded bool
}

// Upload describes a file to place in a folder.
type Upload struct {
	Name     string
	MimeType string
	FolderID string
	Content  io.Reader
}

// ProviderIdentity is the part of a provider the folder layout is keyed on.
type ProviderIdentity struct {
	ID    string
	Name  string
	TaxID string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithClock overrides the time source used for date folders.
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) { p.now = now }
}

// WithFolderCache remembers resolved folder ids for ttl, so repeated
// provisioning of the same provider skips the store lookups.
func WithFolderCache(size int, ttl time.Duration) Option {
	return func(p *Provisioner) {
		if size > 0 && ttl > 0 {
			p.cache = expirable.NewLRU[string, string](size, nil, ttl)
		}
	}
}

// Provisioner keeps the canonical provider folder layout in a Store.
type Provisioner struct {
	store  Store
	rootID string
	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group
	cache  *expirable.LRU[string, string]
}

// NewProvisioner creates a Provisioner rooted at rootID.
func NewProvisioner(store Store, rootID string, logger *slog.Logger, opts ...Option) *Provisioner {
	p := &Provisioner{
		store:  store,
		rootID: rootID,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindFolder returns the id of the first folder named name under parentID.
func (p *Provisioner) FindFolder(ctx context.Context, name, parentID string) (string, bool, error) {
	ctx, span := tracer.Start(ctx, "Provisioner.FindFolder",
		trace.WithAttributes(attribute.String("folder.name", name), attribute.String("folder.parent", parentID)),
	)
	defer span.End()

	ids, err := p.store.FindFolders(ctx, name, parentID)
	if err != nil {
		return "", false, fmt.Errorf("find folder %q: %w", name, err)
	}
	span.SetAttributes(attribute.Int("folder.matches", len(ids)))
	if len(ids) == 0 {
		return "", false, nil
	}
	return ids[0], true, nil
}

// CreateFolder creates a folder and grants public read on a best-effort basis.
func (p *Provisioner) CreateFolder(ctx context.Context, name, parentID string) (Folder, error) {
	ctx, span := tracer.Start(ctx, "Provisioner.CreateFolder",
		trace.WithAttributes(attribute.String("folder.name", name), attribute.String("folder.parent", parentID)),
	)
	defer span.End()

	id, err := p.store.CreateFolder(ctx, name, parentID)
	if err != nil {
		return Folder{}, fmt.Errorf("create folder %q: %w", name, err)
	}
	p.logger.InfoContext(ctx, "folder created", slog.String("name", name), slog.String("id", id))

	return Folder{ID: id, Created: true, Degraded: !p.grantPublicRead(ctx, id)}, nil
}

// GetOrCreateFolder returns the folder named name under parentID, creating
// it when missing. Concurrent calls for the same folder share one lookup.
func (p *Provisioner) GetOrCreateFolder(ctx context.Context, name, parentID string) (Folder, error) {
	key := parentID + "/" + name
	if p.cache != nil {
		if id, ok := p.cache.Get(key); ok {
			return Folder{ID: id}, nil
		}
	}

	ch := p.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		id, found, err := p.FindFolder(ctx, name, parentID)
		if err != nil {
			return Folder{}, err
		}
		if found {
			return Folder{ID: id}, nil
		}
		return p.CreateFolder(ctx, name, parentID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return Folder{}, ctx.Err()
	}
	if res.Err != nil {
		return Folder{}, res.Err
	}

	folder := res.Val.(Folder)
	if p.cache != nil {
		p.cache.Add(key, folder.ID)
	}
	return folder, nil
}

// GetOrCreateProviderFolders ensures Proveedores/{taxID}_{name}/{Documentos,Facturas}
// exists. Failures are logged with their cause and reported as
// model.ErrProvisioningFailed.
func (p *Provisioner) GetOrCreateProviderFolders(ctx context.Context, provider ProviderIdentity) (*model.ProviderFolders, error) {
	ctx, span := tracer.Start(ctx, "Provisioner.GetOrCreateProviderFolders",
		trace.WithAttributes(attribute.String("provider.id", provider.ID)),
	)
	defer span.End()

	result, err := p.provision(ctx, provider)
	if err != nil {
		span.RecordError(err)
		p.logger.ErrorContext(ctx, "failed to provision provider folders",
			slog.String("provider_id", provider.ID),
			slog.Any("error", err),
		)
		return nil, model.ErrProvisioningFailed
	}
	return result, nil
}

func (p *Provisioner) provision(ctx context.Context, provider ProviderIdentity) (*model.ProviderFolders, error) {
	root, err := p.GetOrCreateFolder(ctx, RootFolderName, p.rootID)
	if err != nil {
		return nil, err
	}
	own, err := p.GetOrCreateFolder(ctx, FolderName(provider.TaxID, provider.Name), root.ID)
	if err != nil {
		return nil, err
	}
	docs, err := p.GetOrCreateFolder(ctx, DocumentsFolderName, own.ID)
	if err != nil {
		return nil, err
	}
	invoices, err := p.GetOrCreateFolder(ctx, InvoicesFolderName, own.ID)
	if err != nil {
		return nil, err
	}

	return &model.ProviderFolders{
		ProviderFolderID: own.ID,
		DocumentsID:      docs.ID,
		InvoicesID:       invoices.ID,
		Degraded:         root.Degraded || own.Degraded || docs.Degraded || invoices.Degraded,
	}, nil
}

// DateFolderName names the folder of a day: YYYYMMDD in the server's zone.
func DateFolderName(t time.Time) string {
	return t.Local().Format("20060102")
}

// GetOrCreateDateFolder returns today's folder under parentID.
func (p *Provisioner) GetOrCreateDateFolder(ctx context.Context, parentID string) (Folder, error) {
	return p.GetOrCreateFolder(ctx, DateFolderName(p.now()), parentID)
}

// UploadFile places a file in a folder and grants public read on a
// best-effort basis. A failed upload is returned as model.ErrUploadFailed.
func (p *Provisioner) UploadFile(ctx context.Context, u Upload) (*model.UploadedFile, error) {
	ctx, span := tracer.Start(ctx, "Provisioner.UploadFile",
		trace.WithAttributes(attribute.String("file.name", u.Name), attribute.String("folder.id", u.FolderID)),
	)
	defer span.End()

	stored, err := p.store.CreateFile(ctx, FileSpec{
		Name:     u.Name,
		MimeType: u.MimeType,
		ParentID: u.FolderID,
		Content:  u.Content,
	})
	if err != nil {
		span.RecordError(err)
		p.logger.ErrorContext(ctx, "failed to upload file", slog.String("name", u.Name), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", model.ErrUploadFailed, err)
	}

	p.logger.InfoContext(ctx, "file uploaded", slog.String("name", u.Name), slog.String("id", stored.ID))
	return &model.UploadedFile{
		ID:          stored.ID,
		Name:        u.Name,
		WebViewLink: stored.WebViewLink,
		ContentLink: stored.ContentLink,
		Degraded:    !p.grantPublicRead(ctx, stored.ID),
	}, nil
}

// DeleteFile removes a file.
func (p *Provisioner) DeleteFile(ctx context.Context, fileID string) error {
	ctx, span := tracer.Start(ctx, "Provisioner.DeleteFile",
		trace.WithAttributes(attribute.String("file.id", fileID)),
	)
	defer span.End()

	if err := p.store.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	return nil
}

// Cleanup deletes a file uploaded ahead of a write that then failed. It runs
// even when ctx is already done. Errors are logged only.
func (p *Provisioner) Cleanup(ctx context.Context, fileID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := p.DeleteFile(ctx, fileID); err != nil {
		p.logger.ErrorContext(ctx, "failed to clean up uploaded file",
			slog.String("file_id", fileID),
			slog.Any("error", err),
		)
		return
	}
	p.logger.InfoContext(ctx, "uploaded file cleaned up", slog.String("file_id", fileID))
}

func (p *Provisioner) grantPublicRead(ctx context.Context, id string) bool {
	if err := p.store.GrantPublicRead(ctx, id); err != nil {
		p.logger.WarnContext(ctx, "failed to grant public read",
			slog.String("id", id),
			slog.Any("error", err),
		)
		return false
	}
	return true
}
