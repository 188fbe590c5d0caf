package drive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/fonnet/fonnetapp/internal/model"
)

// spyStore counts calls and injects failures on top of a MemoryStore.
type spyStore struct {
	*MemoryStore
	finds          atomic.Int32
	creates        atomic.Int32
	failGrant      bool
	failFolderName string
	failUpload     bool
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: NewMemoryStore()}
}

func (s *spyStore) FindFolders(ctx context.Context, name, parentID string) ([]string, error) {
	s.finds.Add(1)
	return s.MemoryStore.FindFolders(ctx, name, parentID)
}

func (s *spyStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	s.creates.Add(1)
	if name == s.failFolderName {
		return "", errors.New("quota exceeded for drive api")
	}
	return s.MemoryStore.CreateFolder(ctx, name, parentID)
}

func (s *spyStore) CreateFile(ctx context.Context, f FileSpec) (*StoredFile, error) {
	if s.failUpload {
		return nil, errors.New("storage quota exceeded")
	}
	return s.MemoryStore.CreateFile(ctx, f)
}

func (s *spyStore) GrantPublicRead(ctx context.Context, id string) error {
	if s.failGrant {
		return errors.New("permission denied")
	}
	return s.MemoryStore.GrantPublicRead(ctx, id)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var acme = ProviderIdentity{ID: "prov-1", Name: "Ca$h & Co. S.A.S!", TaxID: "900123456"}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already clean", in: "Editorial Andina S.A.S", want: "Editorial Andina S.A.S"},
		{name: "strips symbols", in: "Ca$h & Co. S.A.S!", want: "Cah  Co. S.A.S"},
		{name: "keeps accents", in: "Papelería Ñandú_2024-b", want: "Papelería Ñandú_2024-b"},
		{name: "trims", in: "  ¡Hola!  ", want: "Hola"},
		{name: "only symbols", in: "$$$", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			got := SanitizeName(tt.in)
			is.Equal(got, tt.want)
			is.Equal(SanitizeName(got), got) // idempotent
		})
	}
}

func TestFolderName(t *testing.T) {
	is := is.New(t)
	is.Equal(FolderName("900123456", "Ca$h & Co. S.A.S!"), "900123456_Cah  Co. S.A.S")
	is.Equal(FolderName(" ", "Acme"), "SIN-NIT_Acme")
	is.Equal(FolderName("900123456", "Ca$h & Co. S.A.S!"), FolderName("900123456", "Ca$h & Co. S.A.S!"))
}

func TestGetOrCreateProviderFolders(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	store := newSpyStore()
	p := NewProvisioner(store, "root", discardLogger())

	first, err := p.GetOrCreateProviderFolders(ctx, acme)
	is.NoErr(err)
	is.Equal(store.creates.Load(), int32(4)) // Proveedores, provider, Documentos, Facturas
	is.True(!first.Degraded)

	own, ok := store.Get(first.ProviderFolderID)
	is.True(ok)
	is.Equal(own.Name, "900123456_Cah  Co. S.A.S")
	docs, _ := store.Get(first.DocumentsID)
	is.Equal(docs.Name, DocumentsFolderName)
	is.Equal(docs.ParentID, own.ID)
	is.True(docs.Public)
	invoices, _ := store.Get(first.InvoicesID)
	is.Equal(invoices.Name, InvoicesFolderName)

	second, err := p.GetOrCreateProviderFolders(ctx, acme)
	is.NoErr(err)
	is.Equal(second.DocumentsID, first.DocumentsID)
	is.Equal(second.InvoicesID, first.InvoicesID)
	is.Equal(store.creates.Load(), int32(4)) // lookups short-circuited creation
	is.Equal(store.Len(), 4)
}

func TestGetOrCreateProviderFolders_ReusesExistingRoot(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	store := newSpyStore()
	existing, err := store.MemoryStore.CreateFolder(ctx, RootFolderName, "root")
	is.NoErr(err)

	p := NewProvisioner(store, "root", discardLogger())
	folders, err := p.GetOrCreateProviderFolders(ctx, acme)
	is.NoErr(err)

	own, _ := store.Get(folders.ProviderFolderID)
	is.Equal(own.ParentID, existing)
	is.Equal(store.creates.Load(), int32(3))
}

func TestGetOrCreateProviderFolders_DegradedOnGrantFailure(t *testing.T) {
	is := is.New(t)
	store := newSpyStore()
	store.failGrant = true
	p := NewProvisioner(store, "root", discardLogger())

	folders, err := p.GetOrCreateProviderFolders(context.Background(), acme)
	is.NoErr(err) // grant failures never fail provisioning
	is.True(folders.Degraded)
}

func TestGetOrCreateProviderFolders_GenericFailure(t *testing.T) {
	is := is.New(t)
	store := newSpyStore()
	store.failFolderName = DocumentsFolderName
	p := NewProvisioner(store, "root", discardLogger())

	_, err := p.GetOrCreateProviderFolders(context.Background(), acme)
	is.True(errors.Is(err, model.ErrProvisioningFailed))
	is.True(!strings.Contains(err.Error(), "quota")) // store detail stays in the logs
}

func TestGetOrCreateFolder_Concurrent(t *testing.T) {
	is := is.New(t)
	store := newSpyStore()
	p := NewProvisioner(store, "root", discardLogger())

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := p.GetOrCreateFolder(context.Background(), "Proveedores", "root")
			if err == nil {
				ids[i] = f.ID
			}
		}(i)
	}
	wg.Wait()

	is.Equal(store.creates.Load(), int32(1))
	for _, id := range ids {
		is.Equal(id, ids[0])
	}
}

func TestGetOrCreateFolder_Cache(t *testing.T) {
	is := is.New(t)
	store := newSpyStore()
	p := NewProvisioner(store, "root", discardLogger(), WithFolderCache(16, time.Minute))

	a, err := p.GetOrCreateFolder(context.Background(), "Proveedores", "root")
	is.NoErr(err)
	finds := store.finds.Load()

	b, err := p.GetOrCreateFolder(context.Background(), "Proveedores", "root")
	is.NoErr(err)
	is.Equal(a.ID, b.ID)
	is.Equal(store.finds.Load(), finds)
}

func TestGetOrCreateDateFolder(t *testing.T) {
	is := is.New(t)
	store := newSpyStore()
	day := time.Date(2026, time.October, 6, 23, 30, 0, 0, time.Local)
	p := NewProvisioner(store, "root", discardLogger(), WithClock(func() time.Time { return day }))

	f, err := p.GetOrCreateDateFolder(context.Background(), "facturas")
	is.NoErr(err)
	node, _ := store.Get(f.ID)
	is.Equal(node.Name, "20261006")

	again, err := p.GetOrCreateDateFolder(context.Background(), "facturas")
	is.NoErr(err)
	is.Equal(again.ID, f.ID)
}

func TestUploadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and shares the file", func(t *testing.T) {
		is := is.New(t)
		store := newSpyStore()
		p := NewProvisioner(store, "root", discardLogger())

		up, err := p.UploadFile(ctx, Upload{Name: "rut.pdf", MimeType: "application/pdf", FolderID: "docs", Content: strings.NewReader("%PDF")})
		is.NoErr(err)
		is.True(up.WebViewLink != "")
		is.True(up.ContentLink != "")

		node, ok := store.Get(up.ID)
		is.True(ok)
		is.Equal(node.ParentID, "docs")
		is.Equal(string(node.Data), "%PDF")
		is.True(node.Public)
	})

	t.Run("grant failure is degraded, not fatal", func(t *testing.T) {
		is := is.New(t)
		store := newSpyStore()
		store.failGrant = true
		p := NewProvisioner(store, "root", discardLogger())

		up, err := p.UploadFile(ctx, Upload{Name: "a.pdf", FolderID: "docs", Content: strings.NewReader("x")})
		is.NoErr(err)
		is.True(up.Degraded)
	})

	t.Run("upload failure is propagated", func(t *testing.T) {
		is := is.New(t)
		store := newSpyStore()
		store.failUpload = true
		p := NewProvisioner(store, "root", discardLogger())

		_, err := p.UploadFile(ctx, Upload{Name: "a.pdf", FolderID: "docs", Content: strings.NewReader("x")})
		is.True(errors.Is(err, model.ErrUploadFailed))
	})
}

func TestDeleteFileAndCleanup(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	store := newSpyStore()
	p := NewProvisioner(store, "root", discardLogger())

	up, err := p.UploadFile(ctx, Upload{Name: "a.pdf", FolderID: "docs", Content: strings.NewReader("x")})
	is.NoErr(err)

	is.NoErr(p.DeleteFile(ctx, up.ID))
	_, ok := store.Get(up.ID)
	is.True(!ok)

	is.True(p.DeleteFile(ctx, up.ID) != nil)
	p.Cleanup(ctx, up.ID) // already gone: logged, not raised
}

// slowStore blocks the first folder lookup until release is closed and
// honours context cancellation like the Drive client does.
type slowStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowStore) FindFolders(ctx context.Context, name, parentID string) ([]string, error) {
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.MemoryStore.FindFolders(ctx, name, parentID)
}

func (s *slowStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, id)
}

func TestGetOrCreateFolder_SharedLookupOutlivesFirstCaller(t *testing.T) {
	is := is.New(t)
	store := &slowStore{MemoryStore: NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	p := NewProvisioner(store, "root", discardLogger())

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := p.GetOrCreateFolder(first, "Proveedores", "root")
		firstErr <- err
	}()
	<-store.entered

	type result struct {
		folder Folder
		err    error
	}
	second := make(chan result, 1)
	go func() {
		f, err := p.GetOrCreateFolder(context.Background(), "Proveedores", "root")
		second <- result{f, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	is.True(errors.Is(<-firstErr, context.Canceled))

	close(store.release)
	got := <-second
	is.NoErr(got.err)
	is.True(got.folder.ID != "")
	is.Equal(store.Len(), 1)
}

func TestCleanup_AfterRequestContextIsDone(t *testing.T) {
	is := is.New(t)
	store := &slowStore{MemoryStore: NewMemoryStore()}
	p := NewProvisioner(store, "root", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	up, err := p.UploadFile(ctx, Upload{Name: "factura.pdf", FolderID: "facturas", Content: strings.NewReader("%PDF")})
	is.NoErr(err)
	cancel()

	is.True(p.DeleteFile(ctx, up.ID) != nil) // the store refuses a done context
	p.Cleanup(ctx, up.ID)
	_, ok := store.Get(up.ID)
	is.True(!ok)
}

func TestMemoryStore_DeletePrunesOrder(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	store := NewMemoryStore()

	a, err := store.CreateFolder(ctx, "a", "root")
	is.NoErr(err)
	b, err := store.CreateFolder(ctx, "b", "root")
	is.NoErr(err)

	is.NoErr(store.Delete(ctx, a))
	is.Equal(store.order, []string{b})
	is.Equal(store.Len(), 1)
}
