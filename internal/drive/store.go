// Package drive provisions the provider folder layout in the external
// document store and places files inside it.
package drive

import (
	"context"
	"io"
)

// FolderMimeType marks folder nodes in the document store.
const FolderMimeType = "application/vnd.google-apps.folder"

// Store is the narrow contract of the hierarchical document store.
type Store interface {
	// FindFolders lists non-trashed folders named exactly name directly under parentID.
	FindFolders(ctx context.Context, name, parentID string) ([]string, error)
	// CreateFolder creates a folder under parentID and returns its id.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	// CreateFile stores content under parentID.
	CreateFile(ctx context.Context, f FileSpec) (*StoredFile, error)
	// GrantPublicRead lets anyone with the link read the object.
	GrantPublicRead(ctx context.Context, id string) error
	// Delete removes an object by id.
	Delete(ctx context.Context, id string) error
}

// FileSpec describes an object to create.
type FileSpec struct {
	Name     string
	MimeType string
	ParentID string
	Content  io.Reader
}

// StoredFile is what the store returns after creating an object.
type StoredFile struct {
	ID          string
	WebViewLink string
	ContentLink string
}
