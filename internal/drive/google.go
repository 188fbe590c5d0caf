package drive

import (
	"context"
	"fmt"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleDrive is a Store backed by the Google Drive v3 API. When a shared
// drive id is set, queries are scoped to that drive; uploads must land in a
// shared drive because service accounts have no personal storage quota.
type GoogleDrive struct {
	files         *gdrive.FilesService
	permissions   *gdrive.PermissionsService
	sharedDriveID string
}

// NewGoogleDrive authenticates with a service account credentials file.
func NewGoogleDrive(ctx context.Context, credentialsFile, sharedDriveID string) (*GoogleDrive, error) {
	svc, err := gdrive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gdrive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &GoogleDrive{
		files:         svc.Files,
		permissions:   svc.Permissions,
		sharedDriveID: sharedDriveID,
	}, nil
}

// FindFolders implements Store.
func (g *GoogleDrive) FindFolders(ctx context.Context, name, parentID string) ([]string, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), escapeQuery(parentID), FolderMimeType)

	call := g.files.List().
		Q(q).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx)
	if g.sharedDriveID != "" {
		call = call.Corpora("drive").DriveId(g.sharedDriveID)
	}

	res, err := call.Do()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		ids = append(ids, f.Id)
	}
	return ids, nil
}

// CreateFolder implements Store.
func (g *GoogleDrive) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	f, err := g.files.Create(&gdrive.File{
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  []string{parentID},
	}).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

// CreateFile implements Store.
func (g *GoogleDrive) CreateFile(ctx context.Context, file FileSpec) (*StoredFile, error) {
	f, err := g.files.Create(&gdrive.File{
		Name:     file.Name,
		MimeType: file.MimeType,
		Parents:  []string{file.ParentID},
	}).
		Media(file.Content, googleapi.ContentType(file.MimeType)).
		Fields("id, webViewLink, webContentLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return &StoredFile{ID: f.Id, WebViewLink: f.WebViewLink, ContentLink: f.WebContentLink}, nil
}

// GrantPublicRead implements Store.
func (g *GoogleDrive) GrantPublicRead(ctx context.Context, id string) error {
	_, err := g.permissions.Create(id, &gdrive.Permission{Type: "anyone", Role: "reader"}).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	return err
}

// Delete implements Store.
func (g *GoogleDrive) Delete(ctx context.Context, id string) error {
	return g.files.Delete(id).SupportsAllDrives(true).Context(ctx).Do()
}

// escapeQuery escapes a value embedded in a Drive query string literal.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
