package model

import (
	"strings"
	"time"
)

// Provider is an external business entity (vendor or client).
type Provider struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	TaxID     string    `json:"tax_id" db:"tax_id"`
	Email     *string   `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateProviderRequest represents the request body for registering a provider.
type CreateProviderRequest struct {
	Name  string  `json:"name"`
	TaxID string  `json:"tax_id"`
	Email *string `json:"email,omitempty"`
}

// Validate checks if the CreateProviderRequest is valid.
func (r *CreateProviderRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// ProviderFolders holds the folder ids provisioned for a provider.
// Degraded is set when a public-read grant could not be applied.
type ProviderFolders struct {
	ProviderFolderID string `json:"provider_folder_id"`
	DocumentsID      string `json:"documents_folder_id"`
	InvoicesID       string `json:"invoices_folder_id"`
	Degraded         bool   `json:"degraded"`
}

// UploadedFile is the handle of an object placed in the document store.
type UploadedFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WebViewLink string `json:"web_view_link"`
	ContentLink string `json:"content_link"`
	Degraded    bool   `json:"degraded"`
}

// Invoice records an invoice file submitted by a provider.
type Invoice struct {
	ID          string    `json:"id" db:"id"`
	ProviderID  string    `json:"provider_id" db:"provider_id"`
	Radicado    string    `json:"radicado" db:"radicado"`
	FileName    string    `json:"file_name" db:"file_name"`
	FileID      string    `json:"file_id" db:"file_id"`
	WebViewLink string    `json:"web_view_link" db:"web_view_link"`
	ContentLink string    `json:"content_link" db:"content_link"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
