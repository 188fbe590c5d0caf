package drive

import (
	"regexp"
	"strings"
)

// Folder names of the provider layout.
const (
	RootFolderName      = "Proveedores"
	DocumentsFolderName = "Documentos"
	InvoicesFolderName  = "Facturas"
	MissingTaxID        = "SIN-NIT"
)

var disallowed = regexp.MustCompile(`[^a-zA-Z0-9áéíóúÁÉÍÓÚñÑüÜ ._-]`)

// SanitizeName strips characters outside letters, digits, space, period,
// underscore and hyphen, then trims surrounding spaces.
func SanitizeName(name string) string {
	return strings.TrimSpace(disallowed.ReplaceAllString(name, ""))
}

// FolderName returns the folder name of a provider: "{taxID}_{name}".
func FolderName(taxID, name string) string {
	taxID = strings.TrimSpace(taxID)
	if taxID == "" {
		taxID = MissingTaxID
	}
	return taxID + "_" + SanitizeName(name)
}
