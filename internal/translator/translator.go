// Package translator localizes user-facing messages. Spanish is the default
// language; English is also bundled.
package translator

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const (
	LanguageEs = "es"
	LanguageEn = "en"
)

//go:embed locales/*.toml
var locales embed.FS

// Translator resolves message keys against the bundled locales.
type Translator struct {
	bundle *i18n.Bundle
	logger *slog.Logger
}

// New loads the bundled locale files.
func New(logger *slog.Logger) (*Translator, error) {
	bundle := i18n.NewBundle(language.Spanish)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("failed to load locale %s: %w", f, err)
		}
	}
	return &Translator{bundle: bundle, logger: logger}, nil
}

// Message returns the text for key in the best language of acceptLanguage,
// an Accept-Language header value. Unknown keys come back unchanged.
func (t *Translator) Message(key, acceptLanguage string) string {
	l := i18n.NewLocalizer(t.bundle, acceptLanguage, LanguageEs)
	msg, err := l.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		t.logger.Warn("translation not found",
			slog.String("lang", acceptLanguage),
			slog.String("message_id", key),
			slog.Any("error", err),
		)
		return key
	}
	return msg
}

// Languages returns the tags the bundle can serve.
func (t *Translator) Languages() []language.Tag {
	return t.bundle.LanguageTags()
}
