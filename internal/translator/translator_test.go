package translator_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fonnet/fonnetapp/internal/model"
	"github.com/fonnet/fonnetapp/internal/translator"
)

func newTranslator(t *testing.T) *translator.Translator {
	t.Helper()
	tr, err := translator.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return tr
}

func TestMessage_Languages(t *testing.T) {
	tr := newTranslator(t)

	require.Equal(t, "Tarea no encontrada.", tr.Message("taskNotFound", ""))
	require.Equal(t, "Tarea no encontrada.", tr.Message("taskNotFound", "es-CO,es;q=0.9"))
	require.Equal(t, "Task not found.", tr.Message("taskNotFound", "en-US,en;q=0.8"))
	require.Equal(t, "Tarea no encontrada.", tr.Message("taskNotFound", "de-DE"))
	require.Len(t, tr.Languages(), 2)
}

func TestMessage_UnknownKey(t *testing.T) {
	tr := newTranslator(t)
	require.Equal(t, "noSuchKey", tr.Message("noSuchKey", "en"))
}

func TestMessage_CoversDomainErrors(t *testing.T) {
	tr := newTranslator(t)

	for _, e := range []model.Error{
		model.ErrUnauthenticated, model.ErrForbidden,
		model.ErrProjectNotFound, model.ErrTaskNotFound, model.ErrParentNotFound,
		model.ErrCommentNotFound, model.ErrProviderNotFound,
		model.ErrTitleRequired, model.ErrNameRequired, model.ErrContentRequired, model.ErrFileRequired,
		model.ErrInvalidStatus, model.ErrInvalidPriority,
		model.ErrParentProjectMismatch, model.ErrDepthMismatch, model.ErrDepthLimitExceeded,
		model.ErrProvisioningFailed, model.ErrUploadFailed,
	} {
		for _, lang := range []string{translator.LanguageEs, translator.LanguageEn} {
			require.NotEqual(t, e.Key, tr.Message(e.Key, lang), "missing %s translation for %s", lang, e.Key)
		}
	}
}
