package i18n_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirecircle/internal/pkg/i18n"
)

func TestLoadEmbedded(t *testing.T) {
	require.NoError(t, i18n.LoadEmbedded())

	assert.Equal(t, "New application", i18n.Translate("en", "APPLICATION_RECEIVED_TITLE"))
	assert.Equal(t, "Lamaran baru", i18n.Translate("id", "APPLICATION_RECEIVED_TITLE"))

	// Missing in id, present in en.
	assert.Equal(t, "Application update", i18n.Translate("id", "EMAIL_STATUS_TITLE"))

	assert.Equal(t, "NON_EXISTENT_KEY", i18n.Translate("id", "NON_EXISTENT_KEY"))
}

func TestFormat(t *testing.T) {
	require.NoError(t, i18n.LoadEmbedded())

	got := i18n.Format("en", "APPLICATION_RECEIVED_MESSAGE", map[string]string{
		"applicant": "Jane Doe",
		"job":       "Backend Engineer",
	})
	assert.Equal(t, "Jane Doe applied for Backend Engineer", got)
}

func TestLoadTranslations_InvalidYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"catalogs/xx/messages.yaml": {Data: []byte("MESSAGES: [unterminated")},
	}

	err := i18n.LoadTranslations(fsys, "catalogs")
	assert.Error(t, err)
}

func TestLoadTranslations_SkipsLocaleWithoutMessages(t *testing.T) {
	fsys := fstest.MapFS{
		"catalogs/fr/other.yaml":    {Data: []byte("x: y")},
		"catalogs/de/messages.yaml": {Data: []byte("MESSAGES:\n  HELLO: Hallo\n")},
	}

	require.NoError(t, i18n.LoadTranslations(fsys, "catalogs"))
	assert.Equal(t, "Hallo", i18n.Translate("de", "HELLO"))
}
