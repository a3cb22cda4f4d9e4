package localization_test

import (
	"os"
	"path/filepath"
	"testing"

	"civicledger/backend/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundled_FallsBackToEnglish(t *testing.T) {
	l, err := localization.Bundled()
	require.NoError(t, err)

	assert.Equal(t, "అవును", l.GetString("te", "yes"))
	assert.Equal(t, "Draft saved.", l.GetString("en", "draft_saved"))
	assert.Equal(t, l.GetString("en", "fraud_alert"), l.GetString("te", "fraud_alert"))
	assert.Equal(t, "no_such_key", l.GetString("te", "no_such_key"))
}

func TestLang(t *testing.T) {
	l, err := localization.Bundled()
	require.NoError(t, err)

	tests := []struct {
		in, want string
	}{
		{"", "en"},
		{"te", "te"},
		{"te-IN,en;q=0.8", "te"},
		{"fr-FR, te;q=0.5", "te"},
		{"de", "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Lang(tt.in), tt.in)
	}
}

func TestNewLocalizer_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"greeting":"Hello %s"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	l, err := localization.NewLocalizer(dir)
	require.NoError(t, err)

	assert.Equal(t, "Hello Ravi", l.Format("en", "greeting", "Ravi"))
}

func TestNewLocalizer_RequiresEnglish(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "te.json"), []byte(`{}`), 0o644))

	_, err := localization.NewLocalizer(dir)
	assert.Error(t, err)
}

func TestNewLocalizer_BadJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{`), 0o644))

	_, err := localization.NewLocalizer(dir)
	assert.Error(t, err)
}
