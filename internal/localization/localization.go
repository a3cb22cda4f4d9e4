// Package localization loads user-facing strings from JSON files, one file
// per language code (en.json, te.json). English is the fallback.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
)

// DefaultLanguage is used when a key is missing for the requested language.
const DefaultLanguage = "en"

//go:embed locales/*.json
var bundled embed.FS

// Localizer manages the translations for the application.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer loads every *.json file in dir. An empty dir loads the
// translations bundled with the binary.
func NewLocalizer(dir string) (*Localizer, error) {
	if dir == "" {
		return Bundled()
	}
	return load(os.DirFS(dir), ".")
}

// Bundled returns the translations compiled into the binary.
func Bundled() (*Localizer, error) {
	return load(bundled, "locales")
}

func load(fsys fs.FS, dir string) (*Localizer, error) {
	l := &Localizer{translations: make(map[string]map[string]string)}

	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}
		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}
		l.translations[strings.TrimSuffix(file.Name(), ".json")] = translations
	}

	if _, ok := l.translations[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("localization: %s.json is required", DefaultLanguage)
	}
	return l, nil
}

// Lang reduces an Accept-Language header or Telegram language code to a
// loaded language, falling back to English.
func (l *Localizer) Lang(code string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, part := range strings.Split(code, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		tag = strings.SplitN(tag, "-", 2)[0]
		if _, ok := l.translations[tag]; ok {
			return tag
		}
	}
	return DefaultLanguage
}

// GetString returns the string for key in lang, then in English, then the
// key itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if value, ok := l.translations[lang][key]; ok {
		return value
	}
	if value, ok := l.translations[DefaultLanguage][key]; ok {
		return value
	}
	return key
}

// Format is GetString followed by fmt.Sprintf.
func (l *Localizer) Format(lang, key string, args ...interface{}) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}
