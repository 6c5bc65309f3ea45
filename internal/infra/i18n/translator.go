package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var LocalesFS embed.FS

type Translator struct {
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := filepath.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	return newTranslatorFromBytes(data)
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T returns the translation for key, or key itself when missing.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Catalog picks a translator from an Accept-Language header.
type Catalog struct {
	translators []*Translator
	matcher     language.Matcher
}

// NewCatalog loads the given languages. The first one is the fallback.
func NewCatalog(fsys fs.FS, langs ...string) (*Catalog, error) {
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages given")
	}
	c := &Catalog{}
	tags := make([]language.Tag, 0, len(langs))
	for _, lang := range langs {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("language %q: %w", lang, err)
		}
		t, err := NewTranslator(fsys, lang)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
		c.translators = append(c.translators, t)
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// For returns the best translator for an Accept-Language value.
func (c *Catalog) For(acceptLanguage string) *Translator {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return c.translators[0]
	}
	_, idx, conf := c.matcher.Match(prefs...)
	if conf == language.No {
		return c.translators[0]
	}
	return c.translators[idx]
}

func (c *Catalog) Message(acceptLanguage, key string) string {
	return c.For(acceptLanguage).T(key)
}
