//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: سلام\nwelcome_user: سلام %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got, want := translator.T("greeting"), "سلام"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got, want := translator.T("nonexistent_key"), "nonexistent_key"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got, want := translator.T("welcome_user", "Ali"), "سلام Ali"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})
}

func TestCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("hello: Hello")},
		"locales/fa.yaml": {Data: []byte("hello: سلام")},
	}
	c, err := NewCatalog(fsys, "en", "fa")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	cases := map[string]string{
		"":                     "Hello",
		"fa":                   "سلام",
		"fa-IR,fa;q=0.9,en;q=0.8": "سلام",
		"de-DE":                "Hello",
		"en-US,en;q=0.9":       "Hello",
		"!!garbage":            "Hello",
	}
	for header, want := range cases {
		if got := c.Message(header, "hello"); got != want {
			t.Errorf("Accept-Language %q: wanted %q, got %q", header, want, got)
		}
	}

	if _, err := NewCatalog(fsys, "en", "de"); err == nil {
		t.Fatalf("expected error for missing locale")
	}
}

func TestEmbeddedLocalesCoverEveryKey(t *testing.T) {
	c, err := NewCatalog(LocalesFS, "en", "fa")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	en := c.For("en")
	for key := range en.translations {
		if got := c.Message("fa", key); got == key {
			t.Errorf("fa is missing %q", key)
		}
	}
}
