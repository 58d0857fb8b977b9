package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var localeFiles = []string{
	"locales/active.en.json",
	"locales/active.id.json",
}

type langKey struct{}

type Translator struct {
	bundle   *goi18n.Bundle
	fallback string
}

// New loads the embedded catalogs. fallback is used when a request carries no
// language or one without a catalog.
func New(fallback string) (*Translator, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, f := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(fallback) == "" {
		fallback = language.English.String()
	}
	return &Translator{bundle: bundle, fallback: fallback}, nil
}

// Localize renders messageID in the first matching language of langs (each may
// be an Accept-Language header). Unknown ids are returned unchanged.
func (t *Translator) Localize(messageID string, data map[string]any, langs ...string) string {
	if t == nil {
		return messageID
	}
	langs = append(langs, t.fallback)
	loc := goi18n.NewLocalizer(t.bundle, langs...)
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

func LanguageFrom(ctx context.Context) string {
	if v, ok := ctx.Value(langKey{}).(string); ok {
		return v
	}
	return ""
}
