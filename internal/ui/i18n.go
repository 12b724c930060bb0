package ui

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/life-countdown/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	localeDir    = "locales"
	localePrefix = "active."
	localeSuffix = ".json"
)

// NewBundle loads every embedded locale file and returns the bundle together
// with the language codes it found, in directory order.
func NewBundle() (*i18n.Bundle, []string) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir(localeDir)
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return bundle, nil
	}

	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, localePrefix) || !strings.HasSuffix(name, localeSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		code := strings.TrimSuffix(strings.TrimPrefix(name, localePrefix), localeSuffix)
		if code == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, localeDir+"/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		langs = append(langs, code)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, code,
		)
	}
	return bundle, langs
}

// Translator resolves message IDs for one language. The zero value returns keys unchanged.
type Translator struct {
	localizer *i18n.Localizer
}

// NewTranslator creates a translator for lang, falling back to the bundle default.
func NewTranslator(bundle *i18n.Bundle, lang string) *Translator {
	if bundle == nil {
		return &Translator{}
	}
	if lang == "" {
		lang = config.DefaultLanguage
	}
	return &Translator{localizer: i18n.NewLocalizer(bundle, lang)}
}

// Msg translates key, returning the key itself when no translation exists.
func (t *Translator) Msg(key string) string {
	return t.MsgWith(key, nil)
}

// MsgWith translates key with template data.
func (t *Translator) MsgWith(key string, data map[string]any) string {
	if t == nil || t.localizer == nil {
		return key
	}
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// MsgOr translates key, returning fallback when no translation exists.
func (t *Translator) MsgOr(key, fallback string, data map[string]any) string {
	if msg := t.MsgWith(key, data); msg != key {
		return msg
	}
	return fallback
}

// SetupI18n loads the locales and selects the preferred language.
func (app *CountdownApp) SetupI18n() {
	bundle, langs := NewBundle()
	app.I18nBundle = bundle
	if len(langs) > 0 {
		app.SupportedLanguages = langs
	}
	app.UpdateLocalizer()
}

// UpdateLocalizer refreshes the translator from the language preference.
func (app *CountdownApp) UpdateLocalizer() {
	lang := app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage)
	app.tr.Store(NewTranslator(app.I18nBundle, lang))
}

// GetMsg translates key in the current language.
func (app *CountdownApp) GetMsg(key string) string {
	return app.Translator().Msg(key)
}

// Translator returns the active translator. It is safe to call from any goroutine.
func (app *CountdownApp) Translator() *Translator {
	if t := app.tr.Load(); t != nil {
		return t
	}
	return &Translator{}
}
