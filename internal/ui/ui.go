package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/life-countdown/internal/config"
	"github.com/tartampluch/life-countdown/internal/engine"
	"github.com/tartampluch/life-countdown/internal/server"
)

// CountdownApp wires the countdown controller to the fyne windows, the
// preferences store and the calendar feed.
type CountdownApp struct {
	App            fyne.App
	Window         fyne.Window
	SettingsWindow fyne.Window
	Preferences    fyne.Preferences
	I18nBundle     *i18n.Bundle
	Ctx            context.Context

	Server    *server.FeedServer
	Fetcher   engine.VCardFetcher
	Clock     engine.Clock     // Injected for tests
	Scheduler engine.Scheduler // Injected for tests

	Controller *engine.Controller
	Grid       *GridPresenter

	SupportedLanguages []string

	tr       atomic.Pointer[Translator]
	feedLink *widget.Label
}

// NewCountdownApp constructs the application. Nothing runs until Start or Run.
func NewCountdownApp(a fyne.App, ctx context.Context, srv *server.FeedServer, fetcher engine.VCardFetcher) *CountdownApp {
	a.SetIcon(theme.HistoryIcon())

	return &CountdownApp{
		App:                a,
		Preferences:        a.Preferences(),
		Ctx:                ctx,
		Server:             srv,
		Fetcher:            fetcher,
		Clock:              engine.RealClock{},
		Scheduler:          engine.NewTimerScheduler(config.FrameInterval),
		SupportedLanguages: config.SupportedLanguages,
	}
}

// Start loads the translations, builds the main window and starts the first countdown.
func (app *CountdownApp) Start() error {
	app.SetupI18n()

	app.Grid = NewGridPresenter(app.Translator)
	resolver := engine.NewResolver(NewPreferencesStore(app.Preferences), app.Clock)
	app.Controller = engine.NewController(resolver, app.Clock, app.Scheduler, app.Grid)
	app.Controller.FormatSummary = app.buildSummaryFormatter()
	if app.Server != nil {
		app.Controller.Publisher = app.Server
	}

	app.buildMainWindow()

	if _, err := app.Controller.Load(app.Ctx); err != nil {
		return fmt.Errorf("%s: %w", config.ErrLoadFailed, err)
	}
	return nil
}

// Run starts the feed server and the countdown, then blocks in the fyne event loop.
func (app *CountdownApp) Run() error {
	if err := app.Start(); err != nil {
		return err
	}
	defer app.Controller.Stop()

	if app.Server != nil {
		go app.serveFeed()
	}

	app.Window.ShowAndRun()
	return nil
}

func (app *CountdownApp) serveFeed() {
	if err := app.Server.Start(app.Ctx); err != nil {
		slog.Error(config.ErrServerStartup,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyPort, app.Server.Port,
			config.LogKeyError, err,
		)
		app.App.SendNotification(fyne.NewNotification(
			config.TitleStartupError,
			fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
	}
}

func (app *CountdownApp) buildMainWindow() {
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))
	app.Window = w

	btnSettings := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSettings), theme.SettingsIcon(), app.ShowSettingsWindow)

	app.feedLink = widget.NewLabel("")
	app.feedLink.TextStyle = fyne.TextStyle{Italic: true}
	app.feedLink.Truncation = fyne.TextTruncateEllipsis
	if app.Server != nil {
		app.feedLink.SetText(app.Server.URL())
	}

	footer := container.NewBorder(nil, nil, nil, btnSettings, app.feedLink)
	w.SetContent(container.NewPadded(container.NewBorder(nil, footer, nil, nil, app.Grid.Content)))
	w.Resize(fyne.NewSize(config.MainWindowWidth, config.MainWindowHeight))
	w.SetMaster()
}

// RefreshLabels re-applies translated labels after a language change.
func (app *CountdownApp) RefreshLabels() {
	if app.Window != nil {
		app.Window.SetTitle(app.GetMsg(config.TKeyWinTitle))
	}
	if app.Server != nil && app.feedLink != nil {
		app.feedLink.SetText(app.Server.URL())
	}
}

// buildSummaryFormatter localizes the calendar event summary.
func (app *CountdownApp) buildSummaryFormatter() func(cfg engine.Configuration) string {
	return func(cfg engine.Configuration) string {
		tr := app.Translator()
		title := cfg.Title
		if cfg.Type == engine.Lifespan {
			title = tr.MsgOr(config.TKeyTitleLifespan, config.FallbackLifespanTitle, nil)
		}
		return tr.MsgOr(config.TKeyEvtSummary, fmt.Sprintf(config.FallbackSummary, title), map[string]any{"Title": title})
	}
}
