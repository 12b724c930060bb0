package ui

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/life-countdown/internal/config"
	"github.com/tartampluch/life-countdown/internal/engine"
	"github.com/tartampluch/life-countdown/internal/server"
	"github.com/zalando/go-keyring"
)

// settingsWidgets holds the form fields so saving can read them back.
type settingsWidgets struct {
	tabs        *container.AppTabs
	tabLifespan *container.TabItem
	tabEvent    *container.TabItem
	kind        engine.Type

	dobEntry   *widget.Entry
	titleEntry *widget.Entry
	startEntry *widget.Entry
	endEntry   *widget.Entry

	urlEntry  *widget.Entry
	userEntry *widget.Entry
	passEntry *widget.Entry

	langSelect *widget.Select
	portEntry  *PortEntry

	errLabel *widget.Label
}

// input collects the countdown fields of the tab being edited.
func (sw *settingsWidgets) input() engine.Input {
	return engine.Input{
		Type:        sw.kind,
		DateOfBirth: sw.dobEntry.Text,
		Title:       sw.titleEntry.Text,
		StartDate:   sw.startEntry.Text,
		EndDate:     sw.endEntry.Text,
	}
}

func (sw *settingsWidgets) entryFor(f engine.Field) *widget.Entry {
	switch f {
	case engine.FieldDateOfBirth:
		return sw.dobEntry
	case engine.FieldTitle:
		return sw.titleEntry
	case engine.FieldStartDate:
		return sw.startEntry
	case engine.FieldEndDate:
		return sw.endEntry
	}
	return nil
}

// ShowSettingsWindow opens the settings dialog, or focuses it if already open.
func (app *CountdownApp) ShowSettingsWindow() {
	if app.SettingsWindow != nil {
		slog.Debug("Settings window already open, requesting focus", config.LogKeyComponent, config.CompUISet)
		app.SettingsWindow.RequestFocus()
		return
	}

	slog.Info("Opening settings window", config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinSettings))
	app.SettingsWindow = w

	sw := app.buildSettingsWidgets(w)

	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), func() {
		if app.saveSettings(sw) {
			w.Close()
		}
	})
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	footer := widget.NewLabel(fmt.Sprintf(app.GetMsg(config.TKeyLblFooter), config.Version))
	footer.Alignment = fyne.TextAlignCenter
	footer.TextStyle = fyne.TextStyle{Italic: true}

	w.SetContent(container.NewPadded(container.NewVBox(
		sw.tabs,
		sw.errLabel,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footer,
	)))
	w.Resize(fyne.NewSize(config.SettingsWindowWidth, w.Content().MinSize().Height))
	w.SetOnClosed(func() { app.SettingsWindow = nil })
	w.Show()
}

// buildSettingsWidgets creates the three tabs, pre-filled from the active
// countdown and the preferences.
func (app *CountdownApp) buildSettingsWidgets(w fyne.Window) *settingsWidgets {
	active := engine.YearEnd(app.Clock.Now())
	if app.Controller != nil {
		active = app.Controller.Active()
	}
	in := engine.InputFrom(active, app.Clock.Now())

	sw := &settingsWidgets{kind: in.Type}

	sw.dobEntry = newDateEntry(in.DateOfBirth)
	sw.titleEntry = newHighlightEntry(in.Title)
	sw.startEntry = newDateEntry(in.StartDate)
	sw.endEntry = newDateEntry(in.EndDate)

	sw.urlEntry = widget.NewEntry()
	sw.urlEntry.PlaceHolder = config.PlaceholderURL
	sw.urlEntry.SetText(app.Preferences.String(config.PrefContactsURL))
	sw.userEntry = widget.NewEntry()
	sw.userEntry.SetText(app.Preferences.String(config.PrefContactsUser))
	sw.passEntry = widget.NewPasswordEntry()
	if user := sw.userEntry.Text; user != "" {
		if pwd, err := keyring.Get(config.KeyringService, user); err == nil {
			sw.passEntry.SetText(pwd)
		} else {
			slog.Debug(config.MsgPassFail,
				config.LogKeyComponent, config.CompUISet,
				config.LogKeyUser, user,
				config.LogKeyError, err,
			)
		}
	}

	sw.langSelect = widget.NewSelect(app.SupportedLanguages, nil)
	sw.langSelect.SetSelected(app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage))
	sw.portEntry = NewPortEntry(app.validatePort)
	sw.portEntry.SetText(app.Preferences.StringWithFallback(config.PrefFeedPort, config.DefaultPort))

	sw.errLabel = widget.NewLabel("")
	sw.errLabel.Importance = widget.DangerImportance
	sw.errLabel.Wrapping = fyne.TextWrapWord
	sw.errLabel.Hide()

	sw.tabLifespan = container.NewTabItem(app.GetMsg(config.TKeyTabLifespan), app.buildLifespanTab(w, sw))
	sw.tabEvent = container.NewTabItem(app.GetMsg(config.TKeyTabEvent), widget.NewForm(
		widget.NewFormItem(app.GetMsg(config.TKeyLblEventTitle), sw.titleEntry),
		widget.NewFormItem(app.GetMsg(config.TKeyLblStartDate), sw.startEntry),
		widget.NewFormItem(app.GetMsg(config.TKeyLblEndDate), sw.endEntry),
	))

	itemLang := widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), sw.langSelect)
	itemLang.HintText = app.GetMsg(config.TKeyHelpLanguage)
	itemPort := widget.NewFormItem(app.GetMsg(config.TKeyLblPort), sw.portEntry)
	itemPort.HintText = app.GetMsg(config.TKeyHelpPort)
	tabGeneral := container.NewTabItem(app.GetMsg(config.TKeyTabGeneral), widget.NewForm(itemLang, itemPort))

	sw.tabs = container.NewAppTabs(sw.tabLifespan, sw.tabEvent, tabGeneral)
	if sw.kind == engine.Event {
		sw.tabs.Select(sw.tabEvent)
	}
	// The General tab edits neither countdown, so it keeps the last countdown tab's kind.
	sw.tabs.OnSelected = func(tab *container.TabItem) {
		switch tab {
		case sw.tabLifespan:
			sw.kind = engine.Lifespan
		case sw.tabEvent:
			sw.kind = engine.Event
		}
	}
	return sw
}

func (app *CountdownApp) buildLifespanTab(w fyne.Window, sw *settingsWidgets) fyne.CanvasObject {
	btnImport := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnImport), theme.FolderOpenIcon(), func() {
		d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil || r == nil {
				return
			}
			defer func() { _ = r.Close() }()
			if err := app.importFromReader(sw, r); err != nil {
				app.showError(sw, app.GetMsg(config.TKeyErrImport))
			}
		}, w)
		d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtVCF, config.ExtVCard}))
		d.Show()
	})

	var btnFetch *widget.Button
	btnFetch = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnFetch), theme.DownloadIcon(), func() {
		btnFetch.Disable()
		src := engine.Source{URL: strings.TrimSpace(sw.urlEntry.Text), User: sw.userEntry.Text, Pass: sw.passEntry.Text}
		go func() {
			contact, err := app.fetchBirthDate(src)
			fyne.Do(func() {
				btnFetch.Enable()
				if err != nil {
					app.showError(sw, app.GetMsg(config.TKeyErrImport))
					return
				}
				app.applyContact(sw, contact)
			})
		}()
	})

	dobRow := container.NewBorder(nil, nil, nil, btnImport, sw.dobEntry)
	contacts := widget.NewForm(
		widget.NewFormItem(app.GetMsg(config.TKeyLblURL), sw.urlEntry),
		widget.NewFormItem(app.GetMsg(config.TKeyLblUser), sw.userEntry),
		widget.NewFormItem(app.GetMsg(config.TKeyLblPass), sw.passEntry),
	)

	return container.NewVBox(
		widget.NewForm(widget.NewFormItem(app.GetMsg(config.TKeyLblDOB), dobRow)),
		widget.NewCard(app.GetMsg(config.TKeyLblContacts), "", container.NewVBox(contacts, btnFetch)),
	)
}

// importFromReader fills the date of birth from a local vCard file.
func (app *CountdownApp) importFromReader(sw *settingsWidgets, r io.Reader) error {
	contact, err := engine.ImportBirthDate(r, "")
	if err != nil {
		slog.Warn(config.ErrNoBirthDate, config.LogKeyComponent, config.CompUISet, config.LogKeyError, err)
		return err
	}
	app.applyContact(sw, contact)
	return nil
}

// fetchBirthDate downloads the contacts collection and remembers the source
// on success: URL and user in the preferences, password in the OS keyring.
func (app *CountdownApp) fetchBirthDate(src engine.Source) (engine.Contact, error) {
	contact, err := engine.ImportBirthDateFromURL(app.Ctx, app.Fetcher, src, "")
	if err != nil {
		slog.Warn(config.ErrNoBirthDate, config.LogKeyComponent, config.CompUISet, config.LogKeyError, err)
		return engine.Contact{}, err
	}

	app.Preferences.SetString(config.PrefContactsURL, src.URL)
	app.Preferences.SetString(config.PrefContactsUser, src.User)
	if src.User != "" && src.Pass != "" {
		if err := keyring.Set(config.KeyringService, src.User, src.Pass); err != nil {
			slog.Error(config.ErrKeyringSave, config.LogKeyComponent, config.CompUISet, config.LogKeyError, err)
		}
	}
	return contact, nil
}

func (app *CountdownApp) applyContact(sw *settingsWidgets, c engine.Contact) {
	sw.dobEntry.SetText(c.DateOfBirth.Format(config.DateFormatInput))
	sw.kind = engine.Lifespan
	sw.tabs.Select(sw.tabLifespan)
	sw.errLabel.Hide()
}

// saveSettings submits the countdown, then stores the general preferences.
// It reports whether the window can close: a rejected countdown keeps it open
// with the offending fields highlighted.
func (app *CountdownApp) saveSettings(sw *settingsWidgets) bool {
	for _, e := range []*widget.Entry{sw.dobEntry, sw.titleEntry, sw.startEntry, sw.endEntry} {
		e.SetValidationError(nil)
	}
	sw.errLabel.Hide()

	if err := sw.portEntry.Validate(); err != nil {
		sw.tabs.SelectIndex(len(sw.tabs.Items) - 1)
		app.showError(sw, err.Error())
		return false
	}

	_, err := app.Controller.Submit(app.Ctx, sw.input())
	var vErr *engine.ValidationError
	switch {
	case errors.As(err, &vErr):
		app.showValidation(sw, vErr)
		return false
	case err != nil:
		app.showError(sw, err.Error())
		return false
	}

	slog.Info(config.MsgSettingsSaved, config.LogKeyComponent, config.CompUISet, config.LogKeyType, sw.kind)

	app.Preferences.SetString(config.PrefLanguage, sw.langSelect.Selected)
	app.Preferences.SetString(config.PrefFeedPort, strings.TrimSpace(sw.portEntry.Text))
	app.UpdateLocalizer()
	app.RefreshLabels()
	return true
}

func (app *CountdownApp) showValidation(sw *settingsWidgets, vErr *engine.ValidationError) {
	var lines []string
	if len(vErr.Missing) > 0 {
		lines = append(lines, app.GetMsg(config.TKeyErrMissing))
	}
	if len(vErr.Invalid) > 0 {
		lines = append(lines, app.GetMsg(config.TKeyErrInvalid))
	}
	for _, f := range vErr.Fields() {
		if e := sw.entryFor(f); e != nil {
			e.SetValidationError(vErr)
		}
	}
	app.showError(sw, strings.Join(lines, "\n"))
}

func (app *CountdownApp) showError(sw *settingsWidgets, msg string) {
	sw.errLabel.SetText(msg)
	sw.errLabel.Show()
}

// validatePort translates server.ValidatePort errors for display.
func (app *CountdownApp) validatePort(s string) error {
	err := server.ValidatePort(s)
	if err == nil {
		return nil
	}
	key := config.TKeyErrPortRange
	switch err.Error() {
	case config.ErrPortRequired:
		key = config.TKeyErrPortReq
	case config.ErrPortNumber:
		key = config.TKeyErrPortNum
	}
	return errors.New(app.GetMsg(key))
}

// newHighlightEntry returns an entry that can display a validation error.
// fyne only shows validation state on entries that have a Validator.
func newHighlightEntry(text string) *widget.Entry {
	e := widget.NewEntry()
	e.Validator = func(string) error { return nil }
	e.SetText(text)
	return e
}

func newDateEntry(text string) *widget.Entry {
	e := newHighlightEntry(text)
	e.PlaceHolder = config.PlaceholderDOB
	return e
}
