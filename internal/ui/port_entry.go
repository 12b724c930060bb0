package ui

import (
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// PortEntry is an Entry that only accepts digits, for the feed port field.
// Pasted text bypasses TypedRune, so the Validator still checks the value.
type PortEntry struct {
	widget.Entry
}

// NewPortEntry creates a PortEntry whose Validator is validate.
func NewPortEntry(validate func(string) error) *PortEntry {
	entry := &PortEntry{}
	entry.ExtendBaseWidget(entry)
	entry.Validator = validate
	return entry
}

// TypedRune drops anything that is not a digit.
func (e *PortEntry) TypedRune(r rune) {
	if r >= '0' && r <= '9' {
		e.Entry.TypedRune(r)
	}
}

// Keyboard shows a numeric keypad on mobile.
func (e *PortEntry) Keyboard() mobile.KeyboardType {
	return mobile.NumberKeyboard
}
