package ui_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/life-countdown/internal/config"
)

var translationKeys = []string{
	config.TKeyWinTitle,
	config.TKeyWinSettings,
	config.TKeyTitleLifespan,
	config.TKeyCompleted,
	config.TKeyCompletedPlain,
	config.TKeyUnitYears,
	config.TKeyUnitMonths,
	config.TKeyUnitDays,
	config.TKeyUnitHours,
	config.TKeyUnitMinutes,
	config.TKeyTabLifespan,
	config.TKeyTabEvent,
	config.TKeyTabGeneral,
	config.TKeyLblDOB,
	config.TKeyLblEventTitle,
	config.TKeyLblStartDate,
	config.TKeyLblEndDate,
	config.TKeyLblLanguage,
	config.TKeyHelpLanguage,
	config.TKeyLblPort,
	config.TKeyHelpPort,
	config.TKeyLblContacts,
	config.TKeyLblURL,
	config.TKeyLblUser,
	config.TKeyLblPass,
	config.TKeyBtnImport,
	config.TKeyBtnFetch,
	config.TKeyBtnSave,
	config.TKeyBtnCancel,
	config.TKeyBtnSettings,
	config.TKeyErrMissing,
	config.TKeyErrInvalid,
	config.TKeyErrImport,
	config.TKeyErrPortReq,
	config.TKeyErrPortNum,
	config.TKeyErrPortRange,
	config.TKeyEvtSummary,
	config.TKeyLblFooter,
}

// TestI18nIntegrity checks every locale file against the translation keys in config.go.
func TestI18nIntegrity(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("locales", "active.*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "no locale files found")

	defined := make(map[string]bool, len(translationKeys))
	for _, k := range translationKeys {
		defined[k] = true
	}

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			content, err := os.ReadFile(path)
			require.NoError(t, err)

			var messages map[string]string
			require.NoError(t, json.Unmarshal(content, &messages), "JSON must be a flat string map")

			for _, key := range translationKeys {
				assert.NotEmptyf(t, messages[key], "Key '%s' is missing in %s", key, path)
			}
			for key := range messages {
				if strings.HasPrefix(key, "_") {
					continue
				}
				assert.Truef(t, defined[key], "Key '%s' in %s has no constant in config.go", key, path)
			}
		})
	}
}
