package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/life-countdown/internal/config"
	"github.com/tartampluch/life-countdown/internal/engine"
)

const addressBook = "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:No Birthday\r\nEND:VCARD\r\n" +
	"BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Partial\r\nBDAY:--0412\r\nEND:VCARD\r\n" +
	"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ada Lovelace\r\nBDAY:1990-05-17\r\nEND:VCARD\r\n" +
	"BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Grace Hopper\r\nBDAY:19851209\r\nEND:VCARD\r\n"

func TestImportBirthDate(t *testing.T) {
	tests := []struct {
		name     string
		lookup   string
		wantName string
		wantDOB  string
	}{
		{"First complete birthday", "", "Ada Lovelace", "1990-05-17"},
		{"Named card", "grace hopper", "Grace Hopper", "1985-12-09"},
		{"Named card with spaces", "  Ada Lovelace ", "Ada Lovelace", "1990-05-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := engine.ImportBirthDate(strings.NewReader(addressBook), tt.lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name)
			assert.Equal(t, tt.wantDOB, c.DateOfBirth.Format(config.DateFormatInput))
		})
	}
}

func TestImportBirthDate_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		lookup string
	}{
		{"Empty stream", "", ""},
		{"Birthday without year", "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Partial\r\nBDAY:--0412\r\nEND:VCARD\r\n", ""},
		{"Unknown name", addressBook, "Alan Turing"},
		{"Named card has no birthday", addressBook, "No Birthday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ImportBirthDate(strings.NewReader(tt.data), tt.lookup)
			require.Error(t, err)
			assert.EqualError(t, err, config.ErrNoBirthDate)
		})
	}
}

func TestImportBirthDate_StructuredNameFallback(t *testing.T) {
	data := "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Lovelace;Ada;;;\r\nBDAY:1990-05-17T00:00:00Z\r\nEND:VCARD\r\n"

	c, err := engine.ImportBirthDate(strings.NewReader(data), "")
	require.NoError(t, err)
	assert.Contains(t, c.Name, "Lovelace")
	assert.True(t, date(1990, 5, 17).Equal(c.DateOfBirth))
}

func TestImportBirthDateFromURL(t *testing.T) {
	ctx := context.Background()
	src := engine.Source{URL: "https://dav.example.com/contacts.vcf", User: "ada", Pass: "s3cret"}

	t.Run("Downloads and scans", func(t *testing.T) {
		fetcher := new(MockFetcher)
		fetcher.On("Fetch", mock.Anything, src).Return([]byte(addressBook), nil).Once()

		c, err := engine.ImportBirthDateFromURL(ctx, fetcher, src, "Grace Hopper")
		require.NoError(t, err)
		assert.Equal(t, "1985-12-09", c.DateOfBirth.Format(config.DateFormatInput))
		fetcher.AssertExpectations(t)
	})

	t.Run("Network failure is returned", func(t *testing.T) {
		fetcher := new(MockFetcher)
		fetcher.On("Fetch", mock.Anything, src).Return(nil, errors.New("connection refused"))

		_, err := engine.ImportBirthDateFromURL(ctx, fetcher, src, "")
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("Empty URL never hits the network", func(t *testing.T) {
		fetcher := new(MockFetcher)

		_, err := engine.ImportBirthDateFromURL(ctx, fetcher, engine.Source{}, "")
		assert.EqualError(t, err, config.ErrContactsURLEmpty)
		fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	})

	t.Run("Missing fetcher", func(t *testing.T) {
		_, err := engine.ImportBirthDateFromURL(ctx, nil, src, "")
		assert.EqualError(t, err, config.ErrFetcherMissing)
	})
}
