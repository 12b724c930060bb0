package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Life-Countdown/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Life Countdown"
	AppID             = "com.github.tartampluch.life-countdown"
	KeyringService    = "com.github.tartampluch.life-countdown"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagTerminal     = "terminal"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescTerminal = "Render the countdown in the terminal instead of a window"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Preferences
// -----------------------------------------------------------------------------

const (
	// PrefSettings holds the single active countdown record (JSON).
	PrefSettings     = "settings"
	PrefLanguage     = "language"
	PrefFeedPort     = "feed_port"
	PrefContactsURL  = "contacts_url"
	PrefContactsUser = "contacts_user"
	PrefLastRun      = "last_run_version"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Countdown Rules
// -----------------------------------------------------------------------------

const (
	TypeLifespan = "lifespan"
	TypeEvent    = "event"

	// LifespanYears is both the lifespan length and its square count.
	LifespanYears   = 80
	LifespanSquares = LifespanYears
	LifespanLength  = LifespanYears * 365 * 24 * time.Hour

	DefaultSquares    = 80
	YearEndTitle      = "YEAR END"
	YearEndSquares    = 12
	MonthsPerYear     = 12
	DateFormatInput   = "2006-01-02"
	FieldDateOfBirth  = "dob"
	FieldTitle        = "title"
	FieldStartDate    = "startDate"
	FieldEndDate      = "endDate"
	FallbackCompleted = "Countdown Complete!"
	FormatCompleted   = "%s Complete!"
)

// Remaining-time divisors. These are average lengths, not calendar units.
const (
	AvgYear  = 36525 * 24 * time.Hour / 100 // 365.25 days
	AvgMonth = 3044 * 24 * time.Hour / 100  // 30.44 days
	Day      = 24 * time.Hour
)

// -----------------------------------------------------------------------------
// Scheduling
// -----------------------------------------------------------------------------

const (
	// FrameInterval approximates a display refresh (60 Hz).
	FrameInterval = time.Second / 60

	// TerminalFrameInterval is coarser: a terminal cannot usefully redraw at 60 Hz.
	TerminalFrameInterval = 250 * time.Millisecond
)

// -----------------------------------------------------------------------------
// UI Constants
// -----------------------------------------------------------------------------

const (
	MainWindowWidth     = 720
	MainWindowHeight    = 480
	SettingsWindowWidth = 520
	SquarePadding       = 2

	// Square colors (RGBA hex).
	ColorSquareEmpty  = 0x333333ff
	ColorSquareFilled = 0x2e7d32ff

	FormatUnit     = "%02d"
	FormatFeedURL  = "http://%s:%s/"
	PlaceholderURL = "https://..."
	PlaceholderDOB = "YYYY-MM-DD"

	LayoutColumnsDouble = 2
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle       = "win_title"
	TKeyWinSettings    = "win_settings_title"
	TKeyTitleLifespan  = "title_lifespan"
	TKeyCompleted      = "title_completed"       // Requires Title
	TKeyCompletedPlain = "title_completed_plain" // No title
	TKeyUnitYears      = "unit_years"
	TKeyUnitMonths     = "unit_months"
	TKeyUnitDays       = "unit_days"
	TKeyUnitHours      = "unit_hours"
	TKeyUnitMinutes    = "unit_minutes"
	TKeyTabLifespan    = "tab_lifespan"
	TKeyTabEvent       = "tab_event"
	TKeyTabGeneral     = "tab_general"
	TKeyLblDOB         = "lbl_dob"
	TKeyLblEventTitle  = "lbl_event_title"
	TKeyLblStartDate   = "lbl_start_date"
	TKeyLblEndDate     = "lbl_end_date"
	TKeyLblLanguage    = "lbl_language"
	TKeyHelpLanguage   = "help_language"
	TKeyLblPort        = "lbl_feed_port"
	TKeyHelpPort       = "help_feed_port"
	TKeyLblContacts    = "lbl_contacts"
	TKeyLblURL         = "lbl_url"
	TKeyLblUser        = "lbl_user"
	TKeyLblPass        = "lbl_pass"
	TKeyBtnImport      = "btn_import"
	TKeyBtnFetch       = "btn_fetch"
	TKeyBtnSave        = "btn_save"
	TKeyBtnCancel      = "btn_cancel"
	TKeyBtnSettings    = "btn_settings"
	TKeyErrMissing     = "err_missing_fields"
	TKeyErrInvalid     = "err_invalid_dates"
	TKeyErrImport      = "err_import"
	TKeyEvtSummary     = "event_summary" // Requires Title
	TKeyLblFooter      = "lbl_footer"

	// Validation Errors (UI)
	TKeyErrPortReq   = "err_port_required"
	TKeyErrPortNum   = "err_port_number"
	TKeyErrPortRange = "err_port_range"
)

// -----------------------------------------------------------------------------
// Default Values
// -----------------------------------------------------------------------------

const (
	DefaultPort     = "18081"
	DefaultLanguage = "en"
	UIDSalt         = "life-countdown-v1-" // Salt for deterministic UID generation
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Life Countdown//Engine//EN"
	ICalCalName   = "Countdown"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "lifecountdown"
	ICalTrigger   = "PT0S"

	ICalParamRelated = "RELATED"
	ICalRelatedEnd   = "END"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardBDAY = "BDAY"
	VCardFN   = "FN"
	VCardN    = "N"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Date layouts used for parsing vCard BDAY fields
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%d|%d|%s"
	FormatUID       = "%s@%s"

	// File Extensions
	ExtVCF   = ".vcf"
	ExtVCard = ".vcard"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 16 * 1024 * 1024 // 16MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderContentLength   = "Content-Length"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrMissingFields    = "missing required fields"
	ErrInvalidDates     = "invalid date fields"
	ErrUnknownType      = "unknown countdown type"
	ErrStoreRead        = "failed to read countdown settings"
	ErrStoreWrite       = "failed to persist countdown settings"
	ErrRecordDecode     = "failed to decode countdown settings"
	ErrRecordEncode     = "failed to encode countdown settings"
	ErrNoBirthDate      = "no contact with a full birth date found"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrVCardParse       = "failed to parse vCard stream"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrDateParse        = "unable to parse date"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrLoadFailed       = "failed to load countdown"
	ErrPublishFailed    = "failed to publish countdown feed"
	ErrTerminalFailed   = "terminal view failed"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrContactsURLEmpty = "configuration error: contacts URL is empty"
	ErrKeyringSave      = "failed to save credentials to keyring"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Countdown initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages & Fallbacks
// -----------------------------------------------------------------------------

const (
	FallbackLifespanTitle = "Your Lifespan Countdown"
	FallbackSummary       = "Countdown: %s"
	FallbackName          = "Unknown"
	TitleStartupError     = AppName + " - Error"
	MsgPortBusy           = "Could not publish the calendar feed on port %s. Is it already in use?"

	// StubVCalendar is the minimal valid iCalendar object used when there is no event to publish.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgAppStop        = "Application stopped gracefully"
	MsgCtxCancel      = "Context cancelled, shutting down UI"
	MsgAppStarting    = "Starting application"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Calendar cache updated"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgPassFail       = "Password retrieval failed (might be empty)"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgFallbackUsed   = "No saved countdown, using year end"
	MsgSettingsSaved  = "Countdown settings saved"
	MsgConfigLoaded   = "Countdown loaded"
	MsgValidationFail = "Countdown settings rejected"
	MsgLoopStart      = "Tick loop started"
	MsgTerminalStart  = "Terminal view starting"
	MsgLoopStop       = "Tick loop stopped"
	MsgCompleted      = "Countdown complete"
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgSkippedDate    = "Skipping invalid date format"
	MsgBirthImported  = "Birth date imported"
	MsgFeedPublished  = "Countdown feed published"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyType      = "type"
	LogKeyTitle     = "title"
	LogKeyStart     = "start"
	LogKeyEnd       = "end"
	LogKeySquares   = "total_squares"
	LogKeyElapsed   = "elapsed_cells"
	LogKeyMissing   = "missing"
	LogKeyInvalid   = "invalid"
	LogKeyUser      = "user"
	LogKeyName      = "name"
	LogKeyValue     = "value"
	LogKeyInterval  = "interval"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyDate    = "date"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI       = "ui"
	CompUISet    = "ui_settings"
	CompEngine   = "engine"
	CompResolver = "resolver"
	CompLoop     = "loop"
	CompServer   = "server"
	CompFetcher  = "fetcher"
	CompMain     = "main"
	CompI18n     = "i18n"
	CompTUI      = "tui"
)
