package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/tartampluch/life-countdown/internal/config"
	"github.com/tartampluch/life-countdown/internal/engine"
	"github.com/tartampluch/life-countdown/internal/server"
	"github.com/tartampluch/life-countdown/internal/tui"
	"github.com/tartampluch/life-countdown/internal/ui"
)

// main is the application entry point.
// It delegates to runMain so deferred calls (closing the log file) run before
// the process exits: os.Exit does not run defers.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing and exit codes.
// Returns config.ExitCodeSuccess on success, config.ExitCodeError on failure.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	terminal := flag.Bool(config.FlagTerminal, false, config.FlagDescTerminal)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	// Configured early to capture startup issues. The terminal view owns stdout,
	// so in that mode logs go to the file only.
	logCloser := setupLogging(*debugMode, !*terminal)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close() // Best effort close
		}()
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	// The root context is cancelled on SIGINT (Ctrl+C) or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo(*terminal)

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	if err := run(ctx, *terminal); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run wires the preferences, the calendar feed and the chosen front end.
func run(ctx context.Context, terminal bool) error {
	// The fyne app also provides the preferences store in terminal mode.
	a := app.NewWithID(config.AppID)

	// Record the version for potential migration logic in future updates.
	a.Preferences().SetString(config.PrefLastRun, config.Version)

	// Dependency Injection. A bad stored port must not block startup.
	port := a.Preferences().StringWithFallback(config.PrefFeedPort, config.DefaultPort)
	if err := server.ValidatePort(port); err != nil {
		slog.Warn(config.ErrServerStartup,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyPort, port,
			config.LogKeyError, err,
		)
		port = config.DefaultPort
	}
	srv := server.NewFeedServer(port, engine.RealClock{})

	if terminal {
		return runTerminal(ctx, a, srv)
	}

	gui := ui.NewCountdownApp(a, ctx, srv, engine.NewHTTPFetcher())

	// Lifecycle Bridge:
	// Watch for context cancellation to quit the UI gracefully.
	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		fyne.Do(a.Quit)
	}()

	// Blocks until the main window closes.
	return gui.Run()
}

// runTerminal shows the countdown with bubbletea, sharing the GUI's preferences,
// translations and calendar feed.
func runTerminal(ctx context.Context, a fyne.App, srv *server.FeedServer) error {
	prefs := a.Preferences()
	bundle, _ := ui.NewBundle()
	tr := ui.NewTranslator(bundle, prefs.StringWithFallback(config.PrefLanguage, config.DefaultLanguage))

	go func() {
		if err := srv.Start(ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyPort, srv.Port,
				config.LogKeyError, err,
			)
		}
	}()

	clock := engine.RealClock{}
	resolver := engine.NewResolver(ui.NewPreferencesStore(prefs), clock)
	return tui.Run(ctx, resolver, clock, srv, tr.MsgWith)
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo(terminal bool) {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Bool(config.FlagTerminal, terminal),
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyDate, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging installs a JSON slog logger writing to the cache-dir log file
// and, when toStdout is set, to stdout.
func setupLogging(debugMode, toStdout bool) io.Closer {
	var writers []io.Writer
	var logFile *os.File

	// 1. Stdout, unless the terminal view is drawing on it.
	if toStdout {
		writers = append(writers, os.Stdout)
	}

	// 2. File writer in the user's cache directory.
	if logPath, err := logFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	})))

	if logFile == nil {
		return nil
	}
	return logFile
}

// logFilePath determines the platform-specific cache directory for logs.
func logFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	// Ensure the directory exists with restricted permissions (700).
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	return filepath.Join(appDir, config.LogFileName), nil
}
