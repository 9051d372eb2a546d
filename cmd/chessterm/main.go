package main

import (
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/qnkhuat/chessterm/pkg"
	"github.com/qnkhuat/chessterm/pkg/board"
	"github.com/qnkhuat/chessterm/pkg/gui"
	"github.com/qnkhuat/chessterm/pkg/store"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	cfg := pkg.DefaultClientConfig()
	dataDir, _ := store.DataDir()
	var themeFile string

	flag.StringVar(&cfg.Server, "server", cfg.Server, "server address: a base URL for http, host:port for tcp")
	flag.StringVar(&cfg.Transport, "transport", cfg.Transport, "http, tcp or local")
	flag.StringVar(&cfg.Gestures, "gestures", cfg.Gestures, "click or drag")
	flag.StringVar(&cfg.Theme, "theme", cfg.Theme, "theme name")
	flag.StringVar(&themeFile, "themes", "", "JSON file with extra themes")
	flag.BoolVar(&cfg.Flip, "flip", cfg.Flip, "draw the board from Black's side")
	flag.BoolVar(&cfg.Resume, "resume", false, "reopen the last game played")
	flag.StringVar(&cfg.GameID, "game", "", "open this game id")
	flag.StringVar(&cfg.LogPath, "log", cfg.LogPath, "path to log file")
	flag.StringVar(&cfg.PrefsDir, "prefs", dataDir, "preferences directory, empty to keep nothing")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.Red("chessterm needs an interactive terminal")
		os.Exit(1)
	}

	logger, err := pkg.InitLog(cfg.LogPath, "client")
	if err != nil {
		color.Red("failed to open log: %s", err)
		os.Exit(1)
	}
	defer logger.Sync()

	prefs, err := store.OpenPrefs(cfg.PrefsDir)
	if err != nil {
		logger.Warn("preferences unavailable, keeping them in memory", zap.String("dir", cfg.PrefsDir), zap.Error(err))
		if prefs, err = store.OpenPrefs(""); err != nil {
			color.Red("failed to open preferences: %s", err)
			os.Exit(1)
		}
	}
	defer prefs.Close()

	stored, err := prefs.Load()
	if err != nil {
		logger.Warn("failed to load preferences", zap.Error(err))
	}
	applyPreferences(&cfg, stored)

	if err := cfg.Validate(); err != nil {
		color.Red("invalid configuration:\n%s", err)
		os.Exit(2)
	}

	theme, err := gui.LoadTheme(cfg.Theme, themeFile)
	if err != nil {
		logger.Warn("falling back to the basic theme", zap.String("theme", cfg.Theme), zap.Error(err))
		theme = gui.ThemeBasic
	}

	transport, err := pkg.NewTransport(cfg, logger)
	if err != nil {
		color.Red("failed to connect to %s: %s", cfg.Server, err)
		os.Exit(1)
	}
	if c, ok := transport.(io.Closer); ok {
		defer c.Close()
	}
	watcher, _ := transport.(pkg.Watcher)

	ctrl := pkg.NewController(transport, logger)
	app := gui.NewApp(ctrl, watcher, cfg, theme, logger)
	app.OnGame = func(id pkg.GameID) {
		stored.LastGame = string(id)
		if err := prefs.Save(stored); err != nil {
			logger.Warn("failed to save preferences", zap.Error(err))
		}
	}

	switch {
	case cfg.GameID != "":
		app.Open(pkg.GameID(cfg.GameID))
	case cfg.Resume && stored.LastGame != "":
		app.Open(pkg.GameID(stored.LastGame))
	default:
		app.NewGame()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGINT,
		syscall.SIGTERM)
	go func() {
		<-sigc
		app.Stop()
	}()

	logger.Info("client started", zap.String("server", cfg.Server), zap.String("transport", cfg.Transport))
	if err := app.Run(); err != nil {
		logger.Error("ui stopped", zap.Error(err))
	}

	stored.Flip = app.Board.Flipped()
	remember(prefs, stored, cfg, ctrl.View(), logger)
	color.Green("Bye!")
}

// applyPreferences fills every setting not given on the command line from the stored preferences,
// then records the result as the new preferences.
func applyPreferences(cfg *pkg.ClientConfig, stored *store.Preferences) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["server"] && stored.Server != "" {
		cfg.Server = stored.Server
	}
	if !set["transport"] && stored.Transport != "" {
		cfg.Transport = stored.Transport
	}
	if !set["gestures"] && stored.Gestures != "" {
		cfg.Gestures = stored.Gestures
	}
	if !set["theme"] && stored.Theme != "" {
		cfg.Theme = stored.Theme
	}
	if !set["flip"] {
		cfg.Flip = stored.Flip
	}

	stored.Server = cfg.Server
	stored.Transport = cfg.Transport
	stored.Gestures = cfg.Gestures
	stored.Theme = cfg.Theme
	stored.Flip = cfg.Flip
}

func remember(prefs *store.Prefs, stored *store.Preferences, cfg pkg.ClientConfig, v pkg.View, logger *zap.Logger) {
	if err := prefs.Save(stored); err != nil {
		logger.Warn("failed to save preferences", zap.Error(err))
	}
	if v.GameID == "" {
		return
	}
	note := store.GameNote{
		ID:        string(v.GameID),
		Server:    cfg.Server,
		Placement: board.Encode(v.Matrix),
		Status:    string(v.Status),
	}
	if err := prefs.RememberGame(note); err != nil {
		logger.Warn("failed to remember game", zap.String("game", note.ID), zap.Error(err))
	}
}
