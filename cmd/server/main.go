package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gliderlabs/ssh"
	"github.com/qnkhuat/chessterm/pkg"
	"github.com/qnkhuat/chessterm/pkg/store"
	"go.uber.org/zap"
)

func main() {
	cfg := pkg.DefaultServerConfig()
	flag.StringVar(&cfg.TCPAddr, "listen-tcp", cfg.TCPAddr, "address for the line protocol, empty to disable")
	flag.StringVar(&cfg.HTTPAddr, "listen-http", cfg.HTTPAddr, "address for the HTTP API, empty to disable")
	flag.StringVar(&cfg.SSHAddr, "listen-ssh", "", "address for the ssh front door, empty to disable")
	flag.StringVar(&cfg.HostKey, "host-key", "", "ssh host key file")
	flag.StringVar(&cfg.ClientCmd, "client", "", "client command run for each ssh session")
	flag.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "postgres DSN for keeping games, empty to keep them in memory")
	flag.StringVar(&cfg.LogPath, "log", cfg.LogPath, "path to log file")
	flag.DurationVar(&cfg.IdleTimeout, "idle", cfg.IdleTimeout, "drop games untouched for this long")
	flag.DurationVar(&cfg.CleanEvery, "clean-every", cfg.CleanEvery, "how often to look for idle games")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		color.Red("invalid configuration:\n%s", err)
		os.Exit(2)
	}

	logger, err := pkg.InitLog(cfg.LogPath, "server")
	if err != nil {
		color.Red("failed to open log: %s", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var games *store.Games
	if cfg.DSN != "" {
		if games, err = store.OpenGames(cfg.DSN); err != nil {
			color.Red("failed to open game store: %s", err)
			os.Exit(1)
		}
		logger.Info("keeping games in postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := pkg.NewServer(cfg, games, logger)
	go s.CleanIdleMatches(ctx, cfg.CleanEvery)

	var wg sync.WaitGroup
	serve := func(name string, run func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(); err != nil {
				logger.Error("listener failed", zap.String("listener", name), zap.Error(err))
				cancel()
			}
		}()
	}

	if cfg.TCPAddr != "" {
		serve("tcp", func() error { return s.ListenTCP(ctx, cfg.TCPAddr) })
	}
	if cfg.HTTPAddr != "" {
		app := pkg.NewHTTPServer(s, logger)
		serve("http", func() error { return app.Listen(cfg.HTTPAddr) })
		go func() {
			<-ctx.Done()
			app.ShutdownWithTimeout(5 * time.Second)
		}()
	}
	if cfg.SSHAddr != "" {
		sshServer, err := pkg.NewSSHServer(cfg, logger)
		if err != nil {
			color.Red("%s", err)
			os.Exit(1)
		}
		serve("ssh", func() error {
			logger.Info("listening", zap.String("proto", "ssh"), zap.String("addr", cfg.SSHAddr))
			if err := sshServer.ListenAndServe(); !errors.Is(err, ssh.ErrServerClosed) {
				return err
			}
			return nil
		})
		go func() {
			<-ctx.Done()
			sshServer.Close()
		}()
	}
	color.Green("chessterm server started")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGINT,
		syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Int("games", s.Matches()))
	cancel()
	wg.Wait()
}
