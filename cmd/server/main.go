package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"spritesync/internal/config"
	"spritesync/internal/feed"
	"spritesync/internal/game"
	"spritesync/internal/maps"
	"spritesync/internal/server"
	"spritesync/internal/sheet"
)

func main() {
	configPath := flag.String("config", os.Getenv("SPRITESYNC_CONFIG"), "path to an INI config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Log.SlogLevel()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	// Generate host key if it doesn't exist
	if err := ensureHostKey(cfg.Server.HostKey, log); err != nil {
		return fmt.Errorf("host key: %w", err)
	}

	// Load all maps from directory
	allMaps, err := maps.LoadMaps(cfg.Assets.MapsDir)
	if err != nil || len(allMaps) == 0 {
		log.Warn("using default map", "dir", cfg.Assets.MapsDir, "err", err)
		dm := maps.DefaultMap()
		allMaps = map[string]*maps.Map{dm.Name: dm}
	}
	for name, m := range allMaps {
		log.Info("map loaded", "name", name, "width", m.Width, "height", m.Height,
			"portals", len(m.Portals), "events", len(m.Events))
	}
	for _, err := range maps.Validate(allMaps) {
		log.Warn("map problem", "err", err)
	}

	sheets, err := sheet.LoadRegistry(cfg.Assets.SheetsDir)
	if err != nil {
		return fmt.Errorf("load sheets from %s: %w", cfg.Assets.SheetsDir, err)
	}
	defer sheets.Close()
	log.Info("sheets loaded", "names", sheets.Names())

	hub := feed.NewHub(log.With("component", "feed"))
	world := game.NewWorld(allMaps, cfg.Assets.DefaultMap)
	loop := game.NewLoop(world, game.LoopOptions{
		TickRate:  cfg.Server.TickRate,
		Publisher: hub,
		Logger:    log.With("component", "game"),
		Seed:      uint64(time.Now().UnixNano()),
	})

	sshServer, err := server.NewSSHServer(server.Config{
		Addr:       cfg.Server.SSHAddr,
		HostKey:    cfg.Server.HostKey,
		SnapFactor: cfg.Reconcile.SnapFactor,
		Logger:     log.With("component", "ssh"),
	}, loop, world, sheets)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/feed", hub)
	httpServer := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return loop.Run(ctx) })
	g.Go(sshServer.ListenAndServe)
	g.Go(func() error {
		log.Info("frame feed listening", "addr", cfg.Server.HTTPAddr, "path", "/feed")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Join(sshServer.Shutdown(shutdownCtx), httpServer.Shutdown(shutdownCtx))
	})

	log.Info("connect with: ssh -p <port> YourName@localhost", "addr", cfg.Server.SSHAddr)
	return g.Wait()
}

func ensureHostKey(path string, log *slog.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil // key already exists
	}

	log.Info("generating new host key", "path", path)
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	keyBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}

	pemBlock := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: keyBytes,
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return pem.Encode(f, pemBlock)
}
