package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"forum-sentinel/app/api"
	"forum-sentinel/app/bot"
	"forum-sentinel/app/cfg"
	"forum-sentinel/app/forum"
	"forum-sentinel/app/pipeline"
	"forum-sentinel/app/scanner"
	"forum-sentinel/app/store"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appConfig.Debug)
	slog.Info("Starting forum-sentinel", "version", appConfig.Version)

	db, err := store.Open(appConfig.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := store.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	watermarkRepo := store.NewWatermarkRepository(db)
	keyRepo := store.NewKeyRepository(db)

	gateway, err := bot.NewGateway(appConfig.DiscordToken)
	if err != nil {
		slog.Error("Failed to create Discord gateway", "error", err)
		os.Exit(1)
	}

	patterns, err := scanner.LoadPatterns(appConfig.PatternsFile)
	if err != nil {
		slog.Error("Failed to load key patterns", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	prober := scanner.NewHTTPProber(appConfig.ProbeURL, appConfig.UserAgent, httpClient)
	finder := scanner.NewFinder(patterns, prober, gateway, keyRepo, appConfig.KeyChannel,
		time.Duration(appConfig.RevalidateInterval)*time.Millisecond)

	forumClient := forum.NewClient(appConfig.ForumURL, appConfig.ForumUsername,
		appConfig.ForumPassword, appConfig.UserAgent, httpClient)

	reader := pipeline.NewReader(forumClient, gateway, finder, watermarkRepo,
		forum.NewFormatter(), forumClient.BaseURL(), appConfig.NotifyChannel,
		time.Duration(appConfig.PollInterval)*time.Millisecond, appConfig.MaxAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := finder.LoadKeys(ctx); err != nil {
		slog.Error("Failed to load tracked keys", "error", err)
		os.Exit(1)
	}
	if err := reader.LoadWatermarks(ctx); err != nil {
		slog.Error("Failed to load watermarks", "error", err)
		os.Exit(1)
	}

	gateway.SetMessageHandler(func(author, content, channel string, postedAt time.Time) {
		finder.FindKey(ctx, author, content, "Discord, in "+channel, postedAt)
	})

	if err := gateway.Open(); err != nil {
		slog.Error("Failed to connect to Discord", "error", err)
		os.Exit(1)
	}
	defer gateway.Close()
	slog.Info("Connected to Discord")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reader.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		finder.Run(ctx)
	}()

	handler := api.NewHandler(reader, finder, appConfig.Version)
	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      api.NewServer(handler, appConfig.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
