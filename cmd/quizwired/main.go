// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quizwire/quizwire/internal/api"
	"github.com/quizwire/quizwire/internal/config"
	"github.com/quizwire/quizwire/internal/dispatch"
	"github.com/quizwire/quizwire/internal/game"
	xlog "github.com/quizwire/quizwire/internal/log"
	"github.com/quizwire/quizwire/internal/quiz"
	"github.com/quizwire/quizwire/internal/session"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

const quizCacheTTL = 5 * time.Minute

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg := config.FromEnv()

	xlog.Configure(xlog.Config{
		Level:   cfg.LogLevel,
		Service: "quizwire",
	})
	logger := xlog.WithComponent("daemon")

	if err := cfg.Validate(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.invalid").
			Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := session.Connect(session.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	}, logger)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "redis.connect_failed").
			Str("addr", cfg.RedisAddr).
			Msg("failed to connect to redis")
	}
	defer func() {
		_ = rdb.Close()
	}()

	store := session.NewStore(rdb, session.Options{
		Expiry:          cfg.SessionExpiry,
		MaxParticipants: cfg.MaxParticipants,
	}, xlog.WithComponent("session"))

	quizzes := quiz.NewCachedStore(quiz.NewHTTPStore(cfg.QuizServiceURL), quizCacheTTL)
	ctrl := game.NewController(store, quizzes, cfg.QuestionTime, xlog.WithComponent("game"))
	dispatcher := dispatch.New(store, ctrl, dispatch.Options{
		ReconnectGrace: cfg.ReconnectionTimeout,
	}, xlog.WithComponent("dispatch"))

	srv := api.NewServer(store, quizzes, ctrl, dispatcher, api.Options{
		RateLimitRPM: cfg.RateLimitRPM,
		QuestionTime: cfg.QuestionTime,
	}, xlog.Base())

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("event", "server.listening").
			Str("addr", cfg.ListenAddr).
			Str("version", version).
			Msg("quizwire daemon started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().
				Err(err).
				Str("event", "server.failed").
				Msg("http server terminated")
		}
	}()

	<-ctx.Done()
	logger.Info().
		Str("event", "server.shutdown_started").
		Msg("shutting down")

	// Tell connected clients the server is going away before closing
	// the listener.
	dispatcher.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "server.shutdown_error").
			Msg("graceful shutdown failed")
	}

	logger.Info().
		Str("event", "server.stopped").
		Msg("quizwire daemon stopped")
}
