// Package main initializes and starts the PassKeeper server, setting up
// configuration, logging, database connections, repositories, services,
// handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/PassKeeper/internal/config"
	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/atinyakov/PassKeeper/internal/logger"
	"github.com/atinyakov/PassKeeper/internal/repository"
	"github.com/atinyakov/PassKeeper/internal/secure"
	"github.com/atinyakov/PassKeeper/internal/server/handler/http"
	"github.com/atinyakov/PassKeeper/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The key is resolved once; nothing is sealed with a missing key.
	keys, err := options.KeyProvider()
	if err != nil {
		zapLogger.Fatal("cannot resolve secret key", zap.Error(err))
	}
	cipher, err := secure.NewCipher(keys)
	if err != nil {
		zapLogger.Fatal("cannot init cipher", zap.Error(err))
	}
	hasher := secure.NewHasher(secure.DefaultHashParams)

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	if options.CleanupInterval > 0 {
		db.StartInactiveUserCleaner(ctx, postgresDB,
			options.CleanupInterval,
			options.CleanupRetention,
			zapLogger,
		)
	}

	txm := db.NewTxManager(postgresDB)
	historyRecorder := service.NewHistoryRecorder(postgresDB, repository.NewPostgresHistoryRepository())
	secretService := service.NewSecretService(txm, postgresDB,
		repository.NewPostgresSecretRepository(),
		historyRecorder,
		cipher,
		zapLogger,
	)
	userService := service.NewUserService(postgresDB, repository.NewPostgresUserRepository(), hasher, zapLogger)
	categoryService := service.NewCategoryService(postgresDB, repository.NewPostgresCategoryRepository())

	router := http.NewRouter(http.Handlers{
		Users:      &http.UserHandler{UserService: userService, Logger: zapLogger},
		Secrets:    &http.SecretHandler{SecretService: secretService, Logger: zapLogger},
		History:    &http.HistoryHandler{HistoryService: historyRecorder, Logger: zapLogger},
		Categories: &http.CategoryHandler{CategoryService: categoryService, Logger: zapLogger},
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSEnabled() {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
