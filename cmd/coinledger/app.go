package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/qgfurioso/coinledger/internal/db"
	"github.com/qgfurioso/coinledger/internal/handlers"
	"github.com/qgfurioso/coinledger/internal/logger"
	"github.com/qgfurioso/coinledger/internal/repository/postgres"
	"github.com/qgfurioso/coinledger/internal/service/auth"
	"github.com/qgfurioso/coinledger/internal/service/auth/tokenmanager"
	"github.com/qgfurioso/coinledger/internal/service/ledger"
	"github.com/qgfurioso/coinledger/internal/service/redemptionprocessor"
	"github.com/qgfurioso/coinledger/internal/service/store"
	"github.com/qgfurioso/coinledger/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	processor *redemptionprocessor.Processor
	logger    logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(auth.DefaultHasher, storage, user.Config{SignupBonus: c.SignupBonus})
	ledgerService := ledger.NewService(storage)
	storeService := store.NewService(storage)
	authService, err := auth.NewService(auth.Config{}, tokenManager, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	// Background fulfillment of pending redemptions
	processor := redemptionprocessor.New(logger, storeService)

	mux := handlers.NewRouter(
		authService,
		ledgerService,
		storeService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		processor:  processor,
		logger:     logger,
	}, nil
}

// Run starts the redemption processor and http server
// Both close gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	processorStopped := s.processor.Process(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-processorStopped

	return err
}
