// Package server wires the configured record store, account service,
// and HTTP API into a running daemon.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/astaXmjy/s3BucMg/internal/account"
	"github.com/astaXmjy/s3BucMg/internal/audit"
	"github.com/astaXmjy/s3BucMg/internal/auth"
	"github.com/astaXmjy/s3BucMg/internal/config"
	"github.com/astaXmjy/s3BucMg/internal/httpapi"
	"github.com/astaXmjy/s3BucMg/internal/store"
	"github.com/astaXmjy/s3BucMg/internal/store/dynamostore"
	"github.com/astaXmjy/s3BucMg/internal/store/memstore"
	"github.com/astaXmjy/s3BucMg/internal/store/sqlitestore"
)

type Options struct {
	Config config.Config
	Logger *slog.Logger
}

// OpenStore builds the record store the config selects. Callers own
// the returned store and must Close it.
func OpenStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Backend {
	case "sqlite":
		return sqlitestore.Open(ctx, sc.SQLite.Path)
	case "dynamo":
		return dynamostore.Open(dynamostore.Options{
			Table:           sc.Dynamo.Table,
			Region:          sc.Dynamo.Region,
			CredentialsFile: sc.Dynamo.CredentialsFile,
			Profile:         sc.Dynamo.Profile,
		})
	case "memory":
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
}

// OpenService opens the configured store and builds the account
// service around it. The caller must Close the returned store.
func OpenService(ctx context.Context, cfg config.Config, lg *slog.Logger) (*account.Service, store.Store, error) {
	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	defaults, err := cfg.DefaultSet()
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return account.NewService(st, defaults, audit.NewLogRecorder(lg)), st, nil
}

// Run starts the HTTP API and blocks until the listener fails or ctx
// is cancelled. Cancellation drains in-flight requests before return.
func Run(ctx context.Context, opt Options) error {
	lg := opt.Logger
	if lg == nil {
		lg = slog.Default()
	}
	cfg := opt.Config

	svc, st, err := OpenService(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer st.Close()

	secret, err := readSecret(cfg.Auth.JWTSecretFile)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokens(secret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if err != nil {
		return err
	}

	api := &httpapi.Server{
		Accounts: svc,
		Tokens:   tokens,
		Logger:   lg,
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Bind + ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	lg.Info("api listening", "addr", srv.Addr, "store", cfg.Store.Backend)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func readSecret(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("auth.jwt_secret_file is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jwt secret: %w", err)
	}
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b, nil
}
