package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"clinical-rx-core/internal/adapters/auth/remote"
	pg "clinical-rx-core/internal/adapters/storage/postgres"
	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/platform/config"
	"clinical-rx-core/internal/platform/logger"
	"clinical-rx-core/internal/platform/metrics"
	"clinical-rx-core/internal/ports/auth"
	"clinical-rx-core/internal/router"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	opts := router.Options{
		Logger:          log,
		Metrics:         metrics.New(),
		Policy:          auditPolicy(cfg.Audit),
		CodeLength:      cfg.Prescriptions.CodeLength,
		Validity:        cfg.Prescriptions.DefaultValidity(),
		MaxCodeAttempts: cfg.Prescriptions.MaxCodeAttempts,
		SessionTTL:      cfg.Redis.SessionTTL(),
		SeedUsers:       seedUsers(cfg.Bootstrap),
	}

	if cfg.Database.DSN != "" {
		db, err := openDB(ctx, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.DB = db
		log.Info("storage: postgres", nil)
	} else {
		log.Warn("storage: in-memory (database.dsn empty), data is lost on restart", nil)
	}

	if cfg.Redis.Addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		opts.Redis = rdb
		log.Info("dispense sessions: redis", map[string]any{"addr": cfg.Redis.Addr})
	}

	verifier, err := authVerifier(cfg.Auth)
	if err != nil {
		return err
	}
	if verifier == nil {
		log.Warn("auth: dev mode, X-Debug-User-ID is trusted", nil)
	}
	opts.AuthVerifier = verifier

	h, err := router.NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
		File: logger.FileOptions{
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := pg.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// authVerifier devuelve nil (modo dev) si no hay proveedor configurado.
func authVerifier(cfg config.AuthConfig) (auth.AuthVerifier, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	c, err := remote.NewClient(remote.Config{
		BaseURL:      cfg.VerifierURL,
		APIKey:       cfg.APIKey,
		APIKeyHeader: cfg.APIKeyHeader,
		VerifyPath:   cfg.VerifyPath,
		Timeout:      cfg.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("auth verifier: %w", err)
	}
	return remote.NewVerifier(c), nil
}

func auditPolicy(cfg config.AuditConfig) audit.Policy {
	ranges := make(map[string]audit.DoseRange, len(cfg.DosageRanges))
	for _, r := range cfg.DosageRanges {
		ranges[r.Medicine] = audit.DoseRange{
			MinMg:          r.MinMg,
			MaxMg:          r.MaxMg,
			MaxTimesPerDay: r.MaxTimesPerDay,
		}
	}
	return audit.NewPolicy(cfg.ControlledSubstances, ranges)
}

func seedUsers(cfg config.BootstrapConfig) []identity.RegisterUserInput {
	out := make([]identity.RegisterUserInput, 0, len(cfg.Users))
	for _, u := range cfg.Users {
		out = append(out, identity.RegisterUserInput{
			ID:   u.ID,
			Name: u.Name,
			Role: identity.Role(u.Role),
		})
	}
	return out
}
