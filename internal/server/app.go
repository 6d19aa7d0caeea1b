// Package server wires the eatsauth components together and runs them: the
// gRPC endpoint, the Prometheus metrics endpoint, background mail delivery
// and tracing, with graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/eatsauth/internal/logging"
	"github.com/dmitrijs2005/eatsauth/internal/server/auth"
	"github.com/dmitrijs2005/eatsauth/internal/server/config"
	"github.com/dmitrijs2005/eatsauth/internal/server/mail"
	"github.com/dmitrijs2005/eatsauth/internal/server/passwords"
	"github.com/dmitrijs2005/eatsauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eatsauth/internal/server/services"
	"github.com/dmitrijs2005/eatsauth/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gs "github.com/dmitrijs2005/eatsauth/internal/server/grpc"
)

const serviceName = "eatsauth"

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	notifier        *mail.Notifier
	grpcServer      *gs.GRPCServer
	registry        *prometheus.Registry
	shutdownTracing telemetry.Shutdown
}

var setupTracing = telemetry.SetupTracing

// NewApp builds every dependency from c. The database must be reachable;
// pending migrations are applied.
func NewApp(ctx context.Context, c *config.Config) (_ *App, err error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	shutdownTracing, err := setupTracing(ctx, serviceName, c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = shutdownTracing(context.WithoutCancel(ctx))
		}
	}()

	hasher, err := passwords.NewBcrypt(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:   []byte(c.SecretKey),
		Validity: c.TokenValidityDuration,
	})
	if err != nil {
		return nil, err
	}

	sender, err := newSender(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("mail init error: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, serviceName),
	)
	metrics, err := gs.NewMetrics(registry)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	notifier := mail.NewNotifier(sender, logger, c.MailTimeout)
	verifications := services.NewVerificationService(db, rm, logger)
	accounts := services.NewAccountService(db, rm, verifications, hasher, tokens, notifier, logger)

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		notifier:        notifier,
		grpcServer:      gs.NewGRPCServer(c.EndpointAddrGRPC, logger, accounts, tokens, metrics),
		registry:        registry,
		shutdownTracing: shutdownTracing,
	}, nil
}

func newSender(ctx context.Context, c *config.Config, logger logging.Logger) (mail.Sender, error) {
	switch c.MailSender {
	case config.MailSenderS3:
		return mail.NewS3Sender(ctx, mail.S3Config{
			Region:       c.S3Region,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			From:         c.MailFrom,
			VerifyURL:    c.MailVerifyURL,
		})
	case config.MailSenderLog, "":
		return mail.NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail sender %q", c.MailSender)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

// serveMetrics exposes the registry on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "Starting metrics server", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until a termination signal arrives or ctx is cancelled, then
// drains in-flight mail and releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveMetrics(ctx, app.config.MetricsAddr, app.registry, app.logger); err != nil {
				app.logger.Error(ctx, "metrics server failed", "error", err)
				cancelFunc()
			}
		}()
	}

	wg.Wait()
	app.close()
}

func (app *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app.notifier.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	if err := app.shutdownTracing(ctx); err != nil {
		app.logger.Error(ctx, "tracing shutdown error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")

	if z, ok := app.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}
