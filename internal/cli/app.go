package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pamadmin/internal/amqp"
	"pamadmin/internal/backend"
	"pamadmin/internal/cache"
	"pamadmin/internal/config"
	"pamadmin/internal/core"
	apphttp "pamadmin/internal/http"
	"pamadmin/internal/log"
	"pamadmin/internal/report"
	"pamadmin/internal/services"
	"pamadmin/internal/session"
	"pamadmin/internal/storage"
	"pamadmin/internal/worker"
)

const (
	amqpDialAttempts = 5
	cacheSweepEvery  = time.Minute
)

// App holds everything the commands share: the record store, the audit
// log and the services built on them.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Clock  func() time.Time

	Backend    *backend.BackendResult
	Audit      *storage.SQLiteRepository
	Auth       *session.Authenticator
	Users      *services.UserService
	Attendance *services.AttendanceService
	Payroll    *services.PayrollService
	Sheets     apphttp.Exporter
	Janitor    *cache.Janitor

	broker  *amqp.Client
	closers []func() error
}

// Build wires the app from cfg. Status changes go through the broker when
// AMQP is configured and straight into the audit log otherwise.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger, clock func() time.Time) (*App, error) {
	if clock == nil {
		clock = time.Now
	}
	app := &App{Config: cfg, Logger: logger, Clock: clock}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	bcfg.Clock = clock
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	app.Backend = result
	if result.Cleanup != nil {
		app.closers = append(app.closers, result.Cleanup)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	app.Audit = repo
	app.closers = append(app.closers, repo.Close)
	logger.Info("Audit log ready", log.FieldPath, cfg.SQLiteDBPath)

	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqpDialAttempts)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("connect to AMQP: %w", err)
		}
		app.broker = client
		app.closers = append(app.closers, client.Close)
		publisher = client
		logger.Info("Publishing status changes to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		publisher = worker.NewInlinePublisher(worker.NewAuditWorker(repo, logger))
		logger.Info("AMQP not configured, writing audit log inline")
	}

	var sessions session.Store = session.NewMemoryStore()
	if cfg.SessionStore == config.SessionStoreSQLite {
		sessions = repo
	}
	app.Auth = session.NewAuthenticator(cfg.AdminUsername, cfg.AdminPassword, sessions)

	usersCache := cache.NewLRUCacheWithClock[[]core.User](1, 30*time.Second, clock)
	app.Janitor = cache.NewJanitor(logger)
	app.Janitor.Register(usersCache)

	store := result.Store
	editor := services.NewStatusEditor(store, publisher, logger, clock)
	app.Users = services.NewUserService(store, editor, usersCache, logger)
	app.Attendance = services.NewAttendanceService(store, editor, repo, logger)
	app.Payroll = services.NewPayrollService(store, cfg.PayrollConcurrency, logger)

	if cfg.SheetsExportEnabled() {
		exporter, err := report.NewSheetsExporter(ctx, report.SheetsConfig{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("google sheets export: %w", err)
		}
		app.Sheets = exporter
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	return app, nil
}

// ReadyChecks reports the record store and the audit log.
func (a *App) ReadyChecks() []apphttp.ReadyCheck {
	return []apphttp.ReadyCheck{
		{Name: "attendance store", Check: a.Backend.Ping},
		{Name: "audit log", Check: a.Audit.Ping},
	}
}

// ServerDeps maps the app onto the HTTP server's dependencies.
func (a *App) ServerDeps() apphttp.Deps {
	return apphttp.Deps{
		Auth:           a.Auth,
		Users:          a.Users,
		Attendance:     a.Attendance,
		Payroll:        a.Payroll,
		Sheets:         a.Sheets,
		Ready:          a.ReadyChecks(),
		Clock:          a.Clock,
		Logger:         a.Logger,
		RequestTimeout: a.Config.RequestTimeout,
		SecureCookies:  a.Config.SecureCookies,
		RateLimit:      a.Config.RateLimitPerMinute,
	}
}

// AdminSession logs the command line in as the configured admin.
func (a *App) AdminSession(ctx context.Context) (session.Session, error) {
	return a.Auth.Login(ctx, a.Config.AdminUsername, a.Config.AdminPassword)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
