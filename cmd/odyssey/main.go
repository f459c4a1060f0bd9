package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-iam/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-iam/internal/app"
	jobmetrics "github.com/odyssey-erp/odyssey-iam/internal/jobs"
	"github.com/odyssey-erp/odyssey-iam/internal/observability"
	"github.com/odyssey-erp/odyssey-iam/internal/permissions"
	"github.com/odyssey-erp/odyssey-iam/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-iam/internal/platform/db"
	"github.com/odyssey-erp/odyssey-iam/internal/platform/memstore"
	"github.com/odyssey-erp/odyssey-iam/internal/roles"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
	"github.com/odyssey-erp/odyssey-iam/jobs"
	"github.com/odyssey-erp/odyssey-iam/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		cfg    *app.Config
		logger = slog.Default()
	)
	root := cli.NewRootCommand(cli.Actions{
		Prepare: func(context.Context) error {
			loaded, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg, logger = loaded, app.NewLogger(loaded)
			return nil
		},
		Serve: func(ctx context.Context) error {
			return serve(ctx, cfg, logger)
		},
		Migrate: func(args []string, out io.Writer) error {
			return migrate(cfg, args, out)
		},
		JobsStats: func(_ context.Context, out io.Writer) error {
			return jobsStats(cfg, out)
		},
		JobsTrigger: func(ctx context.Context, task string, retentionDays int, out io.Writer) error {
			if retentionDays == cli.DefaultRetentionDays {
				retentionDays = cfg.AuditRetentionDays
			}
			return jobsTrigger(ctx, cfg, task, retentionDays, out)
		},
		Seed: func(ctx context.Context, out io.Writer) error {
			return seed(ctx, cfg, out)
		},
	})
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("odyssey", slog.Any("error", err))
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()
	var readiness []app.ReadinessCheck

	var repos app.Repositories
	switch cfg.StoreDriver {
	case app.StoreDriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		repos = app.MemoryRepositories(memstore.New())
	default:
		if cfg.MigrateOnStart {
			if err := migrateUp(cfg, logger); err != nil {
				return err
			}
		}
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		repos = app.PostgresRepositories(pool)
		readiness = append(readiness, app.ReadinessCheck{Name: "postgres", Check: pool.Ping})
	}

	var (
		audit       shared.AuditPublisher
		idempotency *shared.IdempotencyStore
		jobHandler  = jobs.NewHandler(nil, logger)
	)
	if cfg.RedisAddr != "" {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer closeWith(logger, "redis", redisClient.Close)
		readiness = append(readiness, app.ReadinessCheck{Name: "redis", Check: cache.Ping(redisClient)})
		idempotency = shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)

		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient := jobs.NewClient(redisOpts)
		defer closeWith(logger, "asynq client", jobClient.Close)
		audit = jobs.NewAuditEnqueuer(jobClient, logger, jobmetrics.NewMetrics(metrics.Registerer()))

		inspector := asynq.NewInspector(redisOpts)
		defer closeWith(logger, "inspector", inspector.Close)
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		logger.Warn("REDIS_ADDR empty, idempotency keys and audit trail disabled")
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Handlers:       app.NewHandlers(logger, repos, audit, cfg.Pagination()),
		JobHandler:     jobHandler,
		Metrics:        metrics,
		Idempotency:    idempotency,
		Readiness:      readiness,
		RequestLogging: true,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func migrateUp(cfg *app.Config, logger *slog.Logger) error {
	migrator, err := db.NewMigrator(migrations.FS, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer closeWith(logger, "migrator", migrator.Close)
	if err := migrator.Up(); err != nil {
		return err
	}
	version, _, err := migrator.Version()
	if err != nil {
		return err
	}
	logger.Info("schema migrated", slog.Uint64("version", uint64(version)))
	return nil
}

func migrate(cfg *app.Config, args []string, out io.Writer) (err error) {
	migrator, err := db.NewMigrator(migrations.FS, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, migrator.Close())
	}()
	return cli.RunMigrate(migrator, args, out)
}

func jobsStats(cfg *app.Config, out io.Writer) (err error) {
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() {
		err = errors.Join(err, jobsCLI.Close())
	}()
	info, err := jobsCLI.Stats()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "queue=%s pending=%d active=%d retry=%d archived=%d\n", info.Queue, info.Pending, info.Active, info.Retry, info.Archived)
	return err
}

func jobsTrigger(ctx context.Context, cfg *app.Config, task string, retentionDays int, out io.Writer) (err error) {
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() {
		err = errors.Join(err, jobsCLI.Close())
	}()
	info, err := jobsCLI.Trigger(ctx, task, retentionDays)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return err
}

func seed(ctx context.Context, cfg *app.Config, out io.Writer) error {
	if cfg.StoreDriver == app.StoreDriverMemory {
		return fmt.Errorf("%w: seed requires STORE_DRIVER=postgres", cli.ErrUsage)
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	repos := app.PostgresRepositories(pool)
	seeder := cli.NewSeeder(roles.NewService(repos.Roles, nil), permissions.NewService(repos.Permissions, nil))
	return seeder.Run(ctx, out)
}

func closeWith(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn(name+" close", slog.Any("error", err))
	}
}
