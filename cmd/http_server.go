package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/internal/auth"
	authPostgres "github.com/qnxg/yqwork/internal/auth/postgres"
	"github.com/qnxg/yqwork/internal/core/events"
	"github.com/qnxg/yqwork/internal/department"
	departmentPostgres "github.com/qnxg/yqwork/internal/department/postgres"
	"github.com/qnxg/yqwork/internal/permission"
	permissionPostgres "github.com/qnxg/yqwork/internal/permission/postgres"
	"github.com/qnxg/yqwork/internal/role"
	rolePostgres "github.com/qnxg/yqwork/internal/role/postgres"
	"github.com/qnxg/yqwork/internal/transport"
	"github.com/qnxg/yqwork/internal/transport/rest"
	"github.com/qnxg/yqwork/internal/transport/swagger"
	"github.com/qnxg/yqwork/internal/user"
	userPostgres "github.com/qnxg/yqwork/internal/user/postgres"
	"github.com/qnxg/yqwork/internal/workhour"
	workhourPostgres "github.com/qnxg/yqwork/internal/workhour/postgres"
	"github.com/qnxg/yqwork/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Redis    *redis.Client
	Bus      *events.EventBus
	Registry *prometheus.Registry
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if _, err := swagger.Load(context.Background()); err != nil {
		deps.Logger.Error("openapi document is invalid", "error", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	cfg := deps.Config.Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

// close drains in-flight event handlers before releasing connections they may use.
func (d *Dependencies) close() {
	d.Bus.Close()
	if err := d.Redis.Close(); err != nil {
		d.Logger.Error("Redis close error", "error", err)
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func setupRoutes(deps *Dependencies) {
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)
	sec := deps.Config.Security

	permissionService := permission.NewService(
		permissionPostgres.NewPermissionRepository(deps.Gorm),
		permissionPostgres.NewLookup(deps.DB),
		lg.With("component", "permission"),
	)
	roleService := role.NewService(rolePostgres.NewRoleRepository(deps.Gorm), permissionService, lg.With("component", "role"))
	departmentService := department.NewService(departmentPostgres.NewDepartmentRepository(deps.Gorm), lg.With("component", "department"))

	hasher := auth.NewBcryptHasher(sec.BCryptCost)
	userService := user.NewService(userPostgres.NewUserRepository(deps.Gorm), departmentService, roleService, hasher, lg.With("component", "user"))

	authService := auth.NewService(
		authPostgres.NewRepository(deps.Gorm),
		userService,
		permissionService,
		auth.NewJWTTokenGenerator(sec.JWTAccessSecret, sec.JWTRefreshSecret, sec.AccessTokenDuration, sec.RefreshTokenDuration),
		auth.NewRedisRevocationStore(deps.Redis),
		hasher,
		lg.With("component", "auth"),
	)

	workhourRepo := workhourPostgres.NewWorkHourRepository(deps.Gorm)
	workhourService := workhour.NewService(workhourRepo, userService, departmentService, lg.With("component", "workhour"))
	workflow := workhour.NewWorkflow(workhourRepo, userService, deps.Bus, workhour.NewMetrics(deps.Registry), lg.With("component", "workflow"))

	obs := deps.Config.Observability.Metrics
	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Health:     rest.NewHealthHandler(deps.DB.DB, deps.Redis),
		Auth:       auth.NewHandler(base, authService),
		Permission: permission.NewHandler(base, permissionService),
		Role:       role.NewHandler(base, roleService),
		Department: department.NewHandler(base, departmentService),
		User:       user.NewHandler(base, userService, roleService),
		WorkHour:   workhour.NewHandler(base, workhourService, workflow),
	}, rest.RouterOptions{
		IsDevelopment:          deps.Config.Env != "production",
		MetricsEnabled:         obs.Enabled,
		MetricsPath:            obs.Path,
		Gatherer:               deps.Registry,
		LoginRequestsPerMinute: deps.Config.RateLimit.LoginRequestsPerMinute,
		AllowedOrigins:         deps.Config.Server.Origins(),
	}, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db, config.Env)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	rdb, err := initRedis(config.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, "postgres"),
	)

	bus := events.NewEventBus(lg.With("component", "events"))
	events.RegisterAuditLog(bus, lg)

	return &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gdb,
		Redis:    rdb,
		Bus:      bus,
		Registry: registry,
		Router:   chi.NewRouter(),
		Logger:   lg,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see the same connections.
func initGorm(db *sqlx.DB, env string) (*gorm.DB, error) {
	level := gormLogger.Warn
	if env == "development" {
		level = gormLogger.Info
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
	})
}

func initRedis(cfg internal.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := internal.WithTimeout(context.Background(), 0)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
