package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/config"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	appHTTP "github.com/cmlabs-hris/academy-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/academy-backend-go/internal/repository/mongodb"
	"github.com/cmlabs-hris/academy-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/academy-backend-go/internal/service/file"
	permissionService "github.com/cmlabs-hris/academy-backend-go/internal/service/permission"
	punchService "github.com/cmlabs-hris/academy-backend-go/internal/service/punch"
	reportService "github.com/cmlabs-hris/academy-backend-go/internal/service/report"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "academy-backend"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	permissionRepo := postgresql.NewPermissionRepository(db)

	var punchRepo punch.PunchRepository
	switch cfg.App.PunchStore {
	case config.PunchStoreMongo:
		mongoDB, err := mongodb.NewMongoDB(cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoDB.Close(closeCtx); err != nil {
				slog.Warn("Failed to disconnect MongoDB", "error", err)
			}
		}()

		punchRepo, err = mongodb.NewPunchStore(ctx, mongoDB)
		if err != nil {
			return err
		}
	default:
		punchRepo = postgresql.NewPunchRepository(db)
	}
	slog.Info("Punch store selected", "store", cfg.App.PunchStore, "timezone", loc.String())

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("initialize local storage: %w", err)
	}

	m := metrics.New()
	hub := sse.NewHub()
	m.WatchStream(hub, sse.TopicPunches)
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	fileSvc := file.NewFileService(fileStorage)
	permissionSvc := permissionService.NewPermissionService(permissionRepo, userRepo)
	punchSvc := punchService.NewPunchService(punchRepo, permissionSvc, fileSvc, hub, m, loc)
	reportSvc := reportService.NewReportService(punchRepo, userRepo)

	scheduler := cron.NewScheduler()
	cron.NewPunchJobs(punchRepo, m, loc).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Logger:            logger,
		LogLevel:          slog.LevelInfo,
		AllowedOrigins:    cfg.App.CORSAllowedOrigins,
		JWTService:        jwtService,
		Authorizer:        permissionSvc,
		PunchHandler:      appHTTP.NewPunchHandler(punchSvc),
		PermissionHandler: appHTTP.NewPermissionHandler(permissionSvc),
		ReportHandler:     appHTTP.NewReportHandler(reportSvc),
		StreamHandler:     appHTTP.NewStreamHandler(hub, jwtService, permissionSvc),
		Metrics:           m.Handler(),
		UploadsDir:        cfg.Storage.BasePath,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end on shutdown so open SSE streams return
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
