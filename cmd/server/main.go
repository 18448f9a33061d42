package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"expense-tracker/internal/auth"
	"expense-tracker/internal/config"
	apphttp "expense-tracker/internal/http"
	"expense-tracker/internal/repository/sqlstore"
	"expense-tracker/internal/service"
	"expense-tracker/internal/storage"
	"expense-tracker/web"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := configureLogger(logger, cfg); err != nil {
		logger.Fatalf("configure logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("server: %v", err)
	}
	logger.Info("bye")
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	db, err := sqlstore.Open(sqlstore.Options{
		Driver:       cfg.Database.Driver,
		Path:         cfg.Database.Path,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Name:         cfg.Database.Name,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	userRepo := sqlstore.NewUserRepository(db)
	expenseRepo := sqlstore.NewExpenseRepository(db)

	schema := sqlstore.NewSchema(userRepo, expenseRepo)

	// A store that is down at boot is reported by /health and the schema is
	// retried on later requests; the API keeps serving.
	if err := db.Ping(ctx); err != nil {
		logger.Warnf("database unreachable at startup: %v", err)
	} else if err := schema.Ensure(ctx); err != nil {
		logger.Warnf("init schema: %v", err)
	}

	tokens, err := buildTokenIssuer(cfg, logger)
	if err != nil {
		return err
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}

	handler, err := apphttp.NewHandler(apphttp.Options{
		DB:       db,
		Schema:   schema,
		Users:    service.NewUserService(userRepo, auth.NewPasswordHasher(cfg.Auth.BcryptCost)),
		Expenses: service.NewExpenseService(expenseRepo),
		Exports: service.NewExportService(expenseRepo, storageSvc, service.ExportConfig{
			Bucket:    cfg.Storage.Bucket,
			KeyPrefix: cfg.Storage.KeyPrefix,
			URLTTL:    time.Duration(cfg.Storage.URLTTLMinutes) * time.Minute,
		}),
		Tokens:       tokens,
		RequireToken: cfg.Auth.RequireToken,
		Static:       web.StaticFS(),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on %s (driver %s)", cfg.Addr(), cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("http shutdown: %v", err)
		}
		return nil
	})

	return g.Wait()
}

func configureLogger(logger *logrus.Logger, cfg config.Config) error {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	return nil
}

func buildTokenIssuer(cfg config.Config, logger *logrus.Logger) (*auth.TokenIssuer, error) {
	secret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if secret == "" {
		generated, err := auth.RandomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		logger.Warn("AUTH_JWT_SECRET not set; tokens will not survive a restart")
		secret = generated
	}
	return auth.NewTokenIssuer(secret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute), nil
}

// buildStorage returns a nil service when no bucket is configured, which
// disables the export routes.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not set; expense export disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
