package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"polito-log/internal/auth"
	"polito-log/internal/config"
	"polito-log/internal/email"
	apphttp "polito-log/internal/http"
	"polito-log/internal/repository/sqlite"
	"polito-log/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	linkRepo := sqlite.NewMagicLinkRepository(db)
	statementRepo := sqlite.NewStatementRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := linkRepo.Init(ctx); err != nil {
		logger.Fatalf("init magic link repository: %v", err)
	}
	if err := statementRepo.Init(ctx); err != nil {
		logger.Fatalf("init statement repository: %v", err)
	}

	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{
		Secret:    cfg.Auth.JWTSecret,
		Algorithm: cfg.Auth.JWTAlgorithm,
		TokenTTL:  time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
		Issuer:    "polito-log",
	})
	if err != nil {
		logger.Fatalf("setup jwt: %v", err)
	}

	sender, err := buildSender(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup email sender: %v", err)
	}

	authService := service.NewAuthService(userRepo, linkRepo, sender, jwtManager, service.AuthConfig{
		LinkTTL:     time.Duration(cfg.Auth.LinkTTLMinutes) * time.Minute,
		FrontendURL: cfg.Frontend.BaseURL,
	}, logger)
	statementService := service.NewStatementService(statementRepo)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, statementService, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildSender(ctx context.Context, cfg config.Config, logger *logrus.Logger) (email.Sender, error) {
	switch cfg.Email.Provider {
	case "", "console":
		logger.Info("using console email sender")
		return email.NewConsoleSender(logger), nil
	case "ses":
		loadOpts := []func(*awscfg.LoadOptions) error{
			awscfg.WithRegion(cfg.AWS.Region),
		}
		if cfg.AWS.Profile != "" {
			loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
		}

		awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		client := sesv2.NewFromConfig(awsCfg)
		logger.Infof("using ses email sender %s (region %s)", cfg.Email.SenderAddress, cfg.AWS.Region)
		return email.NewSESSender(client, cfg.Email.SenderAddress, cfg.Email.SenderName), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}
