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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"secureapp/internal/config"
	apphttp "secureapp/internal/http"
	"secureapp/internal/password"
	"secureapp/internal/repository"
	memoryrepo "secureapp/internal/repository/memory"
	mongorepo "secureapp/internal/repository/mongo"
	"secureapp/internal/repository/sqlite"
	"secureapp/internal/service"
	"secureapp/internal/token"
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

	users, cleanup, err := buildUserRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup user store: %v", err)
	}
	defer cleanup()

	if err := users.Init(ctx); err != nil {
		logger.Fatalf("init user store: %v", err)
	}

	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := token.NewService(
		[]byte(cfg.Auth.JWTSecret),
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour,
	)
	authService := service.NewAuthService(
		users,
		hasher,
		tokens,
		time.Duration(cfg.Auth.ResetTTLMinutes)*time.Minute,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, logger)
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

// buildUserRepository selects the user directory backend from config. The
// returned cleanup closes whatever connection the backend holds.
func buildUserRepository(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.UserRepository, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Store.Driver)) {
	case "memory":
		logger.Warn("using volatile in-memory user store; users are lost on restart")
		return memoryrepo.NewUserRepository(), func() {}, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Infof("using sqlite user store at %s", cfg.Store.SQLitePath)
		return sqlite.NewUserRepository(db), func() { _ = db.Close() }, nil

	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Store.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		logger.Infof("using mongo user store (database %s)", cfg.Store.MongoDatabase)
		cleanup := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		return mongorepo.NewUserRepository(client.Database(cfg.Store.MongoDatabase)), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
