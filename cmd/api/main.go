// Command api runs the ScrumTogether REST API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scrumtogether/scrumtogether-api/internal/auth"
	"github.com/scrumtogether/scrumtogether-api/internal/auth/password"
	"github.com/scrumtogether/scrumtogether-api/internal/config"
	"github.com/scrumtogether/scrumtogether-api/internal/database"
	"github.com/scrumtogether/scrumtogether-api/internal/handler"
	"github.com/scrumtogether/scrumtogether-api/internal/logger"
	"github.com/scrumtogether/scrumtogether-api/internal/loginattempt"
	"github.com/scrumtogether/scrumtogether-api/internal/model"
	"github.com/scrumtogether/scrumtogether-api/internal/ratelimit"
	"github.com/scrumtogether/scrumtogether-api/internal/repository"
	"github.com/scrumtogether/scrumtogether-api/internal/server"
	"github.com/scrumtogether/scrumtogether-api/internal/server/middleware"
	"github.com/scrumtogether/scrumtogether-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.WithComponent("main")
	log.Info("Starting ScrumTogether API", logger.Fields(
		"environment", cfg.Environment,
	))

	db, err := database.Open(cfg.Database, logger.GetGlobalLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(&model.User{}, &model.Team{}, &model.TeamUser{}, &model.AuditLog{}); err != nil {
			return err
		}
	}

	users := repository.NewUserRepository(db.GormDB)
	teams := repository.NewTeamRepository(db.GormDB)
	audit := repository.NewAuditRepository(db.GormDB)

	tokens, err := auth.NewTokenService(cfg.Auth.JWT)
	if err != nil {
		return err
	}
	hasher := password.NewHasher(cfg.Auth.Password)
	authService := auth.NewService(users, hasher)

	limiter := ratelimit.NewRegistry(cfg.RateLimit)
	defer limiter.Stop()

	attempts := loginattempt.NewStore(cfg.LoginAttempts)
	defer closeAttemptStore(attempts, log)

	userService := service.NewUserService(users, teams, audit, limiter)
	teamService := service.NewTeamService(teams, users)

	srv := server.New(cfg.Server, logger.GetGlobalLogger())
	engine := srv.GinEngine()
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CORS(&cfg.Server.CORS),
		middleware.RequestLogger(logger.WithComponent("http")),
		middleware.LoginAttempt(attempts),
		middleware.Authentication(tokens, users),
	)

	handler.RegisterRoutes(engine,
		handler.NewAuthHandler(authService, tokens),
		handler.NewUserHandler(userService),
		handler.NewTeamHandler(teamService),
	)

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", logger.Fields("signal", sig.String()))

	return srv.Stop(ctx)
}

func closeAttemptStore(store loginattempt.Store, log *logger.Logger) {
	type stopper interface{ Stop() }
	type closer interface{ Close() error }

	switch s := store.(type) {
	case stopper:
		s.Stop()
	case closer:
		if err := s.Close(); err != nil {
			log.Warn("Failed to close attempt store", logger.ErrorFields("close", err))
		}
	}
}
