package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dimitrije/orbit-api/internal/config"
	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/logger"
	"github.com/dimitrije/orbit-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: promote-admin <email>")
		os.Exit(1)
	}

	email := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewForEnvironment(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	user, err := services.NewUserService(db).PromoteToAdmin(ctx, email)
	if errors.Is(err, services.ErrNotFound) {
		log.Fatal("no user found with email", zap.String("email", email))
	}
	if err != nil {
		log.Fatal("failed to promote user", zap.Error(err))
	}

	fmt.Printf("Successfully promoted %s to admin\n", user.Email)
}
