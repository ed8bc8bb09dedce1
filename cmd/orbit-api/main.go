package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/orbit-api/internal/cache"
	"github.com/dimitrije/orbit-api/internal/config"
	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/handlers"
	"github.com/dimitrije/orbit-api/internal/logger"
	authmw "github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/internal/sse"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stdout"})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	dashboards := cache.New(ctx, cfg.Redis, log)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	membershipService := services.NewMembershipService(db)
	organizationService := services.NewOrganizationService(db, dashboards)
	clientService := services.NewClientService(db, cfg.Billing.DefaultCurrency)
	projectService := services.NewProjectService(db)
	taskService := services.NewTaskService(db)
	timeEntryService := services.NewTimeEntryService(db)
	invoiceService := services.NewInvoiceService(db, cfg.Billing, dashboards)
	tagService := services.NewTagService(db)
	commentService := services.NewCommentService(db)
	searchService := services.NewSearchService(db)
	emailService := services.NewEmailService(cfg.SMTP)

	if !emailService.IsConfigured() {
		log.Info("SMTP not configured, invitation emails are disabled")
	}

	hub := sse.NewHub()
	go hub.Run()
	defer hub.Stop()

	authHandler := handlers.NewAuthHandler(userService, tokenService, jwtService, log)
	userHandler := handlers.NewUserHandler(userService, log)
	onboardingHandler := handlers.NewOnboardingHandler(membershipService, organizationService, userService, emailService, hub, cfg.BaseURL, log)
	organizationHandler := handlers.NewOrganizationHandler(organizationService, membershipService, hub, log)
	clientHandler := handlers.NewClientHandler(clientService, log)
	projectHandler := handlers.NewProjectHandler(projectService, log)
	taskHandler := handlers.NewTaskHandler(taskService, log)
	timeEntryHandler := handlers.NewTimeEntryHandler(timeEntryService, hub, log)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, hub, log)
	collaborationHandler := handlers.NewCollaborationHandler(tagService, commentService, searchService, log)
	sseHandler := handlers.NewSSEHandler(hub, log)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)
	protected.Patch("/users/me/password", userHandler.ChangePassword)
	protected.Get("/users/me/organizations", userHandler.ListOrganizations)

	protected.Post("/onboarding/invite", onboardingHandler.Invite)
	protected.Post("/onboarding/accept-invite", onboardingHandler.AcceptInvite)

	org := protected.Group("/organizations/:orgId")
	org.Use(authmw.OrganizationMember(membershipService, log))

	org.Get("/dashboard", organizationHandler.Dashboard)
	org.Get("/members", organizationHandler.ListMembers)
	org.Patch("/members/:memberId/role", authmw.RequireOrgRole(organizationHandler.UpdateMemberRole, models.RoleOwner, models.RoleAdmin))
	org.Delete("/members/:memberId", authmw.RequireOrgRole(organizationHandler.RemoveMember, models.RoleOwner, models.RoleAdmin))
	org.Get("/events", sseHandler.Connect)

	org.Post("/clients", clientHandler.Create)
	org.Get("/clients", clientHandler.List)
	org.Get("/clients/:clientId", clientHandler.Get)

	org.Post("/projects", projectHandler.Create)
	org.Get("/projects", projectHandler.List)
	org.Get("/projects/stats", projectHandler.Stats)
	org.Patch("/projects/:projectId/status", projectHandler.UpdateStatus)

	org.Post("/projects/:projectId/tasks", taskHandler.Create)
	org.Get("/projects/:projectId/tasks", taskHandler.List)
	org.Get("/tasks/:taskId", taskHandler.Get)
	org.Patch("/tasks/:taskId", taskHandler.Update)
	org.Delete("/tasks/:taskId", taskHandler.Delete)

	org.Post("/tasks/:taskId/time-entries", timeEntryHandler.Start)
	org.Patch("/time-entries/:entryId/stop", timeEntryHandler.Stop)
	org.Get("/time-entries/my", timeEntryHandler.ListMine)
	org.Get("/time-entries/running", timeEntryHandler.Running)

	org.Post("/tasks/:taskId/comments", collaborationHandler.CreateComment)
	org.Get("/tasks/:taskId/comments", collaborationHandler.ListComments)
	org.Delete("/comments/:commentId", collaborationHandler.DeleteComment)
	org.Post("/tags", collaborationHandler.CreateTag)
	org.Get("/tags", collaborationHandler.ListTags)
	org.Get("/search", collaborationHandler.Search)

	org.Post("/invoices", invoiceHandler.Create)
	org.Get("/invoices", invoiceHandler.List)
	org.Get("/invoices/:invoiceId", invoiceHandler.Get)
	org.Post("/invoices/:invoiceId/items", invoiceHandler.AddItem)
	org.Post("/invoices/:invoiceId/time-entries", invoiceHandler.AddTimeEntries)
	org.Patch("/invoices/:invoiceId/status", invoiceHandler.UpdateStatus)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	go cleanupExpiredTokens(ctx, tokenService, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Open event streams only end when their clients close, so the hub is
	// stopped first to release them.
	hub.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func cleanupExpiredTokens(ctx context.Context, tokens *services.TokenService, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokens.CleanupExpired(ctx)
			if err != nil {
				log.Warn("refresh token cleanup failed", zap.Error(err))
				continue
			}
			log.Debug("expired refresh tokens removed", zap.Int64("count", removed))
		}
	}
}
