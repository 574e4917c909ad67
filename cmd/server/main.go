package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"restoran-analytics/internal/admin"
	"restoran-analytics/internal/audit"
	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/config"
	"restoran-analytics/internal/dashboard"
	"restoran-analytics/internal/database"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/httperr"
	"restoran-analytics/internal/ingest"
	"restoran-analytics/internal/logging"
	"restoran-analytics/internal/models"
	"restoran-analytics/internal/pipeline"
	"restoran-analytics/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg)
	database.Init(cfg)

	metrics := telemetry.New()
	fetcher := fetch.NewGormFetcher(database.DB, cfg.FetchRPS, cfg.FetchBurst, cfg.FetchTimeout, metrics)
	sessions := pipeline.NewSessions(cfg.SessionTTL, metrics)
	engine := pipeline.NewEngine(fetcher, cfg.Analytics, sessions, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sweepSessions(ctx, sessions, cfg.SessionTTL)

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// Operasyon
	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := database.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Veritabanına ulaşılamıyor")
		}
		return c.JSON(fiber.Map{"status": "ok", "sessions": sessions.Len()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")
	tokens := auth.NewTokens(cfg)

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(tokens, metrics))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(tokens))

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	// Şube yönetimi
	adminRoutes.Post("/locations", admin.CreateLocationHandler())
	adminRoutes.Get("/locations", admin.ListLocationsHandler())
	adminRoutes.Get("/locations/:id", admin.GetLocationHandler())
	adminRoutes.Put("/locations/:id", admin.UpdateLocationHandler())
	adminRoutes.Delete("/locations/:id", admin.DeleteLocationHandler())
	adminRoutes.Post("/locations/:id/admin", admin.CreateLocationAdminHandler())
	adminRoutes.Get("/locations/:id/admins", admin.ListLocationAdminsHandler())

	// Ham veri girişi (şube admini sadece kendi şubesine)
	facts := protected.Group("/facts")
	facts.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleLocationAdmin))
	facts.Post("/sales", ingest.SalesHandler(metrics, sessions))
	facts.Post("/inventory", ingest.InventoryHandler(metrics, sessions))
	facts.Post("/reviews", ingest.ReviewsHandler(metrics, sessions))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Dashboard
	dash := protected.Group("/dashboard")
	dash.Get("/overview", dashboard.OverviewHandler(engine))
	dash.Get("/revenue-trend", dashboard.RevenueTrendHandler(engine))
	dash.Get("/order-mix", dashboard.OrderMixHandler(engine))
	dash.Get("/waste", dashboard.WasteHandler(engine))
	dash.Get("/scorecard", dashboard.ScorecardHandler(engine))
	dash.Get("/compare", dashboard.CompareHandler(engine))
	dash.Get("/anomalies", dashboard.AnomaliesHandler(engine))
	dash.Get("/export", dashboard.ExportViewsHandler())
	dash.Get("/export/:view", dashboard.ExportHandler(engine))

	go func() {
		<-ctx.Done()
		slog.Info("kapanış sinyali alındı")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("sunucu kapatılamadı", "error", err)
		}
	}()

	slog.Info("Server çalışıyor", "port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

// sweepSessions boşta kalan dashboard oturumlarını periyodik olarak atar.
func sweepSessions(ctx context.Context, sessions *pipeline.Sessions, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				slog.Debug("süresi dolan oturumlar atıldı", "count", n)
			}
		}
	}
}
