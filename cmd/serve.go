package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/worckyky/sport-booking-backend/app/controller"
	"github.com/worckyky/sport-booking-backend/app/database"
	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/jobs"
	"github.com/worckyky/sport-booking-backend/app/mail"
	"github.com/worckyky/sport-booking-backend/app/middleware"
	"github.com/worckyky/sport-booking-backend/app/observability"
	"github.com/worckyky/sport-booking-backend/app/repository"
	"github.com/worckyky/sport-booking-backend/app/service"
	"github.com/worckyky/sport-booking-backend/app/session"
	"github.com/worckyky/sport-booking-backend/app/supabase"
	"github.com/worckyky/sport-booking-backend/app/yclients"
	"github.com/worckyky/sport-booking-backend/config"
	"github.com/worckyky/sport-booking-backend/migrations"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server together with the background job scheduler.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// services is everything the router needs. It is assembled once at startup.
type services struct {
	auth         service.AuthService
	campaigns    service.CampaignService
	yclients     service.YClientsService
	query        service.QueryService
	internalAuth service.InternalAuthService
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	flushSentry := observability.InitSentry(cfg)
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if cfg.App.MigrateOnStart {
		applied, err := database.NewMigrator(db, migrations.FS).Up(ctx)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to apply migrations")
		}
		logrus.WithField("applied", len(applied)).Info("Schema is up to date")
	}

	rdb := database.OpenRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	mailer, err := newMailer(cfg, metrics)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure mail delivery")
	}

	var mailTasks sync.WaitGroup
	authService := newAuthService(cfg, db, rdb, metrics,
		service.WithMailer(mailer),
		service.WithAsyncRunner(func(task func()) {
			mailTasks.Add(1)
			go func() {
				defer mailTasks.Done()
				task()
			}()
		}),
	)

	yclientsService := service.NewYClientsService(
		repository.NewYClientsRepository(db),
		yclients.NewClient(cfg.YClients),
		service.WithYClientsRecorder(metrics),
	)

	svc := services{
		auth:         authService,
		campaigns:    service.NewCampaignService(db, repository.NewCampaignRepository(db)),
		yclients:     yclientsService,
		query:        service.NewQueryService(repository.NewQueryRepository(db)),
		internalAuth: service.NewInternalAuthService(repository.NewInternalAPIKeyRepository(db)),
	}

	scheduler := jobs.NewScheduler()
	if cfg.Auth.Provider == config.AuthProviderLocal {
		pruner := jobs.NewResetTokenPruner(repository.NewPasswordResetTokenRepository(db), metrics)
		if err := scheduler.SchedulePruner(cfg.Jobs.ResetTokenCleanupSchedule, pruner); err != nil {
			logrus.WithError(err).Fatal("Invalid RESET_TOKEN_CLEANUP_SCHEDULE")
		}
	}

	e := newHTTPServer(cfg, svc, rdb, metrics, registry)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithFields(logrus.Fields{
			"addr":          httpAddr,
			"auth_provider": cfg.Auth.Provider,
		}).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("Server stopped with error")
	}

	mailTasks.Wait()
	logrus.Info("Server stopped")
}

func newMailer(cfg *config.Config, metrics *observability.Metrics) (mail.Sender, error) {
	var sender mail.Sender = mail.NewLogSender()
	if cfg.SMTP.Enabled {
		smtp, err := mail.NewSMTPSender(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		sender = smtp
		logrus.WithFields(logrus.Fields{
			"host": cfg.SMTP.Host,
			"port": cfg.SMTP.Port,
		}).Info("SMTP delivery enabled")
	} else {
		logrus.Warn("SMTP not configured, outgoing mail is only logged")
	}

	return mail.NewInstrumentedSender(sender, metrics), nil
}

func newAuthService(cfg *config.Config, db *sql.DB, rdb *redis.Client, metrics *observability.Metrics, opts ...service.AuthServiceOption) service.AuthService {
	opts = append(opts, service.WithAuthEvents(metrics))

	if cfg.Auth.Provider == config.AuthProviderSupabase {
		return service.NewManagedAuthService(
			supabase.NewClient(cfg.Supabase),
			repository.NewCampaignRepository(db),
			cfg,
			opts...,
		)
	}

	opts = append(opts, service.WithSessionRevoker(session.NewRevocationStore(rdb)))
	return service.NewLocalAuthService(
		db,
		repository.NewUserRepository(db),
		repository.NewPasswordResetTokenRepository(db),
		service.NewTokenIssuer(cfg.JWT, cfg.Tokens),
		cfg,
		opts...,
	)
}

func newHTTPServer(cfg *config.Config, svc services, rdb *redis.Client, metrics *observability.Metrics, registry *prometheus.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Metrics(metrics))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-API-Key"},
		AllowCredentials: true,
	}))

	authMiddleware := middleware.NewAuthMiddleware(svc.auth)
	roleMiddleware := middleware.NewRoleMiddleware(svc.auth)
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(svc.internalAuth)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, rdb, metrics)
	campaignOnly := roleMiddleware.RequireRole(entity.RoleCampaign)

	authController := controller.NewAuthController(svc.auth, cfg)
	campaignController := controller.NewCampaignController(svc.campaigns)
	yclientsController := controller.NewYClientsController(svc.yclients)
	queryController := controller.NewQueryController(svc.query)
	healthController := controller.NewHealthController()

	auth := e.Group("/auth")
	auth.POST("/signup", authController.SignUp, rateLimiter.Limit)
	auth.POST("/signin", authController.SignIn, rateLimiter.Limit)
	auth.GET("/confirm", authController.ConfirmEmail)
	auth.POST("/signout", authController.SignOut)
	auth.POST("/reset-password", authController.RequestPasswordReset, rateLimiter.Limit)
	auth.POST("/new-password", authController.NewPassword, rateLimiter.Limit)
	auth.GET("/profile", authController.GetProfile, authMiddleware.RequireAuth)
	auth.PUT("/profile", authController.UpdateProfile, authMiddleware.RequireAuth)

	campaigns := e.Group("/campaign")
	campaigns.GET("", campaignController.List)
	campaigns.GET("/:id", campaignController.Get)
	campaigns.POST("", campaignController.Create, authMiddleware.RequireAuth, campaignOnly)
	campaigns.PUT("/:id", campaignController.Update, authMiddleware.RequireAuth, campaignOnly)
	campaigns.DELETE("/:id", campaignController.Delete, authMiddleware.RequireAuth, campaignOnly)

	yc := e.Group("/yclients", authMiddleware.RequireAuth, campaignOnly)
	yc.GET("", yclientsController.Get)
	yc.PUT("", yclientsController.Update)

	e.POST("/db/query", queryController.Query, apiKeyMiddleware.RequireAPIKey)

	e.GET("/health", healthController.Health)
	e.GET("/metrics", echo.WrapHandler(observability.Handler(registry)))

	return e
}
