package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	mw "github.com/newsreel/cms-backend/pkg/apihelpers/middlewares"
	authguard "github.com/newsreel/cms-backend/pkg/auth-guard"
	"github.com/newsreel/cms-backend/pkg/content"
	"github.com/newsreel/cms-backend/pkg/events"
	usermanagement "github.com/newsreel/cms-backend/pkg/user-management"
	"github.com/newsreel/cms-backend/services/cms-api/apihandlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const SHUTDOWN_TIMEOUT = 10 * time.Second

var conf CMSApiConfig

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher := events.NewPublisher(conf.Events)
	defer publisher.Close()

	guard := authguard.NewGuard(accountStorage, authguard.TokenConfig{
		SignKey:  conf.AuthConfig.JWTConfig.SignKey,
		TokenTTL: conf.AuthConfig.JWTConfig.ExpiresIn,
		GuestTTL: conf.AuthConfig.JWTConfig.GuestExpiresIn,
	})

	authRateLimit := mw.NewIPRateLimiter(conf.AuthConfig.RateLimit)
	authRateLimit.StartPruning(ctx, RATE_LIMIT_PRUNE_INTERVAL)

	httpMetrics, err := mw.NewHTTPMetrics(mw.HTTPMetricsOptions{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		slog.Error("Error registering HTTP metrics", slog.String("error", err.Error()))
		return
	}
	apiMetrics, err := apihandlers.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		slog.Error("Error registering API metrics", slog.String("error", err.Error()))
		return
	}

	deps := apihandlers.Dependencies{
		Guard:         guard,
		Content:       content.NewService(contentStorage, publisher),
		Accounts:      usermanagement.NewService(accountStorage),
		Media:         initMedia(ctx),
		AuthRateLimit: authRateLimit,
		Metrics:       apiMetrics,
	}
	// only set when configured, a typed nil would look like a working store
	if otpStore, otpSender := initPhoneLogin(); otpStore != nil {
		deps.OTPStore = otpStore
		deps.OTPSender = otpSender
	}

	// Start webserver
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length", mw.HeaderAPIKey},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(httpMetrics.Handler())

	// Add handlers
	router.GET("/", apihandlers.HealthCheckHandle)
	router.GET("/metrics", mw.HasValidAPIKey(conf.Metrics.APIKeys), gin.WrapH(promhttp.Handler()))
	v1Root := router.Group("/api/v1")

	v1APIHandlers := apihandlers.NewHTTPHandler(deps)
	v1APIHandlers.AddAllAPIs(v1Root)

	if conf.GinConfig.DebugMode {
		if err := apihelpers.WriteRoutesToFile(router, "cms-api-routes.txt"); err != nil {
			slog.Warn("could not write routes file", slog.String("error", err.Error()))
		}
	}

	server := &http.Server{
		Addr:    ":" + conf.GinConfig.Port,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error shutting down CMS API", slog.String("error", err.Error()))
		}
	}()

	// Start the server
	slog.Info("Starting CMS API on port " + conf.GinConfig.Port)
	if !conf.GinConfig.MTLS.Use {
		err = server.ListenAndServe()
	} else {
		// Create tls config for mutual TLS
		tlsConfig, tlsErr := apihelpers.LoadTLSConfig(conf.GinConfig.MTLS.CertificatePaths)
		if tlsErr != nil {
			slog.Error("Error loading TLS config.", slog.String("error", tlsErr.Error()))
			return
		}
		server.TLSConfig = tlsConfig
		err = server.ListenAndServeTLS(
			conf.GinConfig.MTLS.CertificatePaths.ServerCertPath,
			conf.GinConfig.MTLS.CertificatePaths.ServerKeyPath,
		)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Exited CMS API", slog.String("error", err.Error()))
		return
	}
	slog.Info("CMS API stopped")
}
