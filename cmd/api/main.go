package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/audit"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	appmw "server/internal/middleware"
	"server/internal/providers/video"
	"server/internal/quota"
	"server/internal/storage"
	"server/internal/videogen"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	geoResolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable")
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	jobs := repo.NewJobRepository(sqlRunner)
	providers := repo.NewProviderRepository(sqlRunner)
	credentials := repo.NewCredentialRepository(sqlRunner)
	accounts := repo.NewAccountRepository(sqlRunner)
	auditRepo := repo.NewAuditRepository(sqlRunner)

	recorder := audit.NewRecorder(auditRepo, logger)
	enforcer := quota.NewEnforcer(rdb)

	registry := video.NewRegistry(
		video.NewVeoAdapter(cfg.VeoBaseURL, cfg.VeoAPIKey),
		video.NewKlingAdapter(cfg.KlingBaseURL),
		video.NewLTXAdapter(cfg.LTXBaseURL, cfg.LTXAPIKey),
	)

	router := videogen.NewRouter(providers, credentials, recorder, cfg.DefaultProviderID, logger)
	persister := videogen.NewPersister(fileStore, &http.Client{Timeout: 5 * time.Minute})
	tracker := videogen.NewTracker(jobs, enforcer, persister, recorder, logger, cfg.PollInterval, cfg.MaxPollAttempts)
	svc := videogen.NewService(jobs, accounts, enforcer, registry, router, tracker, recorder, logger)

	app := handlers.NewApp(svc, logger)

	var lookup appmw.CountryLookup
	if geoResolver != nil {
		lookup = geoResolver.CountryCode
	}
	handler := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   lookup,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, handler)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
