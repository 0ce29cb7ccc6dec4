package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"github.com/dfryer1193/blogsphere/blog/application"
	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/dfryer1193/blogsphere/blog/persistence"
	"github.com/dfryer1193/blogsphere/internal/config"
	"github.com/dfryer1193/blogsphere/internal/middleware"
	"github.com/dfryer1193/blogsphere/internal/rest"
	"github.com/dfryer1193/blogsphere/shared/auth"
	"github.com/dfryer1193/blogsphere/shared/db"
	"github.com/dfryer1193/blogsphere/shared/db/mysql"
	"github.com/dfryer1193/blogsphere/shared/db/postgres"
	"github.com/dfryer1193/blogsphere/shared/db/sqlite"
	"github.com/dfryer1193/blogsphere/shared/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.Log)

	ctx := context.Background()

	database, err := openDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	sqlDB, dialect := database.DB(), database.Dialect()
	postRepo := persistence.NewPostRepository(sqlDB, dialect)
	commentRepo := persistence.NewCommentRepository(sqlDB, dialect)
	profileRepo := persistence.NewProfileRepository(sqlDB, dialect)

	var app *firebase.App
	if cfg.Auth.Mode == "firebase" || cfg.Images.Store == "firebase" {
		app, err = auth.NewFirebaseApp(ctx, auth.FirebaseConfig{
			ProjectID:       cfg.Auth.ProjectID,
			CredentialsFile: cfg.Auth.CredentialsFile,
			StorageBucket:   cfg.Images.Bucket,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize firebase")
		}
	}

	images, err := newImageStore(ctx, cfg.Images, app)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Images.Store).Msg("Failed to initialize image store")
	}

	verifier, closeVerifier, err := newVerifier(ctx, cfg, app)
	if err != nil {
		log.Fatal().Err(err).Str("mode", cfg.Auth.Mode).Msg("Failed to initialize identity verifier")
	}
	defer closeVerifier()

	limits := application.Limits{
		MaxTitleLength:   cfg.Limits.MaxTitleLength,
		MaxContentLength: cfg.Limits.MaxContentLength,
		MaxCommentLength: cfg.Limits.MaxCommentLength,
		MaxNameLength:    cfg.Limits.MaxNameLength,
		MaxBioLength:     cfg.Limits.MaxBioLength,
		MaxTagLength:     cfg.Limits.MaxTagLength,
		MaxTags:          cfg.Limits.MaxTags,
	}

	postService := application.NewPostService(
		postRepo,
		commentRepo,
		persistence.NewTransactor(sqlDB),
		images,
		application.NewMarkdownRenderer(cfg.Images.PublicBaseURL),
		application.PostServiceOptions{
			Limits:        limits,
			UniqueLikes:   cfg.Engagement.UniqueLikes,
			MaxImageBytes: cfg.Images.MaxBytes,
		},
	)
	profileService := application.NewProfileService(profileRepo, limits)

	gin.SetMode(gin.ReleaseMode)
	latency := middleware.NewLatencyRecorder()

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(gin.CustomRecovery(middleware.HandlePanics()))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(latency.Middleware())

	deps := rest.Dependencies{
		Posts:         postService,
		Profiles:      profileService,
		Authenticator: middleware.NewAuthenticator(verifier, profileService),
		Health:        sqlDB,
		Latency:       latency,
	}
	if cfg.Images.Store == "local" {
		deps.ImageRoute = localImageRoute(cfg.Images.PublicBaseURL)
		deps.ImageDir = cfg.Images.Dir
	}
	rest.NewApi(r, deps)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("driver", dialect.Name()).
			Str("auth", cfg.Auth.Mode).
			Str("images", cfg.Images.Store).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}

func setupLogging(cfg config.Log) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func openDatabase(cfg config.Database) (db.Database, error) {
	var database db.Database
	switch cfg.Driver {
	case "postgres":
		pgCfg := postgres.NewPostgresConfig()
		pgCfg.DSN = cfg.DSN
		if cfg.MaxConns > 0 {
			pgCfg.MaxConns = int32(cfg.MaxConns)
		}
		database = postgres.NewPostgresDB(pgCfg)
	case "mysql":
		myCfg := mysql.NewMySQLConfig()
		myCfg.DSN = cfg.DSN
		if cfg.MaxConns > 0 {
			myCfg.MaxConns = cfg.MaxConns
		}
		database = mysql.NewMySQLDB(myCfg)
	default:
		database = sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: cfg.SQLitePath})
	}

	if err := database.Connect(); err != nil {
		return nil, err
	}
	return database, nil
}

func newImageStore(ctx context.Context, cfg config.Images, app *firebase.App) (domain.ImageStore, error) {
	if cfg.Store == "firebase" {
		store, err := storage.NewFirebaseImageStore(ctx, app, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return persistence.NewLocalImageStore(cfg.Dir, cfg.PublicBaseURL), nil
}

// newVerifier builds the identity verifier, wrapped in the redis token cache when one is configured
func newVerifier(ctx context.Context, cfg *config.Config, app *firebase.App) (domain.IdentityVerifier, func(), error) {
	var verifier domain.IdentityVerifier
	if cfg.Auth.Mode == "firebase" {
		fv, err := auth.NewFirebaseVerifier(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		verifier = fv
	} else {
		tokens := make(map[string]domain.Identity, len(cfg.Auth.StaticTokens))
		for token, identity := range cfg.Auth.StaticTokens {
			tokens[token] = domain.Identity{ID: identity.ID, Email: identity.Email, Name: identity.Name}
		}
		if len(tokens) == 0 {
			log.Warn().Msg("Static auth has no tokens configured; every authenticated route will answer 401")
		}
		verifier = auth.NewStaticVerifier(tokens)
	}

	if cfg.Redis.Addr == "" {
		return verifier, func() {}, nil
	}

	cache := auth.NewRedisTokenCache(auth.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := cache.Ping(ctx); err != nil {
		cache.Close()
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Token cache unavailable, verifying every request")
		return verifier, func() {}, nil
	}

	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Auth.CacheTTL).Msg("Token cache enabled")
	closeCache := func() {
		if err := cache.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close token cache")
		}
	}
	return auth.NewCachingVerifier(verifier, cache, cfg.Auth.CacheTTL), closeCache, nil
}

// localImageRoute is the path the local image directory is served under
func localImageRoute(publicBaseURL string) string {
	route := publicBaseURL
	if u, err := url.Parse(publicBaseURL); err == nil && u.Host != "" {
		route = u.Path
	}
	route = "/" + strings.Trim(route, "/")
	if route == "/" {
		return ""
	}
	return route
}
