package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/riiansmart/taskflow/internal/auth"
	"github.com/riiansmart/taskflow/internal/auth/credentials"
	"github.com/riiansmart/taskflow/internal/auth/handler"
	"github.com/riiansmart/taskflow/internal/auth/onetime"
	"github.com/riiansmart/taskflow/internal/auth/provider"
	"github.com/riiansmart/taskflow/internal/auth/provider/github"
	"github.com/riiansmart/taskflow/internal/auth/provider/google"
	"github.com/riiansmart/taskflow/internal/auth/resolver"
	"github.com/riiansmart/taskflow/internal/config"
	"github.com/riiansmart/taskflow/internal/identity"
	"github.com/riiansmart/taskflow/internal/middleware"
	"github.com/riiansmart/taskflow/internal/token"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	identityStore := identity.NewPostgresStore(infra.DB)

	codec := token.NewCodec(cfg.JWTSecret)
	ledger := token.NewRedisLedger(infra.Redis.Client)
	tokenService := token.NewService(codec, ledger, cfg.AccessTTL, cfg.RefreshTTL)

	credentialService := credentials.NewService(identityStore)
	onetimeStore := onetime.NewStore(infra.Redis.Client)
	identityResolver := resolver.NewStoreResolver(identityStore)

	authService := auth.NewService(
		credentialService,
		identityResolver,
		tokenService,
		onetimeStore,
		identityStore,
		cfg.VerificationTTL,
		cfg.PasswordResetTTL,
	)

	registry, err := setupProviders(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	authHandler := handler.NewHandler(authService, registry, cfg.FrontendURL)
	gate := middleware.NewAuthMiddleware(tokenService)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router, gate)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	// task/category services mount under /api; everything here passes
	// the authorization gate
	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(gate))

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		if err := infra.Redis.Close(); err != nil {
			return err
		}
		return infra.DB.Close()
	}, nil
}

// setupProviders registers every federated provider that carries
// credentials in the environment. Missing credentials skip the
// provider instead of failing startup, so local development works
// without OAuth apps.
func setupProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	var providers []provider.OAuthProvider

	if cfg.GoogleClientID != "" {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, googleProvider)
	}

	if cfg.GithubClientID != "" {
		githubProvider, err := github.New(
			cfg.GithubClientID,
			cfg.GithubClientSecret,
			cfg.GithubRedirectURL,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, githubProvider)
	}

	return provider.NewRegistry(providers...), nil
}
