package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"shelfmark/internal/auth"
	"shelfmark/internal/catalog"
	"shelfmark/internal/circulation"
	"shelfmark/internal/inventory"
	"shelfmark/internal/tags"
	"shelfmark/pkg/database"
	"shelfmark/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	cfg, err := utils.LoadServerConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbCfg := database.DefaultConfig()
	if cfg.DBPath != "" {
		dbCfg.Path = cfg.DBPath
	}
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Live updates for open catalogue views
	hub := circulation.NewHub()
	router.GET("/ws", circulation.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": hub.Count(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": hub.Count(),
		})
	})

	// Public browse surface
	catalogRepo := catalog.NewRepo(db)
	catalogHandler := catalog.NewHandler(catalogRepo)
	catalogHandler.RegisterRoutes(router.Group("/books"))

	tagsRepo := tags.NewRepo(db)
	tagsHandler := tags.NewHandler(tagsRepo)
	tagsHandler.RegisterRoutes(router.Group("/tags"))

	invRepo := inventory.NewRepo(db)
	invHandler := inventory.NewHandler(invRepo)
	invHandler.RegisterRoutes(router.Group(""))

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	roles := auth.NewResolver(cfg.AdminIDs, cfg.AdminEmails)
	authHandler := auth.NewHandler(authRepo, tokenSvc, roles)
	authHandler.RegisterRoutes(router.Group("/auth"))

	protected := router.Group("/users")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))
	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"email":    claims.Email,
			"role":     claims.Role,
		})
	})

	// Admin surface: catalogue mutations, copy management, circulation
	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(tokenSvc, authRepo), auth.RequireAdmin())

	catalogHandler.RegisterAdminRoutes(admin.Group("/books"))
	tagsHandler.RegisterAdminRoutes(admin.Group("/tags"))
	invHandler.RegisterAdminRoutes(admin)

	circStore := circulation.NewStore(db)
	circService := circulation.NewService(circStore, hub)
	circHandler := circulation.NewHandler(circService, circulation.NewSessions(), invRepo)
	circHandler.RegisterAdminRoutes(admin.Group("/circulation"))

	httpSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
