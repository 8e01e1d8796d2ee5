package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"modpanel/internal/audit"
	"modpanel/internal/auth"
	"modpanel/internal/live"
	"modpanel/internal/moderation"
	"modpanel/internal/pipeline"
	"modpanel/internal/repository"
	"modpanel/internal/titles"
	"modpanel/pkg/database"
	"modpanel/pkg/utils"
)

func main() {
	srvCfg := utils.LoadServerConfig()
	repoCfg := utils.LoadRepositoryConfig()
	pipeline.Debug = srvCfg.Debug

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if !srvCfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Optional: avoid “trusted all proxies” warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Start the live feed first (so you notice binding errors early)
	hub := live.NewHub()
	router.GET("/ws", live.WSHandler(hub))
	tcpSrv := live.NewServer(srvCfg.TCPAddr, hub)

	// Content repository wiring
	repoClient := repository.NewClient(repoCfg.Endpoint, repoCfg.Token)
	resolver := titles.NewResolver(repoClient, repoCfg.Lang)
	store := moderation.NewStore(repoClient, repoCfg.Lang, resolver, hub)
	auditRepo := audit.NewRepo(db)
	coordinator := moderation.NewCoordinator(repoClient, store, auditRepo, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path, "repository": repoCfg.Endpoint})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		snap := store.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"comments":    snap.Stats.Total,
			"fetched_at":  snap.FetchedAt.Format(time.RFC3339),
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db":          dbCfg.Path,
			"repository":  repoCfg.Endpoint,
			"titles":      resolver.Snapshot(),
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc, authCfg.InviteCode)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Moderation panel (protected)
	protected := router.Group("/api")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.ModeratorID,
			"username": claims.Username,
			"email":    claims.Email,
		})
	})

	panelHandler := moderation.NewHandler(store, coordinator, resolver, auditRepo, repoCfg.SiteName, repoCfg.Lang)
	panelHandler.RegisterRoutes(protected)

	// First snapshot; the panel still comes up if the repository is
	// down, it just serves an empty set until the next refresh.
	startCtx, startCancel := context.WithTimeout(context.Background(), 20*time.Second)
	if err := store.Refresh(startCtx); err != nil {
		log.Printf("initial refresh failed: %v", err)
	}
	startCancel()

	httpSrv := &http.Server{
		Addr:    srvCfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("panel API listening on %s", srvCfg.HTTPAddr)
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

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
