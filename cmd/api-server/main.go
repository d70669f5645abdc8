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

	"github.com/gin-gonic/gin"

	"mallfinder/internal/gather"
	"mallfinder/internal/malls"
	"mallfinder/internal/progress"
	"mallfinder/internal/search"
	"mallfinder/pkg/database"
	"mallfinder/pkg/utils"
)

func main() {
	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	serverCfg := utils.LoadServerConfig()
	gatherCfg := utils.LoadGatherConfig()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// gather progress stream
	hub := progress.NewHub()
	router.GET("/ws", progress.WSHandler(hub))

	gatherer := gather.New(db, gatherCfg)
	gatherer.SetNotifier(hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok"})
	})

	router.GET("/debug", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"db":         dbCfg.Path,
			"gather":     gatherer.Status(),
			"ws_clients": hub.Stats().WSClients,
		})
	})

	api := router.Group("/api")

	// malls + stores (read-only)
	mallsRepo := malls.NewRepo(db)
	malls.NewHandler(mallsRepo).RegisterRoutes(api)

	// search
	searchRepo := search.NewRepo(db)
	var remote search.RemoteMatcher
	if serverCfg.MatchServiceURL != "" {
		remote = search.NewMatchClient(serverCfg.MatchServiceURL)
	}
	search.NewHandler(searchRepo, remote).RegisterRoutes(api)

	// gather trigger + status
	gather.NewHandler(gatherer).RegisterRoutes(api.Group("/data"))

	httpSrv := &http.Server{
		Addr:    serverCfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", serverCfg.HTTPAddr)
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
