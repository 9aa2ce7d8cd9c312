package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketadmin/internal/apiclient"
	intconfig "marketadmin/internal/config"
	router "marketadmin/internal/http"
	"marketadmin/internal/metrics"
	"marketadmin/internal/resources"
	"marketadmin/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	overrides, err := intconfig.LoadResourceOverrides(env.ResourcesFile)
	if err != nil {
		log.Fatalf("failed to read resource overrides: %v", err)
	}

	backend := resources.Backend{Mode: env.DataSource}
	var db *sql.DB
	if env.DataSource == intconfig.SourceMySQL {
		db, err = intconfig.ConnectDB(env.DBDSN)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		backend.DB = db
	} else {
		backend.API = apiclient.New(env.UpstreamBaseURL, env.UpstreamToken, env.UpstreamTimeout)
		log.Printf("using upstream API at %s", env.UpstreamBaseURL)
	}

	svc := services.NewScreenService(resources.Catalog(backend, overrides), env.ScreenIdleTTL, metrics.Observer{})
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go svc.Run(sweepCtx)

	r := router.NewRouter(env, svc, db)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown failed: %v", err)
	}
	stopSweep()
	svc.Shutdown()

	log.Println("server stopped cleanly.")
}
