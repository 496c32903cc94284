package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ttlearn/adapters/db"
	"ttlearn/adapters/excel"
	"ttlearn/app"
	"ttlearn/internal/api"
	"ttlearn/internal/config"
	"ttlearn/internal/observability"
	"ttlearn/internal/worker"
	"ttlearn/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	conn, err := db.Connect(appConfig.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer conn.Close()

	migrator := db.NewMigrationRunner()
	if err := migrator.Run(context.Background(), conn); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	runs := db.NewRunRepository(conn)
	reader := excel.NewReader()
	analysisSvc := app.NewAnalysisService(reader, runs)
	historySvc := app.NewHistoryService(runs)

	metrics := observability.NewMetrics()
	hub := api.NewSSEHub()
	defer hub.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.New(analysisSvc, 16)
	w.SetNotifier(api.NewRunEventBroadcaster(hub, metrics))
	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start analysis worker: %v", err)
	}
	defer w.Stop()

	apiServer := ui.NewServer(*appConfig, analysisSvc, historySvc, w, hub, metrics)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: apiServer.Handler(),
	}
	adminSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.AdminPort),
		Handler: ui.NewAdminRouter(conn, metrics),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Analysis API listening on http://localhost:%s", appConfig.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Printf("Admin endpoints listening on http://localhost:%s", appConfig.Server.AdminPort)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("API shutdown error: %v", err)
		}
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Admin shutdown error: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Shutdown complete")
}
