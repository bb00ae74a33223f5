package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatlobby/config"
	"chatlobby/internal/database"
	"chatlobby/internal/router"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	engine, app := router.Setup(cfg, db, rdb)

	// Worker lifecycle: precache, then promote and drop stale generations.
	installCtx, cancelInstall := context.WithTimeout(context.Background(), 60*time.Second)
	if err := app.Worker.Install(installCtx); err != nil {
		log.Printf("[Worker] install: %v", err)
	}
	if err := app.Worker.Activate(installCtx); err != nil {
		log.Printf("[Worker] activate: %v", err)
	}
	cancelInstall()

	runCtx, stopBackground := context.WithCancel(context.Background())
	go app.Manager.Run(runCtx)
	go app.Syncer.Run(runCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	stopBackground()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
