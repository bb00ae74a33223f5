package router

import (
	"context"
	"log"
	"net/url"
	"time"

	"chatlobby/config"
	"chatlobby/internal/cache"
	"chatlobby/internal/handler"
	"chatlobby/internal/middleware"
	"chatlobby/internal/notify"
	"chatlobby/internal/push"
	"chatlobby/internal/repository"
	"chatlobby/internal/service"
	"chatlobby/internal/syncer"
	"chatlobby/internal/worker"
	"chatlobby/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App bundles the long-lived components main drives through their
// lifecycles (worker install/activate, manager badge loop, presence loop).
type App struct {
	Worker  *worker.Worker
	Manager *notify.Manager
	Syncer  *syncer.Syncer
	Hub     *ws.Hub
}

func Setup(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *App) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewLocalStoreRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	fcmSvc := push.NewFCMService(cfg.Firebase.ServiceAccountPath)
	if fcmSvc != nil {
		log.Printf("[FCM] Push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Printf("[FCM] Push notifications disabled: failed to init (check service account file)")
	} else {
		log.Printf("[FCM] Push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	directory := service.NewUserDirectory(userRepo)

	// Gateway worker
	caches := cache.NewCaches(rdb, cfg.Cache.Name, cfg.Cache.Version)
	originHost := ""
	if u, err := url.Parse(cfg.Cache.OriginBaseURL); err == nil {
		originHost = u.Host
	}
	classifier := cache.Classifier{OriginHost: originHost}
	fetcher := cache.NewOriginFetcher(cfg.Cache.OriginBaseURL)
	gw := worker.New(caches, classifier, fetcher, hub, fcmSvc, directory,
		cfg.Cache.OriginBaseURL, cfg.Cache.Version, cfg.Cache.PrecacheAssets)

	// Background sync
	remote := syncer.NewHTTPRemote(cfg.Cache.OriginBaseURL)
	sync := syncer.New(outboxRepo, remote, cfg.Sync.DrainBatchSize, cfg.Sync.PresenceInterval)

	// Notification manager and its collaborators
	fallback := service.NewPageDisplayer(hub)
	manager := notify.NewManager(storeRepo, gw, fallback, hub, directory)
	actions := service.NewClientActionService(hub, outboxRepo, sync)
	manager.SetCollaborators(actions, actions, actions)
	gw.SetBackgroundOps(actions)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	settingsHandler := handler.NewSettingsHandler(manager, userRepo)
	eventHandler := handler.NewEventHandler(manager)
	notificationHandler := handler.NewNotificationHandler(manager, gw)
	pushHandler := handler.NewPushHandler(gw)
	syncHandler := handler.NewSyncHandler(sync)
	cacheHandler := handler.NewCacheHandler(gw)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/notification-settings", settingsHandler.Get)
			me.PATCH("/notification-settings", settingsHandler.Update)
			me.GET("/notification-permission", settingsHandler.RequestPermission)
			me.POST("/notification-permission", settingsHandler.SetPermission)
			me.POST("/fcm-token", settingsHandler.SetFCMToken)
			me.GET("/notifications", notificationHandler.History)
			me.GET("/badge", notificationHandler.Badge)
			me.POST("/badge/clear", notificationHandler.ClearBadge)
		}

		events := api.Group("/events")
		events.Use(authMw)
		{
			events.POST("/message", eventHandler.Message)
			events.POST("/call", eventHandler.Call)
			events.POST("/status", eventHandler.Status)
		}

		api.POST("/notifications/:id/click", authMw, notificationHandler.Click)
		api.POST("/notifications/:id/close", authMw, notificationHandler.Close)
		api.POST("/notifications/click", authMw, notificationHandler.WorkerClick)

		app := api.Group("/app")
		app.Use(authMw)
		{
			app.POST("/foreground", notificationHandler.Foreground)
			app.POST("/background", notificationHandler.Background)
			app.POST("/online", notificationHandler.Online)
		}

		api.POST("/sync/:tag", authMw, syncHandler.Trigger)

		cacheGroup := api.Group("/cache")
		cacheGroup.Use(authMw)
		{
			cacheGroup.GET("/status", cacheHandler.Status)
			cacheGroup.POST("/clear", cacheHandler.Clear)
			cacheGroup.POST("/prefetch", cacheHandler.Prefetch)
		}

		api.POST("/push/:userID", pushHandler.Receive)
	}

	// A fresh bridge connection is the first sign of life after a restart:
	// load whatever queue the user persisted and drain it.
	r.GET("/ws/bridge", ws.UpgradeBridge(&cfg.JWT, hub, gw, func(userID uint) {
		manager.LoadPending(context.Background(), userID)
	}))

	// Everything else goes through the gateway's fetch pipeline.
	r.NoRoute(gw.Gateway())

	return r, &App{Worker: gw, Manager: manager, Syncer: sync, Hub: hub}
}
