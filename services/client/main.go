package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chatsync/internal/config"
	"github.com/chatsync/internal/engine"
	"github.com/chatsync/internal/gateway"
	"github.com/chatsync/internal/logger"
	"github.com/chatsync/internal/rest"
	"github.com/chatsync/internal/socket"
	"github.com/chatsync/internal/storage"
	"github.com/chatsync/internal/storage/memory"
	redisstore "github.com/chatsync/internal/storage/redis"
	"github.com/chatsync/internal/store"
)

func main() {
	logger.SetPrefix("client")
	dev := flag.Bool("dev", false, "run without Redis (settings kept in memory)")
	flag.Parse()

	logger.Info("starting sync client")
	cfg := config.Load()
	if cfg.UserID == "" {
		logger.Error("USER_ID is required (supplied by the auth service)")
		os.Exit(1)
	}

	var settings storage.SettingsStore
	if cfg.RedisURL != "" && !*dev {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s, err := redisstore.New(ctx, cfg.RedisURL, cfg.UserID)
		cancel()
		if err != nil {
			logger.Errorf("redis settings store: %v", err)
			os.Exit(1)
		}
		settings = s
		logger.Info("settings store: redis")
	} else {
		settings = memory.New()
		logger.Info("settings store: memory")
	}
	defer settings.Close()

	messages := store.NewMessageStore()
	convs := store.NewConversationStore()
	transport := socket.NewClient(cfg.SocketURL)

	msgEngine := engine.NewMessageEngine(cfg.UserID, messages, convs, transport, engine.MessageEngineOptions{
		SentDelay:      cfg.SentDelay,
		DeliveredDelay: cfg.DeliveredDelay,
	})
	notifEngine := engine.NewNotificationEngine(settings)
	notifEngine.Attach(transport)

	// Initial population from the REST collaborator: fetched records go
	// through the same entry points as live events.
	restClient := rest.NewClient(cfg.NotificationServiceURL)
	popCtx, popCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if fetched, err := restClient.FetchConversations(popCtx, cfg.UserID); err != nil {
		logger.Errorf("fetch conversations: %v", err)
	} else {
		for _, c := range fetched {
			convs.Put(c)
		}
		logger.Infof("conversations loaded: %d", len(fetched))
	}
	if fetched, err := restClient.FetchNotifications(popCtx, cfg.UserID); err != nil {
		logger.Errorf("fetch notifications: %v", err)
	} else {
		added := 0
		for _, n := range fetched {
			created, err := notifEngine.Add(popCtx, n)
			if err != nil {
				logger.Errorf("seed notification: %v", err)
				continue
			}
			if created {
				added++
			}
		}
		logger.Infof("notifications loaded: %d", added)
	}
	popCancel()

	startCtx, startCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := msgEngine.Start(startCtx); err != nil {
		// Not fatal: the local state stays usable, reconnect is explicit.
		logger.Errorf("transport connect: %v", err)
	}
	startCancel()

	genCtx, genCancel := context.WithCancel(context.Background())
	var genWg sync.WaitGroup
	if cfg.Generator.Chance > 0 {
		gen := engine.NewGenerator(notifEngine, time.Duration(cfg.Generator.IntervalSeconds)*time.Second, cfg.Generator.Chance)
		genWg.Add(1)
		go func() {
			defer genWg.Done()
			gen.Run(genCtx)
		}()
	}

	msgH := gateway.NewMessageHandler(msgEngine, messages, convs)
	notifH := gateway.NewNotificationHandler(notifEngine, settings)
	router := gateway.NewRouter(msgH, notifH, cfg.CORSAllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.GatewayAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("gateway listening on %s", cfg.GatewayAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("gateway error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("gateway shutdown: %v", err)
	}
	genCancel()
	genWg.Wait()
	if err := transport.Close(); err != nil {
		logger.Errorf("transport close: %v", err)
	}
	srvWg.Wait()
	logger.Info("sync client stopped")
}
