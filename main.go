package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"match-service/internal/auth"
	"match-service/internal/config"
	"match-service/internal/db"
	grpcserver "match-service/internal/grpc"
	"match-service/internal/handlers"
	"match-service/internal/idgen"
	"match-service/internal/middleware"
	"match-service/internal/observability"
	"match-service/internal/rabbitmq"
	"match-service/internal/repositories"
	"match-service/internal/repositories/dynamo"
	"match-service/internal/repositories/memory"
	"match-service/internal/services"
	"match-service/internal/telemetry"
	"match-service/internal/ws"
)

const serviceName = "match-service"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}

	seq, err := idgen.NewSequencer(cfg.NodeID)
	if err != nil {
		log.Fatalf("init sequencer: %v", err)
	}

	store, err := openStore(ctx, cfg, seq)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.StoreDriver, err)
	}
	log.Printf("store ready driver=%s", cfg.StoreDriver)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	mode, reason := rabbitmq.Describe(publisher)
	log.Printf("event publisher mode=%s reason=%s", mode, reason)
	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit."+serviceName, serviceName, cfg.Environment)

	hub := ws.NewHub(publisher)
	var notifier services.Notifier = hub
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping addr=%s: %v", cfg.RedisAddr, err)
		}
		defer rdb.Close()

		relay := ws.NewRedisRelay(rdb, hub)
		notifier = relay
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("redis relay stopped: %v", err)
			}
		}()
		log.Printf("redis relay enabled addr=%s", cfg.RedisAddr)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	feed := services.NewFeedService(store.Groups, store.Likes)
	ledger := services.NewLikeLedger(store.Likes, publisher)
	registry := services.NewMatchRegistry(store.Matches, store.Groups, publisher)
	swipe := services.NewSwipeService(feed, ledger, registry)
	conversation := services.NewConversationService(registry, store.Messages, notifier, publisher)
	groups := services.NewGroupService(store.Groups)

	feedHandler := handlers.NewFeedHandler(feed, swipe, auditEmitter)
	matchHandler := handlers.NewMatchHandler(registry, conversation, auditEmitter)
	groupHandler := handlers.NewGroupHandler(groups, auditEmitter)
	matchWS := ws.NewMatchWebSocketHandler(hub, registry, tokens, store.Users, originChecker(cfg.CORSOrigins))

	router := gin.New()
	router.Use(middleware.AccessLogger(gin.DefaultWriter), gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", observability.MetricsHandler())

	api := router.Group("/api", middleware.AuthMiddleware(tokens, store.Users))
	api.POST("/groups", groupHandler.CreateGroup)

	withGroup := api.Group("", middleware.RequireGroup())
	withGroup.GET("/groups/me", groupHandler.GetMyGroup)
	withGroup.GET("/feed", feedHandler.GetFeed)
	withGroup.GET("/feed/candidates", feedHandler.ListCandidates)
	withGroup.POST("/feed/like", feedHandler.Like)
	withGroup.POST("/feed/pass", feedHandler.Pass)
	withGroup.GET("/matches", matchHandler.ListMatches)
	withGroup.GET("/matches/:match_id/messages", matchHandler.ListMessages)
	withGroup.POST("/matches/:match_id/messages", matchHandler.PostMessage)

	router.GET("/ws/matches/:match_id", matchWS.Handle)

	handlers.RegisterDebugRoutes(router, auditEmitter, tokens, cfg.DebugRoutes)

	corsHandler := newCORS(cfg.CORSOrigins).Handler(router)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	health := grpcserver.NewHealthServer(store.Ping)
	go health.Watch(ctx, 15*time.Second)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("grpc listen addr=%s: %v", cfg.GRPCAddr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Printf("http listening addr=%s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := health.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received")
	case err := <-errCh:
		log.Printf("server exited with error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown failed: %v", err)
	}
	health.Stop()
	if err := publisher.Close(); err != nil {
		log.Printf("publisher close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		log.Printf("store close failed: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("tracer shutdown failed: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config, seq *idgen.Sequencer) (repositories.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return repositories.Store{}, err
		}
		return repositories.NewPostgresStore(database), nil
	case config.DriverDynamo:
		client, err := dynamo.NewClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return repositories.Store{}, err
		}
		store := dynamo.New(client, dynamo.TablesWithPrefix(cfg.DynamoTablePrefix), seq).Bundle()
		if err := store.Ping(ctx); err != nil {
			return repositories.Store{}, err
		}
		return store, nil
	case config.DriverMemory:
		return memory.New(seq).Bundle(), nil
	}
	return repositories.Store{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Auth is a bearer header, never a cookie, so credentialed CORS stays off.
func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
	})
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
