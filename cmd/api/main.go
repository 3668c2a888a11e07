package main

import (
	"log"
	"strings"
	"time"

	"github.com/bonapart3/claimagent-sub002/internal/audit"
	"github.com/bonapart3/claimagent-sub002/internal/claims"
	"github.com/bonapart3/claimagent-sub002/internal/rules"
	"github.com/bonapart3/claimagent-sub002/pkg/common"
	"github.com/bonapart3/claimagent-sub002/pkg/config"
	"github.com/bonapart3/claimagent-sub002/pkg/database"
	"github.com/bonapart3/claimagent-sub002/pkg/logger"
	"github.com/bonapart3/claimagent-sub002/pkg/middleware"
	"github.com/bonapart3/claimagent-sub002/pkg/redis"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration; invalid risk breakpoints fail here, not mid-scoring
	cfg, err := config.Load("claims-decision-engine")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Connect to PostgreSQL
	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	logger.Info("Connected to PostgreSQL")

	// Connect to Redis; the rule cache degrades to database reads without it
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, jurisdiction rule cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info("Connected to Redis")
	}

	// Audit emitter; decisions proceed without a sink in degraded mode
	var auditor audit.Emitter = audit.NopEmitter{}
	if cfg.NATS.Enabled {
		natsEmitter, err := audit.NewNATSEmitter(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			logger.Warn("NATS unavailable, audit events disabled", zap.Error(err))
		} else {
			defer natsEmitter.Close()
			auditor = natsEmitter
			logger.Info("Connected to NATS", zap.String("subject", cfg.NATS.Subject))
		}
	}

	repo := claims.NewRepository(db)
	ruleStore := rules.NewPostgresStore(db, redisClient)
	service := claims.NewService(repo, ruleStore, auditor, cfg.Risk)
	handler := claims.NewHandler(service)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	// Health and metrics endpoints (no auth required)
	router.GET("/livez", common.Liveness(cfg.Server.ServiceName, serviceVersion))
	router.GET("/healthz", common.Readiness(cfg.Server.ServiceName, serviceVersion, 5*time.Second, map[string]common.DependencyCheck{
		"postgres": db.Ping,
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1", middleware.AuthMiddleware(cfg.JWT.Secret))
	handler.RegisterRoutes(api)

	addr := ":" + cfg.Server.Port
	logger.Info("Claims decision engine starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
