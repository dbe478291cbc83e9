package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supplestore_backend/internal/config"
	"supplestore_backend/internal/database"
	"supplestore_backend/internal/router"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	// Initialize Logger with defaults until the config is read
	utils.InitLogger("info", "console")

	cfg, err := config.Load()
	if err != nil {
		utils.LogError(err, "Invalid configuration")
		os.Exit(1)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL)

	// Money goes out as JSON numbers, e.g. "total": 25.5
	decimal.MarshalJSONWithoutQuotes = true

	if err := utils.RegisterValidations(utils.StructValidation{
		Fn:    services.CouponTargetStructLevel,
		Types: []interface{}{services.CouponRequest{}},
	}); err != nil {
		utils.LogError(err, "Failed to register validators")
		os.Exit(1)
	}

	db, err := database.Open(cfg.PostgresDSN(), cfg.DBSchemaPath)
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := database.OpenRedis(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		utils.LogError(err, "Failed to initialize redis")
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Cart-Token"}
	corsConfig.ExposeHeaders = []string{"X-Cart-Token", "Content-Disposition"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if err := router.Setup(engine, db, rdb, cfg); err != nil {
		utils.LogError(err, "Failed to set up routes")
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Graceful shutdown failed")
	}
}
