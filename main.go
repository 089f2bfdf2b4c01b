package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"compound-db/config"
	"compound-db/models"
	"compound-db/services"
	"compound-db/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func requestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		log.Info("Request handled",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := storage.OpenDB(cfg)
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	logging.Info("Successfully connected to compound database.", zap.String("driver", cfg.DBDriver))

	logging.Info("Running database auto-migration...")
	if err := storage.Migrate(db); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Setup Services
	compoundService := services.NewCompoundService(cfg, db, logging)
	if cfg.StrictFilterLogic {
		logging.Info("Strict filter logic enabled: unknown comparators are rejected")
	}
	if cfg.SearchCrossCheck {
		logging.Info("Search cross-check against in-memory reference enabled")
	}

	var snapshotService *services.SnapshotService
	if cfg.SnapshotsEnabled() {
		s3Client, err := storage.NewS3Client(context.Background(), cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		bucket := &storage.Bucket{Client: s3Client, Name: cfg.S3Bucket, URL: cfg.S3URL}
		snapshotService = services.NewSnapshotService(compoundService, bucket, cfg.SnapshotPrefix, cfg.SnapshotKeep, logging)
	}

	router := newRouter(compoundService, snapshotService, logging)

	// Setup Cron
	if snapshotService != nil && cfg.SnapshotCronSchedule != "" {
		cronScheduler := cron.New()
		_, err := cronScheduler.AddFunc(cfg.SnapshotCronSchedule, func() {
			logging.Info("Running scheduled snapshot job...")
			link, err := snapshotService.Run(context.Background())
			if err != nil {
				logging.Error("Snapshot job failed", zap.Error(err))
				return
			}
			logging.Info("Snapshot job completed", zap.String("link", link))
		})
		if err != nil {
			logging.Fatal("Invalid SNAPSHOT_CRON_SCHEDULE", zap.String("schedule", cfg.SnapshotCronSchedule), zap.Error(err))
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// newRouter baut die gin-Engine mit allen Routen. snapshots darf nil sein.
func newRouter(compounds *services.CompoundService, snapshots *services.SnapshotService, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogMiddleware(log))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		count, err := compounds.Count(c.Request.Context())
		if err != nil {
			log.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "compounds": count})
	})

	setupDataRoutes(router, compounds, log)
	if snapshots != nil {
		setupSnapshotRoutes(router, snapshots, log)
	}
	return router
}

// respondServiceError trennt Validierungsfehler (400) von Speicherfehlern (500).
func respondServiceError(c *gin.Context, log *zap.Logger, err error, msg string) {
	if services.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
}

func setupDataRoutes(router *gin.Engine, svc *services.CompoundService, log *zap.Logger) {
	rg := router.Group("/data")

	// POST - Add one compound with its properties
	rg.POST("/add/", func(c *gin.Context) {
		var payload models.CompoundPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		created, err := svc.Add(c.Request.Context(), payload)
		if err != nil {
			respondServiceError(c, log, err, "Failed to add compound")
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	// POST - Add a list of compounds, all or nothing
	rg.POST("/batchadd/", func(c *gin.Context) {
		var payloads []models.CompoundPayload
		if err := c.ShouldBindJSON(&payloads); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		if err := svc.AddMany(c.Request.Context(), payloads); err != nil {
			respondServiceError(c, log, err, "Failed to add compounds")
			return
		}
		c.JSON(http.StatusCreated, gin.H{})
	})

	// POST - Remove every compound
	rg.POST("/clear/", func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context()); err != nil {
			respondServiceError(c, log, err, "Failed to clear compounds")
			return
		}
		c.Status(http.StatusNoContent)
	})

	// POST - Search compounds by name and property rules
	rg.POST("/search/", func(c *gin.Context) {
		var filter models.FilterRequest
		// Ein leerer Body ist ein leerer Filter
		if err := c.ShouldBindJSON(&filter); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		compounds, err := svc.Search(c.Request.Context(), filter)
		if err != nil {
			respondServiceError(c, log, err, "Database query for compounds failed")
			return
		}
		c.JSON(http.StatusOK, compounds)
	})
}

func setupSnapshotRoutes(router *gin.Engine, snapshots *services.SnapshotService, log *zap.Logger) {
	// POST - Export a snapshot of all compounds to object storage
	router.POST("/snapshots/", func(c *gin.Context) {
		link, err := snapshots.Run(c.Request.Context())
		if err != nil {
			log.Error("Manual snapshot failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"link": link})
	})
}
