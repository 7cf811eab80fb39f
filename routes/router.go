package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Odiedo123/Tenacity/config"
	"github.com/Odiedo123/Tenacity/controllers"
	"github.com/Odiedo123/Tenacity/middleware"
	"github.com/Odiedo123/Tenacity/services"
	"github.com/Odiedo123/Tenacity/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, store services.ObjectStore) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// In-memory threshold for multipart parsing; larger parts spill to disk.
	// The actual size cap is the per-route body limit below.
	r.MaxMultipartMemory = 8 << 20

	r.Static("/static", "./static")

	r.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})
	r.GET("/login", func(c *gin.Context) {
		c.File("./static/log-in.html")
	})
	r.GET("/signup", func(c *gin.Context) {
		c.File("./static/sign-in.html")
	})
	r.GET("/home", func(c *gin.Context) {
		c.File("./static/home.html")
	})
	r.GET("/dashboard", func(c *gin.Context) {
		c.File("./static/dashboard.html")
	})
	r.GET("/sitemap.xml", func(c *gin.Context) {
		c.File("./sitemap.xml")
	})
	r.GET("/robots.txt", func(c *gin.Context) {
		c.File("./robots.txt")
	})

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	repo := services.NewFileRepo(db)
	cache := services.NewMetadataCache(store, time.Duration(cfg.MetadataCacheTTLSec)*time.Second)
	uploader := services.NewUploader(store, repo, cfg.UploadWorkers, utils.Sugar)
	fileService := services.NewFileService(repo, store, cache, cfg.StorageQuotaMB, utils.Sugar)

	authController := controllers.NewAuthController(db)
	fileController := controllers.NewFileController(uploader, fileService)

	auth := r.Group("")
	auth.Use(middleware.RateLimitMiddleware())
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)
	auth.GET("/logout", authController.Logout)

	protected := r.Group("")
	protected.Use(middleware.AuthRequired())
	maxUploadBytes := int64(cfg.MaxUploadSizeMB) << 20
	protected.POST("/upload", middleware.RateLimitMiddleware(), middleware.BodySizeLimit(maxUploadBytes), fileController.Upload)
	protected.GET("/files/list", fileController.List)
	protected.GET("/files/sort", fileController.SortFiles)
	protected.GET("/files/download/:filename", fileController.Download)
	protected.GET("/files/:filename", fileController.Download)
	protected.DELETE("/files/delete/:filename", fileController.Delete)
	protected.POST("/files/edit/:filename", fileController.Rename)
	protected.GET("/api/storage", fileController.Storage)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/files/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
			return
		}
		if strings.HasPrefix(path, "/static/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "static asset not found"})
			return
		}
		ctx.Status(http.StatusOK)
		ctx.File("./static/index.html")
	})

	return r
}
