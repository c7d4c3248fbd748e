package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RouterOptions controls CORS and gin mode.
type RouterOptions struct {
	AllowedOrigins []string
	Production     bool
	Debug          bool
}

// NewRouter builds the HTTP API around svc.
func NewRouter(svc *Service, log *zap.Logger, opts RouterOptions) *gin.Engine {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(log))
	router.Use(cors.New(corsConfig(opts)))

	h := &handlers{svc: svc}
	router.GET("/", h.root)
	router.GET("/health", h.health)
	router.GET("/metrics", h.metrics)

	api := router.Group("/api")
	{
		api.GET("/news", h.getNews)
		api.POST("/news/refresh", h.refresh)
		api.GET("/news/:id", h.getArticle)
		api.POST("/summarize/full", h.summarizeFull)
		api.POST("/summarize/explain", h.explain)
	}
	return router
}

func corsConfig(opts RouterOptions) cors.Config {
	allowed := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc: func(origin string) bool {
			if _, ok := allowed[origin]; ok {
				return true
			}
			return opts.Production && isVercelOrigin(origin)
		},
	}
}

// isVercelOrigin matches https://<anything>.vercel.app.
func isVercelOrigin(origin string) bool {
	host, ok := strings.CutPrefix(origin, "https://")
	if !ok {
		return false
	}
	sub, ok := strings.CutSuffix(host, ".vercel.app")
	return ok && sub != ""
}

// requestID tags every request with an id, reusing the caller's when sent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs each request using zap.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
