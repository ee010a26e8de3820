package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chaos-io/rembg/inference"
	"github.com/chaos-io/rembg/rembg"
	"github.com/chaos-io/rembg/store"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderImageName = "X-Image-Name"

	defaultMaxUploadBytes = 20 << 20
)

// Options configures the HTTP API.
type Options struct {
	Handle         *inference.Handle
	Store          *store.Store
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// Server exposes background removal and stored images over HTTP.
type Server struct {
	handle    *inference.Handle
	pipeline  *rembg.Pipeline
	store     *store.Store
	logger    *zap.Logger
	maxUpload int64
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Server{
		handle:    opts.Handle,
		pipeline:  rembg.NewPipeline(opts.Handle, logger),
		store:     opts.Store,
		logger:    logger.Named("server"),
		maxUpload: maxUpload,
	}
}

// Routes builds the gin router.
func (s *Server) Routes() *gin.Engine {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", HeaderRequestID}
	corsConfig.ExposeHeaders = []string{HeaderRequestID, HeaderImageName}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = s.maxUpload
	r.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		accessLogMiddleware(s.logger),
		cors.New(corsConfig),
	)

	r.GET("/health", s.healthHandler)

	api := r.Group("/api")
	api.POST("/remove-background", s.removeBackgroundHandler)
	api.GET("/images", s.listImagesHandler)
	api.GET("/images/:name", s.getImageHandler)
	api.PUT("/images/:name", s.putImageHandler)
	api.DELETE("/images/:name", s.deleteImageHandler)

	return r
}
