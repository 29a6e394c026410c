// Package httpapi exposes the gateway operations over HTTP with XML bodies.
package httpapi

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fortressi/orgmanager/internal/gateway"
	"github.com/fortressi/orgmanager/internal/logger"
)

const DefaultBasePath = "/orgmanager/api/v1"

// Operations are the composite operations served by the router.
type Operations interface {
	Acquire(ctx context.Context, acquirerID, acquiredID int64) (*gateway.Acquiring, error)
	FireAll(ctx context.Context, orgID int64) (*gateway.FireResponse, error)
}

var _ Operations = (*gateway.Service)(nil)

type Config struct {
	BasePath string
	// CORSOrigins lists the origins allowed to call the API from a browser.
	// "*" allows any origin; an empty list disables CORS handling.
	CORSOrigins []string
}

func NewRouter(cfg Config, ops Operations, log zerolog.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinRequests(log))
	if len(cfg.CORSOrigins) > 0 {
		engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	h := &handlers{ops: ops, validate: validator.New(validator.WithRequiredStructEnabled())}

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	api := engine.Group(basePath)
	api.POST("/acquire/:acquirerId/:acquiredId", h.acquire)
	api.POST("/fire/all/:id", h.fireAll)

	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
