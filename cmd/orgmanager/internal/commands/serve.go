package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fortressi/orgmanager/internal/crud"
	"github.com/fortressi/orgmanager/internal/gateway"
	"github.com/fortressi/orgmanager/internal/httpapi"
	"github.com/fortressi/orgmanager/internal/logger"
	"github.com/fortressi/orgmanager/internal/telemetry"
)

type ServeCmd struct {
	// Server configuration
	Listen   string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"ORGMANAGER_LISTEN"`
	BasePath string `help:"path prefix of the API routes" default:"/orgmanager/api/v1" env:"ORGMANAGER_BASE_PATH"`
	Cert     string `help:"path to TLS cert file" default:"" env:"ORGMANAGER_TLS_CERT"`
	Key      string `help:"path to TLS key file" default:"" env:"ORGMANAGER_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"*" env:"ORGMANAGER_CORS_ORIGINS"`

	Crud CrudFlags `embed:"" prefix:"crud-"`

	Telemetry bool `help:"export traces and metrics over OTLP" default:"false" env:"ORGMANAGER_TELEMETRY"`
}

// CrudFlags configures the client of the CRUD service.
type CrudFlags struct {
	BaseURL            string        `help:"base URL of the CRUD service" default:"https://spring-wildfly:8443/soa/api/v1" env:"ORGMANAGER_CRUD_BASE_URL"`
	Timeout            time.Duration `help:"timeout of each CRUD call" default:"10s" env:"ORGMANAGER_CRUD_TIMEOUT"`
	ReadRetries        uint          `help:"retries of failed read-only CRUD calls" default:"2" env:"ORGMANAGER_CRUD_READ_RETRIES"`
	RetryInterval      time.Duration `help:"initial interval between read retries" default:"200ms" env:"ORGMANAGER_CRUD_RETRY_INTERVAL"`
	InsecureSkipVerify bool          `help:"accept the CRUD service's self-signed certificate" default:"false" env:"ORGMANAGER_CRUD_INSECURE_SKIP_VERIFY"`
}

func (f CrudFlags) config() crud.Config {
	return crud.Config{
		BaseURL:            f.BaseURL,
		Timeout:            f.Timeout,
		ReadRetries:        f.ReadRetries,
		RetryInterval:      f.RetryInterval,
		InsecureSkipVerify: f.InsecureSkipVerify,
	}
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting gateway")

	if c.Telemetry {
		shutdown, err := telemetry.InitTelemetry(ctx, "orgmanager", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
			shutdown = func(context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	if !globals.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	service, err := gateway.NewService(crud.NewClient(c.Crud.config()), log)
	if err != nil {
		return fmt.Errorf("failed to create gateway service: %w", err)
	}
	router := httpapi.NewRouter(httpapi.Config{BasePath: c.BasePath, CORSOrigins: c.CORSOrigins}, service, log)

	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS needs both a certificate and a key (--cert and --key)")
	}

	srv := configureHTTPServer(c.Listen, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", c.Listen).
			Str("base_path", c.BasePath).
			Str("crud", c.Crud.BaseURL).
			Bool("tls", c.Cert != "").
			Msg("Listening")
		if c.Cert != "" {
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	return shutdownServer(srv, log)
}

// shutdownServer waits for in-flight sagas to finish.
func shutdownServer(srv *http.Server, log zerolog.Logger) error {
	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
