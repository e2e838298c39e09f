package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicpulse/mayoralert/handler"
	"github.com/civicpulse/mayoralert/metrics"
	"github.com/civicpulse/mayoralert/middleware"
	"github.com/civicpulse/mayoralert/server"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

func newServeCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "connect to the alert store and serve the HTTP API",
		Flags: append(storeFlags(),
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "HTTP listen address",
				Value:   ":5000",
				EnvVars: []string{"LISTEN_ADDR"},
			},
			&cli.StringSliceFlag{
				Name:    "cors-origins",
				Usage:   "allowed CORS origins",
				Value:   cli.NewStringSlice("*"),
				EnvVars: []string{"CORS_ORIGINS"},
			},
			&cli.DurationFlag{
				Name:    "shutdown-timeout",
				Usage:   "time allowed for in-flight requests on shutdown",
				Value:   10 * time.Second,
				EnvVars: []string{"SHUTDOWN_TIMEOUT"},
			},
			&cli.BoolFlag{
				Name:    "skip-schema-validation",
				Usage:   "skip store schema checks at startup; tables and indexes are still created",
				EnvVars: []string{"SKIP_SCHEMA_VALIDATION"},
			},
		),
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	logger := getLogger(c)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth, err := middleware.NewAuth(c.String("jwt-secret"), logger)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, storeConfigFromCLI(c), logger)
	if err != nil {
		logger.Errorf("Error connecting to alert store: %s", err)
		return err
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.Close(closeCtx); err != nil {
			logger.Errorf("Error closing alert store: %s", err)
		}
	}()

	if err := db.Init(ctx, c.Bool("skip-schema-validation")); err != nil {
		return fmt.Errorf("failed to initialise alert store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)

	srv, err := server.New(db, handler.NewLogNotifier(logger), auth, logger,
		server.WithAddr(c.String("listen")),
		server.WithCORSOrigins(c.StringSlice("cors-origins")...),
		server.WithShutdownTimeout(c.Duration("shutdown-timeout")),
		server.WithMetrics(m, reg),
	)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
