// Command mayoralertd serves the mayor alert API.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/civicpulse/mayoralert/logging"
	"github.com/civicpulse/mayoralert/types"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Environment from .env must be in place before flags read their EnvVars.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env file: %s\n", err)
		os.Exit(1)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "mayoralertd",
		Usage:  "Mayor alert broadcast API",
		Flags:  globalFlags(),
		Before: withLogger(),
		After: func(c *cli.Context) error {
			if logger, ok := c.App.Metadata["logger"].(*logging.Logger); ok {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			newServeCmd(),
			newTokenCmd(),
		},
		DefaultCommand: "serve",
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-encoding",
			Usage:   "log encoding (json or console)",
			Value:   logging.EncodingJSON,
			EnvVars: []string{"LOG_ENCODING"},
		},
		&cli.StringFlag{
			Name:    "jwt-secret",
			Usage:   "HS256 secret used to verify bearer tokens",
			EnvVars: []string{"JWT_SECRET"},
		},
	}
}

func withLogger() cli.BeforeFunc {
	return func(c *cli.Context) error {
		logger, err := logging.New(c.String("log-level"), c.String("log-encoding"))
		if err != nil {
			return fmt.Errorf("%w: %w", types.ErrConfiguration, err)
		}

		if c.App.Metadata == nil {
			c.App.Metadata = map[string]any{}
		}

		c.App.Metadata["logger"] = logger

		return nil
	}
}

func getLogger(c *cli.Context) *logging.Logger {
	logger, ok := c.App.Metadata["logger"].(*logging.Logger)
	if !ok {
		panic("missing logger")
	}
	return logger
}
