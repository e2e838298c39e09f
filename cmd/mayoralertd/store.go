package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/civicpulse/mayoralert/dynamodb"
	"github.com/civicpulse/mayoralert/mongodb"
	"github.com/civicpulse/mayoralert/postgres"
	"github.com/civicpulse/mayoralert/types"
	"github.com/urfave/cli/v2"
)

const (
	backendMongoDB  = "mongodb"
	backendPostgres = "postgres"
	backendDynamoDB = "dynamodb"
)

type storeConfig struct {
	Backend string

	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string
	PostgresSSLMode  string

	DynamoDBTable string
	AWSRegion     string
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Usage:   "alert store backend (mongodb, postgres or dynamodb)",
			Value:   backendMongoDB,
			EnvVars: []string{"ALERT_STORE"},
		},
		&cli.StringFlag{
			Name:    "mongodb-uri",
			Usage:   "MongoDB connection string",
			EnvVars: []string{"MONGODB_URI"},
		},
		&cli.StringFlag{
			Name:    "mongodb-database",
			Usage:   "MongoDB database, defaults to the database in the URI",
			EnvVars: []string{"MONGODB_DATABASE"},
		},
		&cli.DurationFlag{
			Name:    "mongodb-connect-timeout",
			Usage:   "time allowed for the initial MongoDB connection and ping",
			Value:   10 * time.Second,
			EnvVars: []string{"MONGODB_CONNECT_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "postgres-host",
			Value:   "localhost",
			EnvVars: []string{"POSTGRES_HOST"},
		},
		&cli.IntFlag{
			Name:    "postgres-port",
			Value:   5432,
			EnvVars: []string{"POSTGRES_PORT"},
		},
		&cli.StringFlag{
			Name:    "postgres-user",
			EnvVars: []string{"POSTGRES_USER"},
		},
		&cli.StringFlag{
			Name:    "postgres-password",
			EnvVars: []string{"POSTGRES_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "postgres-database",
			EnvVars: []string{"POSTGRES_DATABASE"},
		},
		&cli.StringFlag{
			Name:    "postgres-sslmode",
			Value:   string(postgres.SSLModePrefer),
			EnvVars: []string{"POSTGRES_SSLMODE"},
		},
		&cli.StringFlag{
			Name:    "dynamodb-table",
			Value:   "mayoralert",
			EnvVars: []string{"DYNAMODB_TABLE"},
		},
		&cli.StringFlag{
			Name:    "aws-region",
			Usage:   "AWS region for DynamoDB, defaults to the SDK's region resolution",
			EnvVars: []string{"AWS_REGION"},
		},
	}
}

func storeConfigFromCLI(c *cli.Context) storeConfig {
	return storeConfig{
		Backend:             c.String("store"),
		MongoURI:            c.String("mongodb-uri"),
		MongoDatabase:       c.String("mongodb-database"),
		MongoConnectTimeout: c.Duration("mongodb-connect-timeout"),
		PostgresHost:        c.String("postgres-host"),
		PostgresPort:        c.Int("postgres-port"),
		PostgresUser:        c.String("postgres-user"),
		PostgresPassword:    c.String("postgres-password"),
		PostgresDatabase:    c.String("postgres-database"),
		PostgresSSLMode:     c.String("postgres-sslmode"),
		DynamoDBTable:       c.String("dynamodb-table"),
		AWSRegion:           c.String("aws-region"),
	}
}

// openStore constructs and connects the configured backend. A single
// connection attempt is made.
func openStore(ctx context.Context, cfg storeConfig, logger types.Logger) (types.DB, error) { //nolint:ireturn
	switch cfg.Backend {
	case backendMongoDB:
		opts := []mongodb.Option{
			mongodb.WithURI(cfg.MongoURI),
			mongodb.WithConnectTimeout(cfg.MongoConnectTimeout),
		}

		if cfg.MongoDatabase != "" {
			opts = append(opts, mongodb.WithDatabase(cfg.MongoDatabase))
		}

		client := mongodb.New(logger, opts...)

		if err := client.Connect(ctx); err != nil {
			return nil, err
		}

		return client, nil

	case backendPostgres:
		client := postgres.New(
			postgres.WithHost(cfg.PostgresHost),
			postgres.WithPort(cfg.PostgresPort),
			postgres.WithUser(cfg.PostgresUser),
			postgres.WithPassword(cfg.PostgresPassword),
			postgres.WithDatabase(cfg.PostgresDatabase),
			postgres.WithSSLMode(postgres.SSLMode(cfg.PostgresSSLMode)),
		)

		if err := client.Connect(ctx); err != nil {
			return nil, err
		}

		logger.Infof("Postgres connected: %s:%d", cfg.PostgresHost, cfg.PostgresPort)

		return client, nil

	case backendDynamoDB:
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load AWS config: %w", types.ErrConfiguration, err)
		}

		client := dynamodb.New(&awsCfg, cfg.DynamoDBTable)

		if err := client.Connect(); err != nil {
			return nil, err
		}

		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrConnection, err)
		}

		logger.Infof("DynamoDB connected: table %s", cfg.DynamoDBTable)

		return client, nil

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", types.ErrConfiguration, cfg.Backend)
	}
}
