package mongodb

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// validCollectionName rejects names MongoDB refuses or that would address a
// system collection.
var validCollectionName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)

const defaultDatabase = "mayoralert"

// Option is a functional option for configuring a Client.
type Option func(*options)

type options struct {
	uri                       string
	database                  string
	alertsCollection          string
	usersCollection           string
	poolMaxConnections        uint64
	poolMinConnections        uint64
	poolMaxConnectionIdleTime time.Duration
	socketTimeout             time.Duration
	serverSelectionTimeout    time.Duration
	connectTimeout            time.Duration
	readPreference            readpref.Mode
}

func newOptions() *options {
	return &options{
		alertsCollection:          "mayoralerts",
		usersCollection:           "users",
		poolMaxConnections:        10,
		poolMinConnections:        5,
		poolMaxConnectionIdleTime: 30 * time.Second,
		socketTimeout:             30 * time.Second,
		serverSelectionTimeout:    30 * time.Second,
		connectTimeout:            10 * time.Second,
		readPreference:            readpref.NearestMode,
	}
}

// WithURI sets the MongoDB connection string. It is required.
func WithURI(uri string) Option {
	return func(o *options) { o.uri = uri }
}

// WithDatabase sets the database name. When empty, the database named in the
// connection string is used, falling back to "mayoralert".
func WithDatabase(database string) Option {
	return func(o *options) { o.database = database }
}

func WithAlertsCollection(name string) Option {
	return func(o *options) { o.alertsCollection = name }
}

func WithUsersCollection(name string) Option {
	return func(o *options) { o.usersCollection = name }
}

func WithPoolMaxConnections(n uint64) Option {
	return func(o *options) { o.poolMaxConnections = n }
}

func WithPoolMinConnections(n uint64) Option {
	return func(o *options) { o.poolMinConnections = n }
}

// WithPoolMaxConnectionIdleTime sets how long a pooled connection may stay
// idle before it is closed. Default: 30 seconds.
func WithPoolMaxConnectionIdleTime(d time.Duration) Option {
	return func(o *options) { o.poolMaxConnectionIdleTime = d }
}

// WithSocketTimeout sets the timeout applied to every socket read and write.
// Default: 30 seconds.
func WithSocketTimeout(d time.Duration) Option {
	return func(o *options) { o.socketTimeout = d }
}

func WithServerSelectionTimeout(d time.Duration) Option {
	return func(o *options) { o.serverSelectionTimeout = d }
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.connectTimeout = d }
}

// WithReadPreference sets the read preference mode. Default: nearest.
func WithReadPreference(mode readpref.Mode) Option {
	return func(o *options) { o.readPreference = mode }
}

func (o *options) validate() error {
	if o.uri == "" {
		return errors.New("MongoDB URI is required")
	}

	if o.poolMaxConnections < 1 {
		return errors.New("pool max connections must be greater than zero")
	}

	if o.poolMinConnections > o.poolMaxConnections {
		return fmt.Errorf("pool min connections (%d) cannot exceed pool max connections (%d)", o.poolMinConnections, o.poolMaxConnections)
	}

	if o.poolMaxConnectionIdleTime <= 0 {
		return errors.New("pool max connection idle time must be greater than zero")
	}

	if o.socketTimeout <= 0 {
		return errors.New("socket timeout must be greater than zero")
	}

	if o.serverSelectionTimeout <= 0 {
		return errors.New("server selection timeout must be greater than zero")
	}

	if o.connectTimeout <= 0 {
		return errors.New("connect timeout must be greater than zero")
	}

	if !o.readPreference.IsValid() {
		return fmt.Errorf("invalid read preference mode: %d", o.readPreference)
	}

	if err := validateCollectionName(o.alertsCollection); err != nil {
		return fmt.Errorf("invalid alerts collection name: %w", err)
	}

	if err := validateCollectionName(o.usersCollection); err != nil {
		return fmt.Errorf("invalid users collection name: %w", err)
	}

	return nil
}

// databaseName resolves the database to use given the database parsed from
// the connection string.
func (o *options) databaseName(fromURI string) string {
	if o.database != "" {
		return o.database
	}

	if fromURI != "" {
		return fromURI
	}

	return defaultDatabase
}

func validateCollectionName(name string) error {
	if !validCollectionName.MatchString(name) {
		return fmt.Errorf("collection name %q contains invalid characters", name)
	}

	return nil
}
