package postgres

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// validIdentifier matches unquoted PostgreSQL identifiers.
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const AlertModelVersion = 1

// SSLMode represents PostgreSQL SSL connection modes.
type SSLMode string

const (
	SSLModeDisable    SSLMode = "disable"     // No SSL
	SSLModeAllow      SSLMode = "allow"       // Try non-SSL first, then SSL
	SSLModePrefer     SSLMode = "prefer"      // Try SSL first, then non-SSL (default)
	SSLModeRequire    SSLMode = "require"     // Only SSL (no certificate verification)
	SSLModeVerifyCA   SSLMode = "verify-ca"   // SSL with CA verification
	SSLModeVerifyFull SSLMode = "verify-full" // SSL with CA and hostname verification
)

// Option configures a Client.
type Option func(*options)

type options struct {
	host     string
	port     int
	user     string
	password string
	database string
	sslMode  SSLMode

	poolMaxConnections        int32
	poolMinConnections        int32
	poolMaxConnectionIdleTime time.Duration
	connectTimeout            time.Duration
	statementTimeout          time.Duration

	alertsTable string
	usersTable  string
}

// Pool sizing and timeouts match the MongoDB store so the backends behave
// the same under load.
func newOptions() *options {
	return &options{
		host:                      "localhost",
		port:                      5432,
		sslMode:                   SSLModePrefer,
		poolMaxConnections:        10,
		poolMinConnections:        5,
		poolMaxConnectionIdleTime: 30 * time.Second,
		connectTimeout:            10 * time.Second,
		statementTimeout:          30 * time.Second,
		alertsTable:               "mayor_alerts",
		usersTable:                "users",
	}
}

func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

func WithPort(port int) Option {
	return func(o *options) { o.port = port }
}

func WithUser(user string) Option {
	return func(o *options) { o.user = user }
}

func WithPassword(password string) Option {
	return func(o *options) { o.password = password }
}

func WithDatabase(database string) Option {
	return func(o *options) { o.database = database }
}

func WithSSLMode(mode SSLMode) Option {
	return func(o *options) { o.sslMode = mode }
}

func WithPoolMaxConnections(n int32) Option {
	return func(o *options) { o.poolMaxConnections = n }
}

func WithPoolMinConnections(n int32) Option {
	return func(o *options) { o.poolMinConnections = n }
}

func WithPoolMaxConnectionIdleTime(d time.Duration) Option {
	return func(o *options) { o.poolMaxConnectionIdleTime = d }
}

// WithConnectTimeout bounds dialing a single connection.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.connectTimeout = d }
}

// WithStatementTimeout sets the server-side statement_timeout for every
// pooled connection.
func WithStatementTimeout(d time.Duration) Option {
	return func(o *options) { o.statementTimeout = d }
}

func WithAlertsTable(name string) Option {
	return func(o *options) { o.alertsTable = name }
}

func WithUsersTable(name string) Option {
	return func(o *options) { o.usersTable = name }
}

type dbRow struct {
	DataType   string
	IsNullable string
}

func (o *options) validate() error {
	if o.port < 1 || o.port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", o.port)
	}

	if o.user == "" {
		return errors.New("user is required")
	}

	if o.database == "" {
		return errors.New("database is required")
	}

	if !o.sslMode.isValid() {
		return fmt.Errorf("invalid SSL mode: %s", o.sslMode)
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

	if o.connectTimeout <= 0 {
		return errors.New("connect timeout must be greater than zero")
	}

	if o.statementTimeout < 0 {
		return errors.New("statement timeout cannot be negative")
	}

	if err := validateTableName(o.alertsTable); err != nil {
		return fmt.Errorf("invalid alerts table name: %w", err)
	}

	if err := validateTableName(o.usersTable); err != nil {
		return fmt.Errorf("invalid users table name: %w", err)
	}

	return nil
}

func validateTableName(name string) error {
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("table name %q contains invalid characters", name)
	}

	return nil
}

// isValid returns true if the SSL mode is a valid PostgreSQL SSL mode.
func (s SSLMode) isValid() bool {
	switch s {
	case SSLModeDisable, SSLModeAllow, SSLModePrefer, SSLModeRequire, SSLModeVerifyCA, SSLModeVerifyFull:
		return true
	default:
		return false
	}
}

func (o *options) connectionString() string {
	host := net.JoinHostPort(o.host, strconv.Itoa(o.port))

	user := url.QueryEscape(o.user)

	if o.password != "" {
		user += ":" + url.QueryEscape(o.password)
	}

	return fmt.Sprintf("postgres://%s@%s/%s?sslmode=%s", user, host, o.database, o.sslMode)
}

func (o *options) createStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id text PRIMARY KEY, version SMALLINT NOT NULL, sent_by text NOT NULL, created_at TIMESTAMP WITH TIME ZONE NOT NULL, attrs JSONB NOT NULL);`, o.alertsTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_created_at_idx ON %s (created_at DESC, id DESC);`, o.alertsTable, o.alertsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id text PRIMARY KEY, role text NOT NULL, attrs JSONB NULL);`, o.usersTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_role_idx ON %s (role);`, o.usersTable, o.usersTable),
	}
}

func (o *options) dropStatements() []string {
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", o.alertsTable),
		fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", o.usersTable),
	}
}

func (o *options) verifyCurrentDatabaseVersion(actualRows map[string]*dbRow) error {
	expectedRows := map[string]*dbRow{
		o.alertsTable + ".id":         {DataType: "text", IsNullable: "NO"},
		o.alertsTable + ".version":    {DataType: "smallint", IsNullable: "NO"},
		o.alertsTable + ".sent_by":    {DataType: "text", IsNullable: "NO"},
		o.alertsTable + ".created_at": {DataType: "timestamp with time zone", IsNullable: "NO"},
		o.alertsTable + ".attrs":      {DataType: "jsonb", IsNullable: "NO"},
		o.usersTable + ".id":          {DataType: "text", IsNullable: "NO"},
		o.usersTable + ".role":        {DataType: "text", IsNullable: "NO"},
	}

	for id, expectedRow := range expectedRows {
		actual, ok := actualRows[id]
		if !ok {
			return fmt.Errorf("expected row '%s' not found in current database schema", id)
		}

		if !strings.EqualFold(actual.DataType, expectedRow.DataType) {
			return fmt.Errorf("data type mismatch for '%s': expected %s, got %s", id, expectedRow.DataType, actual.DataType)
		}

		if !strings.EqualFold(actual.IsNullable, expectedRow.IsNullable) {
			return fmt.Errorf("nullability mismatch for '%s': expected %s, got %s", id, expectedRow.IsNullable, actual.IsNullable)
		}
	}

	return nil
}
