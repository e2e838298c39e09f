package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/civicpulse/mayoralert/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNotConnected = errors.New("client is not connected")

// pool defines the interface for database operations.
// This interface is satisfied by *pgxpool.Pool and can be mocked for testing.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
	Ping(ctx context.Context) error
}

type Client struct {
	conn pool
	opts *options
}

func New(opts ...Option) *Client {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Client{opts: o}
}

func (c *Client) Connect(ctx context.Context) error {
	// Close existing connection if any to prevent leaks
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if err := c.opts.validate(); err != nil {
		return fmt.Errorf("%w: invalid Postgres db configuration: %w", types.ErrConfiguration, err)
	}

	config, err := pgxpool.ParseConfig(c.opts.connectionString())
	if err != nil {
		return fmt.Errorf("%w: failed to parse Postgres db connection string: %w", types.ErrConfiguration, err)
	}

	config.MaxConns = c.opts.poolMaxConnections
	config.MinConns = c.opts.poolMinConnections
	config.MaxConnIdleTime = c.opts.poolMaxConnectionIdleTime
	config.ConnConfig.ConnectTimeout = c.opts.connectTimeout

	// Zero leaves the server default in place.
	if c.opts.statementTimeout > 0 {
		config.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(c.opts.statementTimeout.Milliseconds(), 10)
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("%w: failed to create new Postgres connection pool: %w", types.ErrConnection, err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("%w: failed to ping Postgres db: %w", types.ErrConnection, err)
	}

	c.conn = conn

	return nil
}

func (c *Client) Close(_ context.Context) error {
	if c.conn == nil {
		return nil
	}

	c.conn.Close()

	c.conn = nil

	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return errNotConnected
	}

	if err := c.conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Postgres db: %w", err)
	}

	return nil
}

func (c *Client) Init(ctx context.Context, skipSchemaValidation bool) error {
	if c.conn == nil {
		return errNotConnected
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin init transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }() // No-op if committed

	for _, sql := range c.opts.createStatements() {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute create statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit init transaction: %w", err)
	}

	if skipSchemaValidation {
		return nil
	}

	query := "SELECT table_name, column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = 'public' ORDER BY ordinal_position"

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query information schema: %w", err)
	}

	defer rows.Close()

	infoRows := map[string]*dbRow{}

	for rows.Next() {
		var table, column string
		infoRow := &dbRow{}

		if err := rows.Scan(&table, &column, &infoRow.DataType, &infoRow.IsNullable); err != nil {
			return fmt.Errorf("failed to scan row from information schema: %w", err)
		}

		infoRows[table+"."+column] = infoRow
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over rows from information schema: %w", err)
	}

	if err := c.opts.verifyCurrentDatabaseVersion(infoRows); err != nil {
		return fmt.Errorf("failed to verify current database version: %w", err)
	}

	return nil
}

func (c *Client) DropAllData(ctx context.Context) error {
	if c.conn == nil {
		return errNotConnected
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin drop tables transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }() // No-op if committed

	for _, sql := range c.opts.dropStatements() {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute drop statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit drop tables transaction: %w", err)
	}

	return nil
}

// CreateAlert assigns a new UUID to alert and inserts it.
func (c *Client) CreateAlert(ctx context.Context, alert *types.Alert) error {
	if c.conn == nil {
		return errNotConnected
	}

	if err := alert.Validate(); err != nil {
		return err
	}

	stored := *alert
	stored.ID = uuid.NewString()

	body, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	param1 := stored.ID
	param2 := AlertModelVersion
	param3 := stored.SentBy
	param4 := stored.CreatedAt
	param5 := string(body)

	sql := fmt.Sprintf("INSERT INTO %s (id, version, sent_by, created_at, attrs) VALUES ($1, $2, $3, $4, $5)", c.opts.alertsTable)

	if _, err := c.conn.Exec(ctx, sql, param1, param2, param3, param4, param5); err != nil {
		return fmt.Errorf("failed to insert alert in Postgres db: %w", err)
	}

	alert.ID = stored.ID

	return nil
}

func (c *Client) FindAlerts(ctx context.Context, skip, limit int) ([]*types.Alert, error) {
	if c.conn == nil {
		return nil, errNotConnected
	}

	if skip < 0 {
		return nil, errors.New("skip cannot be negative")
	}

	if limit < 1 {
		return nil, errors.New("limit must be greater than zero")
	}

	param1 := skip
	param2 := limit

	query := fmt.Sprintf("SELECT attrs FROM %s ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2", c.opts.alertsTable)

	rows, err := c.conn.Query(ctx, query, param1, param2)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts from Postgres db: %w", err)
	}

	defer rows.Close()

	alerts := []*types.Alert{}

	for rows.Next() {
		var body json.RawMessage

		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}

		alert := &types.Alert{}

		if err := json.Unmarshal(body, alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
		}

		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over alert rows: %w", err)
	}

	return alerts, nil
}

func (c *Client) CountAlerts(ctx context.Context) (int64, error) {
	if c.conn == nil {
		return 0, errNotConnected
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.opts.alertsTable)

	var count int64

	if err := c.conn.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alerts in Postgres db: %w", err)
	}

	return count, nil
}

func (c *Client) FindAlertByID(ctx context.Context, id string) (*types.Alert, error) {
	if c.conn == nil {
		return nil, errNotConnected
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, types.ErrAlertNotFound
	}

	param1 := id

	query := fmt.Sprintf("SELECT attrs FROM %s WHERE id = $1", c.opts.alertsTable)

	var body json.RawMessage

	if err := c.conn.QueryRow(ctx, query, param1).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrAlertNotFound
		}

		return nil, fmt.Errorf("failed to find alert by ID in Postgres db: %w", err)
	}

	alert := &types.Alert{}

	if err := json.Unmarshal(body, alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
	}

	return alert, nil
}

func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	if c.conn == nil {
		return errNotConnected
	}

	if _, err := uuid.Parse(id); err != nil {
		return types.ErrAlertNotFound
	}

	param1 := id

	sql := fmt.Sprintf("DELETE FROM %s WHERE id = $1", c.opts.alertsTable)

	tag, err := c.conn.Exec(ctx, sql, param1)
	if err != nil {
		return fmt.Errorf("failed to delete alert from Postgres db: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrAlertNotFound
	}

	return nil
}

func (c *Client) CountUsersByRole(ctx context.Context, roles ...types.Role) (int64, error) {
	if c.conn == nil {
		return 0, errNotConnected
	}

	if len(roles) == 0 {
		return 0, errors.New("at least one role is required")
	}

	param1 := make([]string, len(roles))
	for i, r := range roles {
		param1[i] = string(r)
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE role = ANY($1)", c.opts.usersTable)

	var count int64

	if err := c.conn.QueryRow(ctx, query, param1).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users by role in Postgres db: %w", err)
	}

	return count, nil
}
