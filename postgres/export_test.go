package postgres

import "context"

// Export internal symbols for testing.
// This file is only compiled during testing.

var (
	ExportValidateTableName = validateTableName

	ExportValidate = func(opts ...Option) error {
		return buildOptions(opts...).validate()
	}

	ExportConnectionString = func(opts ...Option) string {
		return buildOptions(opts...).connectionString()
	}

	ExportCreateStatements = func(opts ...Option) []string {
		return buildOptions(opts...).createStatements()
	}

	ExportDropStatements = func(opts ...Option) []string {
		return buildOptions(opts...).dropStatements()
	}

	ExportVerifyDatabaseSchema = func(opts ...Option) func(map[string]*dbRow) error {
		return buildOptions(opts...).verifyCurrentDatabaseVersion
	}
)

func buildOptions(opts ...Option) *options {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// DBRow exports the internal dbRow type for testing.
type DBRow = dbRow

// Pool exports the internal pool interface for testing.
type Pool = pool

// SetPool sets the connection pool for testing purposes.
func (c *Client) SetPool(p Pool) {
	c.conn = p
}

// ExecSQL runs a raw statement against the pool. Used by integration tests to
// seed the users table.
func (c *Client) ExecSQL(ctx context.Context, sql string, args ...any) error {
	if c.conn == nil {
		return errNotConnected
	}

	_, err := c.conn.Exec(ctx, sql, args...)

	return err
}
