// Package postgres provides a PostgreSQL-backed implementation of the
// types.DB interface.
//
// It uses pgx v5 with connection pooling (pgxpool) and stores each alert as
// a JSONB document alongside the indexed columns the alert queries filter
// and sort on.
//
// # Usage
//
// Create a client using [New] with functional options, call [Client.Connect]
// to establish the connection pool, and then [Client.Init] to create the
// database schema:
//
//	client := postgres.New(
//	    postgres.WithHost("localhost"),
//	    postgres.WithPort(5432),
//	    postgres.WithUser("postgres"),
//	    postgres.WithPassword("secret"),
//	    postgres.WithDatabase("mayoralert"),
//	)
//
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	if err := client.Init(ctx, false); err != nil {
//	    log.Fatal(err)
//	}
//
// # Database Tables
//
// Two tables are created automatically by [Client.Init] (table names are
// configurable via [WithAlertsTable] and [WithUsersTable]):
//
//   - mayor_alerts: one row per alert, ordered by created_at
//   - users: user id and role; only the role column is read
//
// # Connection Pool
//
// Pool defaults mirror the MongoDB store: between 5 and 10 connections, idle
// connections closed after 30 seconds, and a 30 second statement_timeout set
// on every connection. Use [WithPoolMaxConnections],
// [WithPoolMinConnections], [WithPoolMaxConnectionIdleTime],
// [WithConnectTimeout] and [WithStatementTimeout] to change them.
//
// # Schema Validation
//
// When [Client.Init] is called with skipSchemaValidation set to false, it
// queries information_schema.columns and verifies that every expected column
// exists with the correct data type and nullability. Pass true to skip this
// check in environments where the schema is managed externally.
//
// # SSL
//
// SSL behaviour is controlled by [WithSSLMode] using the [SSLMode] constants
// ([SSLModeDisable], [SSLModeAllow], [SSLModePrefer], [SSLModeRequire],
// [SSLModeVerifyCA], [SSLModeVerifyFull]). The default is [SSLModePrefer].
package postgres
