// Package handler implements the mayor alert REST resource: listing alerts
// with pagination, creating an alert and deleting one.
//
// Authentication and role checks are not done here; the routes are expected
// to be mounted behind middleware.Auth.Protect and middleware.Authorize.
// Every response uses the same JSON envelope:
//
//	{"success": bool, "message": string, "data": any, "error": string}
//
// where message, data and error are omitted when empty.
package handler
