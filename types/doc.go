// Package types holds the domain model shared by the alert stores, the HTTP
// handler and the entry point: the [Alert] record, pagination arithmetic, the
// store and directory interfaces each backend implements, the [Logger]
// abstraction and the sentinel errors used to map failures onto HTTP status
// codes.
package types
