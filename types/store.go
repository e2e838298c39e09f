package types

import "context"

// Role is a user capability checked by the authorization middleware.
type Role string

const (
	RoleMayor   Role = "mayor"
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// AlertRecipientRoles are the roles an alert is addressed to.
var AlertRecipientRoles = []Role{RoleCitizen, RoleAdmin}

// AlertStore persists alerts.
//
// CreateAlert assigns alert.ID. FindAlerts returns at most limit alerts ordered
// by CreatedAt descending, starting at offset skip. FindAlertByID and
// DeleteAlert return ErrAlertNotFound when no alert has the given ID,
// including IDs that are malformed for the backend.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert *Alert) error
	FindAlerts(ctx context.Context, skip, limit int) ([]*Alert, error)
	CountAlerts(ctx context.Context) (int64, error)
	FindAlertByID(ctx context.Context, id string) (*Alert, error)
	DeleteAlert(ctx context.Context, id string) error
}

// UserDirectory answers role membership questions about users.
type UserDirectory interface {
	CountUsersByRole(ctx context.Context, roles ...Role) (int64, error)
}

// DB is implemented by every store backend.
type DB interface {
	AlertStore
	UserDirectory

	// Init creates whatever tables or indexes the store needs. When
	// skipSchemaValidation is false it also verifies an existing schema.
	Init(ctx context.Context, skipSchemaValidation bool) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Notifier fans an alert out to its recipients.
type Notifier interface {
	NotifyAlertCreated(ctx context.Context, alert *Alert, recipients int64) error
}
