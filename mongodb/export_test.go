package mongodb

// Export internal symbols for testing.
// This file is only compiled during testing.

var (
	ExportValidate = func(opts ...Option) error {
		o := newOptions()
		for _, opt := range opts {
			opt(o)
		}

		return o.validate()
	}

	ExportDatabaseName = func(fromURI string, opts ...Option) string {
		o := newOptions()
		for _, opt := range opts {
			opt(o)
		}

		return o.databaseName(fromURI)
	}
)

// Collection exports the internal collection interface for testing.
type Collection = collection

// IndexView exports the internal indexView interface for testing.
type IndexView = indexView

// AlertDocument exports the internal alert document type for testing.
type AlertDocument = alertDocument

// SetCollections replaces the alerts and users collections for testing purposes.
func (c *Client) SetCollections(alerts, users Collection) {
	c.alerts = alerts
	c.users = users
}

// SetIndexViews replaces the index views for testing purposes.
func (c *Client) SetIndexViews(alerts, users IndexView) {
	c.alertIndexes = alerts
	c.userIndexes = users
}

// Users returns the users collection so tests can seed it.
func (c *Client) Users() Collection { //nolint:ireturn
	return c.users
}
