package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civicpulse/mayoralert/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

var errNotConnected = errors.New("client is not connected")

// collection defines the subset of *mongo.Collection used by the client.
// It can be replaced in tests.
type collection interface {
	Find(ctx context.Context, filter any, opts ...*mongooptions.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter any, opts ...*mongooptions.FindOneOptions) *mongo.SingleResult
	CountDocuments(ctx context.Context, filter any, opts ...*mongooptions.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document any, opts ...*mongooptions.InsertOneOptions) (*mongo.InsertOneResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...*mongooptions.DeleteOptions) (*mongo.DeleteResult, error)
	Drop(ctx context.Context) error
}

// indexView is satisfied by mongo.IndexView.
type indexView interface {
	CreateOne(ctx context.Context, model mongo.IndexModel, opts ...*mongooptions.CreateIndexesOptions) (string, error)
}

type alertDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Message   string             `bson:"message"`
	SentBy    string             `bson:"sentBy"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *alertDocument) toAlert() *types.Alert {
	return &types.Alert{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Message:   d.Message,
		SentBy:    d.SentBy,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type Client struct {
	client       *mongo.Client
	alerts       collection
	users        collection
	alertIndexes indexView
	userIndexes  indexView
	opts         *options
	logger       types.Logger
}

var _ types.DB = (*Client)(nil)

func New(logger types.Logger, opts ...Option) *Client {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Client{opts: o, logger: logger}
}

// Connect opens the connection pool and pings the deployment. It makes a
// single attempt. Configuration problems wrap types.ErrConfiguration; an
// unreachable or rejecting deployment wraps types.ErrConnection.
func (c *Client) Connect(ctx context.Context) error {
	// Close existing connection if any to prevent leaks
	if c.client != nil {
		_ = c.client.Disconnect(ctx)
		c.client = nil
	}

	if err := c.opts.validate(); err != nil {
		return fmt.Errorf("%w: invalid MongoDB configuration: %w", types.ErrConfiguration, err)
	}

	cs, err := connstring.ParseAndValidate(c.opts.uri)
	if err != nil {
		return fmt.Errorf("%w: failed to parse MongoDB connection string: %w", types.ErrConfiguration, err)
	}

	rp, err := readpref.New(c.opts.readPreference)
	if err != nil {
		return fmt.Errorf("%w: invalid MongoDB read preference: %w", types.ErrConfiguration, err)
	}

	clientOpts := mongooptions.Client().
		ApplyURI(c.opts.uri).
		SetMaxPoolSize(c.opts.poolMaxConnections).
		SetMinPoolSize(c.opts.poolMinConnections).
		SetMaxConnIdleTime(c.opts.poolMaxConnectionIdleTime).
		SetSocketTimeout(c.opts.socketTimeout).
		SetServerSelectionTimeout(c.opts.serverSelectionTimeout).
		SetConnectTimeout(c.opts.connectTimeout).
		SetReadPreference(rp)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("%w: failed to create MongoDB client: %w", types.ErrConnection, err)
	}

	if err := client.Ping(ctx, rp); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("%w: failed to ping MongoDB: %w", types.ErrConnection, err)
	}

	db := client.Database(c.opts.databaseName(cs.Database))
	alerts := db.Collection(c.opts.alertsCollection)
	users := db.Collection(c.opts.usersCollection)

	c.client = client
	c.alerts = alerts
	c.users = users
	c.alertIndexes = alerts.Indexes()
	c.userIndexes = users.Indexes()

	c.logger.Infof("MongoDB connected: %s", strings.Join(cs.Hosts, ","))

	return nil
}

func (c *Client) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	err := c.client.Disconnect(ctx)

	c.client = nil
	c.alerts = nil
	c.users = nil

	if err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return errNotConnected
	}

	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return nil
}

// Init creates the indexes used by alert listing and role lookups. Index
// creation is idempotent and always runs, as the Postgres store always runs
// its CREATE statements. Collections have no schema to validate, so
// skipSchemaValidation has no effect here.
func (c *Client) Init(ctx context.Context, _ bool) error {
	if c.alerts == nil {
		return errNotConnected
	}

	alertIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: mongooptions.Index().SetName("createdAt_desc"),
	}

	if _, err := c.alertIndexes.CreateOne(ctx, alertIndex); err != nil {
		return fmt.Errorf("failed to create alerts index: %w", err)
	}

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "role", Value: 1}},
		Options: mongooptions.Index().SetName("role_asc"),
	}

	if _, err := c.userIndexes.CreateOne(ctx, userIndex); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	return nil
}

// DropAllData drops the alerts and users collections.
//
// This method is intended for use in tests only. Do not call it in production.
func (c *Client) DropAllData(ctx context.Context) error {
	if c.alerts == nil {
		return errNotConnected
	}

	if err := c.alerts.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop alerts collection: %w", err)
	}

	if err := c.users.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop users collection: %w", err)
	}

	return nil
}

func (c *Client) CreateAlert(ctx context.Context, alert *types.Alert) error {
	if c.alerts == nil {
		return errNotConnected
	}

	if err := alert.Validate(); err != nil {
		return err
	}

	doc := &alertDocument{
		ID:        primitive.NewObjectID(),
		Title:     alert.Title,
		Message:   alert.Message,
		SentBy:    alert.SentBy,
		CreatedAt: alert.CreatedAt,
		UpdatedAt: alert.UpdatedAt,
	}

	if _, err := c.alerts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert alert into MongoDB: %w", err)
	}

	alert.ID = doc.ID.Hex()

	return nil
}

func (c *Client) FindAlerts(ctx context.Context, skip, limit int) ([]*types.Alert, error) {
	if c.alerts == nil {
		return nil, errNotConnected
	}

	if skip < 0 {
		return nil, errors.New("skip cannot be negative")
	}

	if limit < 1 {
		return nil, errors.New("limit must be greater than zero")
	}

	opts := mongooptions.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := c.alerts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find alerts in MongoDB: %w", err)
	}

	var docs []alertDocument

	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode alerts from MongoDB: %w", err)
	}

	alerts := make([]*types.Alert, 0, len(docs))

	for i := range docs {
		alerts = append(alerts, docs[i].toAlert())
	}

	return alerts, nil
}

func (c *Client) CountAlerts(ctx context.Context) (int64, error) {
	if c.alerts == nil {
		return 0, errNotConnected
	}

	n, err := c.alerts.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts in MongoDB: %w", err)
	}

	return n, nil
}

func (c *Client) FindAlertByID(ctx context.Context, id string) (*types.Alert, error) {
	if c.alerts == nil {
		return nil, errNotConnected
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, types.ErrAlertNotFound
	}

	var doc alertDocument

	if err := c.alerts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrAlertNotFound
		}

		return nil, fmt.Errorf("failed to find alert in MongoDB: %w", err)
	}

	return doc.toAlert(), nil
}

func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	if c.alerts == nil {
		return errNotConnected
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.ErrAlertNotFound
	}

	result, err := c.alerts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete alert from MongoDB: %w", err)
	}

	if result.DeletedCount == 0 {
		return types.ErrAlertNotFound
	}

	return nil
}

func (c *Client) CountUsersByRole(ctx context.Context, roles ...types.Role) (int64, error) {
	if c.users == nil {
		return 0, errNotConnected
	}

	if len(roles) == 0 {
		return 0, errors.New("at least one role is required")
	}

	values := make([]string, 0, len(roles))
	for _, r := range roles {
		values = append(values, string(r))
	}

	n, err := c.users.CountDocuments(ctx, bson.M{"role": bson.M{"$in": values}})
	if err != nil {
		return 0, fmt.Errorf("failed to count users in MongoDB: %w", err)
	}

	return n, nil
}
