package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/civicpulse/mayoralert/types"
	"github.com/google/uuid"
)

const (
	// PartitionKey is the DynamoDB partition key attribute name.
	PartitionKey = "pk"

	// SortKey is the DynamoDB sort key attribute name.
	SortKey = "sk"

	// BodyAttr is the attribute name used to store the JSON-encoded alert.
	BodyAttr = "body"

	// AlertSortKeyAttr is stored on alert ID items and points at the sort key
	// of the alert in the ALERT partition.
	AlertSortKeyAttr = "alert_sk"

	// RoleAttr holds the role of a user item.
	RoleAttr = "role"

	// AlertsPartition is the partition holding every alert, ordered by
	// creation time.
	AlertsPartition = "ALERT"

	// UsersPartition is the partition holding every user.
	UsersPartition = "USER"

	alertIDPrefix  = "ALERTID#"
	alertIDSortKey = "ALERTID"

	// sortKeyTimeFormat is fixed width so that sort keys order chronologically.
	sortKeyTimeFormat = "2006-01-02T15:04:05.000000000Z"

	// maxBackoff is the maximum backoff duration for retry loops.
	maxBackoff = 2 * time.Second
)

var errNotConnected = errors.New("client is not connected")

// Client is a DynamoDB-backed implementation of the [types.DB] interface.
// It uses a single-table design: alerts live in one partition sorted by
// creation time, with a second item per alert keyed by its ID for lookups.
//
// Use [New] to create a Client, [Client.Connect] to initialize the underlying
// DynamoDB connection, and [Client.Init] to validate the table schema.
type Client struct {
	client    API
	tableName string
	awsCfg    *aws.Config
	opts      *Options
}

// New creates a new Client configured with the given AWS config, table name,
// and optional options. Call [Client.Connect] on the returned client before use.
func New(awsCfg *aws.Config, tableName string, opts ...Option) *Client {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	return &Client{
		awsCfg:    awsCfg,
		tableName: tableName,
		opts:      options,
	}
}

// Connect initializes the DynamoDB client from the AWS config provided to [New].
// It must be called before any other Client methods, and must complete before
// the Client is used concurrently.
func (c *Client) Connect() error {
	if c.tableName == "" {
		return fmt.Errorf("%w: DynamoDB table name is required", types.ErrConfiguration)
	}

	if err := c.opts.validate(); err != nil {
		return fmt.Errorf("%w: invalid DynamoDB options: %w", types.ErrConfiguration, err)
	}

	// Use injected DynamoDB API if provided (useful for testing).
	if c.opts.dynamoDBAPI != nil {
		c.client = c.opts.dynamoDBAPI
		return nil
	}

	if c.awsCfg == nil {
		return fmt.Errorf("%w: AWS config is required", types.ErrConfiguration)
	}

	c.client = dynamodb.NewFromConfig(*c.awsCfg)

	return nil
}

// Close releases the client. The AWS SDK client holds no resources that need
// explicit teardown.
func (c *Client) Close(_ context.Context) error {
	c.client = nil
	return nil
}

// Ping checks that the table can be described.
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return errNotConnected
	}

	if _, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(c.tableName)}); err != nil {
		return fmt.Errorf("failed to describe table %s: %w", c.tableName, err)
	}

	return nil
}

// Init validates the DynamoDB table schema. It checks that the table exists,
// is active, and has a string partition key (pk) and string sort key (sk).
//
// Pass skipSchemaValidation true to skip all checks and return immediately,
// which is useful when schema validation is managed separately.
func (c *Client) Init(ctx context.Context, skipSchemaValidation bool) error {
	if c.client == nil {
		return errNotConnected
	}

	if skipSchemaValidation {
		return nil
	}

	input := &dynamodb.DescribeTableInput{
		TableName: aws.String(c.tableName),
	}

	response, err := c.client.DescribeTable(ctx, input)
	if err != nil {
		var notFoundError *dynamodbtypes.ResourceNotFoundException
		if errors.As(err, &notFoundError) {
			return fmt.Errorf("table %s does not exist", c.tableName)
		}
		return fmt.Errorf("failed to describe table %s: %w", c.tableName, err)
	}

	if response.Table == nil || len(response.Table.KeySchema) < 1 {
		return fmt.Errorf("table %s has no key schema", c.tableName)
	}

	if aws.ToString(response.Table.KeySchema[0].AttributeName) != PartitionKey {
		return fmt.Errorf("table %s has partition key %s, expected %s", c.tableName, aws.ToString(response.Table.KeySchema[0].AttributeName), PartitionKey)
	}

	if len(response.Table.KeySchema) < 2 {
		return fmt.Errorf("table %s has a simple primary key, expected composite", c.tableName)
	}

	if aws.ToString(response.Table.KeySchema[1].AttributeName) != SortKey {
		return fmt.Errorf("table %s has sort key %s, expected %s", c.tableName, aws.ToString(response.Table.KeySchema[1].AttributeName), SortKey)
	}

	for _, def := range response.Table.AttributeDefinitions {
		name := aws.ToString(def.AttributeName)
		if (name == PartitionKey || name == SortKey) && def.AttributeType != dynamodbtypes.ScalarAttributeTypeS {
			return fmt.Errorf("table %s has key attribute %s of type %s, expected %s", c.tableName, name, def.AttributeType, dynamodbtypes.ScalarAttributeTypeS)
		}
	}

	if response.Table.TableStatus != dynamodbtypes.TableStatusActive {
		return fmt.Errorf("table %s is not active (status: %s)", c.tableName, response.Table.TableStatus)
	}

	return nil
}

// DropAllData deletes every item from the DynamoDB table. It scans the table
// in pages and removes each page using BatchWriteItem with exponential backoff
// for unprocessed items.
//
// This is intended for integration tests only.
func (c *Client) DropAllData(ctx context.Context) error {
	if c.client == nil {
		return errNotConnected
	}

	input := &dynamodb.ScanInput{
		TableName:            aws.String(c.tableName),
		ProjectionExpression: aws.String(PartitionKey + ", " + SortKey),
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		output, err := c.client.Scan(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to scan DynamoDB table %s: %w", c.tableName, err)
		}

		// Process items in batches of 25 (DynamoDB BatchWriteItem limit).
		for i := 0; i < len(output.Items); i += 25 {
			end := min(i+25, len(output.Items))

			requestItems := make([]dynamodbtypes.WriteRequest, 0, end-i)

			for _, item := range output.Items[i:end] {
				requestItems = append(requestItems, dynamodbtypes.WriteRequest{
					DeleteRequest: &dynamodbtypes.DeleteRequest{
						Key: map[string]dynamodbtypes.AttributeValue{
							PartitionKey: item[PartitionKey],
							SortKey:      item[SortKey],
						},
					},
				})
			}

			if err := c.batchWrite(ctx, requestItems); err != nil {
				return err
			}
		}

		if output.LastEvaluatedKey == nil {
			break
		}

		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	return nil
}

func (c *Client) batchWrite(ctx context.Context, requestItems []dynamodbtypes.WriteRequest) error {
	batchInput := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]dynamodbtypes.WriteRequest{
			c.tableName: requestItems,
		},
	}

	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= c.opts.maxRetries; attempt++ {
		batchResult, err := c.client.BatchWriteItem(ctx, batchInput)
		if err != nil {
			return fmt.Errorf("failed to batch delete items from DynamoDB table %s: %w", c.tableName, err)
		}

		if len(batchResult.UnprocessedItems) == 0 {
			return nil
		}

		if attempt == c.opts.maxRetries {
			return fmt.Errorf("%d unprocessed items after %d retries", len(batchResult.UnprocessedItems[c.tableName]), c.opts.maxRetries)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
		batchInput.RequestItems = batchResult.UnprocessedItems
	}

	return nil
}

// CreateAlert assigns a new UUID to alert and writes two items in a single
// transaction: the alert in the ALERT partition, and an ID item used by
// [Client.FindAlertByID] and [Client.DeleteAlert].
func (c *Client) CreateAlert(ctx context.Context, alert *types.Alert) error {
	if c.client == nil {
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

	sk := alertSortKey(stored.CreatedAt, stored.ID)

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []dynamodbtypes.TransactWriteItem{
			{
				Put: &dynamodbtypes.Put{
					TableName: aws.String(c.tableName),
					Item: map[string]dynamodbtypes.AttributeValue{
						PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: AlertsPartition},
						SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: sk},
						BodyAttr:     &dynamodbtypes.AttributeValueMemberS{Value: string(body)},
					},
				},
			},
			{
				Put: &dynamodbtypes.Put{
					TableName: aws.String(c.tableName),
					Item: map[string]dynamodbtypes.AttributeValue{
						PartitionKey:     &dynamodbtypes.AttributeValueMemberS{Value: alertIDPrefix + stored.ID},
						SortKey:          &dynamodbtypes.AttributeValueMemberS{Value: alertIDSortKey},
						AlertSortKeyAttr: &dynamodbtypes.AttributeValueMemberS{Value: sk},
						BodyAttr:         &dynamodbtypes.AttributeValueMemberS{Value: string(body)},
					},
					ConditionExpression: aws.String(fmt.Sprintf("attribute_not_exists(%s)", PartitionKey)),
				},
			},
		},
	}

	if _, err := c.client.TransactWriteItems(ctx, input); err != nil {
		return fmt.Errorf("failed to write alert to DynamoDB table %s: %w", c.tableName, err)
	}

	alert.ID = stored.ID

	return nil
}

// FindAlerts returns up to limit alerts, newest first, after skipping the
// first skip alerts. DynamoDB has no offset, so skipped items are read and
// discarded.
func (c *Client) FindAlerts(ctx context.Context, skip, limit int) ([]*types.Alert, error) {
	if c.client == nil {
		return nil, errNotConnected
	}

	if skip < 0 {
		return nil, errors.New("skip cannot be negative")
	}

	if limit < 1 {
		return nil, errors.New("limit must be greater than zero")
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String(PartitionKey + " = :pk"),
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":pk": &dynamodbtypes.AttributeValueMemberS{Value: AlertsPartition},
		},
		ScanIndexForward:     aws.Bool(false),
		ProjectionExpression: aws.String(BodyAttr),
	}

	pageSize := int(c.opts.queryPageSize)
	alerts := make([]*types.Alert, 0, min(limit, pageSize))
	seen := 0

	for len(alerts) < limit {
		input.Limit = aws.Int32(int32(queryLimit(skip-seen, limit-len(alerts), pageSize)))

		output, err := c.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query alerts from DynamoDB table %s: %w", c.tableName, err)
		}

		for _, item := range output.Items {
			seen++

			if seen <= skip {
				continue
			}

			alert, err := decodeAlert(item)
			if err != nil {
				return nil, err
			}

			alerts = append(alerts, alert)

			if len(alerts) == limit {
				break
			}
		}

		if output.LastEvaluatedKey == nil {
			break
		}

		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	return alerts, nil
}

// CountAlerts counts the items in the ALERT partition.
func (c *Client) CountAlerts(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, errNotConnected
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String(PartitionKey + " = :pk"),
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":pk": &dynamodbtypes.AttributeValueMemberS{Value: AlertsPartition},
		},
		Select: dynamodbtypes.SelectCount,
	}

	count, err := c.count(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts in DynamoDB table %s: %w", c.tableName, err)
	}

	return count, nil
}

func (c *Client) FindAlertByID(ctx context.Context, id string) (*types.Alert, error) {
	if c.client == nil {
		return nil, errNotConnected
	}

	item, err := c.getAlertIDItem(ctx, id)
	if err != nil {
		return nil, err
	}

	return decodeAlert(item)
}

// DeleteAlert removes both items belonging to the alert in one transaction.
func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	if c.client == nil {
		return errNotConnected
	}

	item, err := c.getAlertIDItem(ctx, id)
	if err != nil {
		return err
	}

	sk, ok := item[AlertSortKeyAttr].(*dynamodbtypes.AttributeValueMemberS)
	if !ok {
		return fmt.Errorf("alert %s has no %s attribute", id, AlertSortKeyAttr)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []dynamodbtypes.TransactWriteItem{
			{
				Delete: &dynamodbtypes.Delete{
					TableName: aws.String(c.tableName),
					Key: map[string]dynamodbtypes.AttributeValue{
						PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: alertIDPrefix + id},
						SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: alertIDSortKey},
					},
					ConditionExpression: aws.String(fmt.Sprintf("attribute_exists(%s)", PartitionKey)),
				},
			},
			{
				Delete: &dynamodbtypes.Delete{
					TableName: aws.String(c.tableName),
					Key: map[string]dynamodbtypes.AttributeValue{
						PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: AlertsPartition},
						SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: sk.Value},
					},
				},
			},
		},
	}

	if _, err := c.client.TransactWriteItems(ctx, input); err != nil {
		// The ID item was removed by a concurrent delete.
		var canceled *dynamodbtypes.TransactionCanceledException
		if errors.As(err, &canceled) && conditionCheckFailed(canceled, 0) {
			return types.ErrAlertNotFound
		}

		return fmt.Errorf("failed to delete alert from DynamoDB table %s: %w", c.tableName, err)
	}

	return nil
}

// CountUsersByRole counts items in the USER partition whose role is one of
// roles.
func (c *Client) CountUsersByRole(ctx context.Context, roles ...types.Role) (int64, error) {
	if c.client == nil {
		return 0, errNotConnected
	}

	if len(roles) == 0 {
		return 0, errors.New("at least one role is required")
	}

	values := map[string]dynamodbtypes.AttributeValue{
		":pk": &dynamodbtypes.AttributeValueMemberS{Value: UsersPartition},
	}

	placeholders := make([]string, len(roles))

	for i, role := range roles {
		placeholders[i] = fmt.Sprintf(":r%d", i)
		values[placeholders[i]] = &dynamodbtypes.AttributeValueMemberS{Value: string(role)}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(c.tableName),
		KeyConditionExpression:    aws.String(PartitionKey + " = :pk"),
		FilterExpression:          aws.String(fmt.Sprintf("#role IN (%s)", strings.Join(placeholders, ", "))),
		ExpressionAttributeNames:  map[string]string{"#role": RoleAttr},
		ExpressionAttributeValues: values,
		Select:                    dynamodbtypes.SelectCount,
	}

	count, err := c.count(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role in DynamoDB table %s: %w", c.tableName, err)
	}

	return count, nil
}

func (c *Client) count(ctx context.Context, input *dynamodb.QueryInput) (int64, error) {
	var total int64

	input.Limit = aws.Int32(c.opts.queryPageSize)

	for {
		output, err := c.client.Query(ctx, input)
		if err != nil {
			return 0, err
		}

		total += int64(output.Count)

		if output.LastEvaluatedKey == nil {
			return total, nil
		}

		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
}

func (c *Client) getAlertIDItem(ctx context.Context, id string) (map[string]dynamodbtypes.AttributeValue, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, types.ErrAlertNotFound
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: alertIDPrefix + id},
			SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: alertIDSortKey},
		},
		ConsistentRead: aws.Bool(true),
	}

	output, err := c.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert from DynamoDB table %s: %w", c.tableName, err)
	}

	if len(output.Item) == 0 {
		return nil, types.ErrAlertNotFound
	}

	return output.Item, nil
}

// conditionCheckFailed reports whether the transaction was cancelled because
// the condition on item i failed. Conflicts and throttling report other codes.
func conditionCheckFailed(canceled *dynamodbtypes.TransactionCanceledException, i int) bool {
	if i >= len(canceled.CancellationReasons) {
		return false
	}

	return aws.ToString(canceled.CancellationReasons[i].Code) == "ConditionalCheckFailed"
}

// queryLimit returns how many items the next Query should read when toSkip
// items still have to be discarded and want items returned, capped at
// pageSize. toSkip+want is never computed directly so it cannot overflow.
func queryLimit(toSkip, want, pageSize int) int {
	toSkip = max(toSkip, 0)

	if toSkip >= pageSize || want >= pageSize-toSkip {
		return pageSize
	}

	return toSkip + want
}

func alertSortKey(createdAt time.Time, id string) string {
	return createdAt.UTC().Format(sortKeyTimeFormat) + "#" + id
}

func decodeAlert(item map[string]dynamodbtypes.AttributeValue) (*types.Alert, error) {
	body, ok := item[BodyAttr].(*dynamodbtypes.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("item has no %s attribute", BodyAttr)
	}

	alert := &types.Alert{}

	if err := json.Unmarshal([]byte(body.Value), alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
	}

	return alert, nil
}
