package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ExportValidate = func(opts ...Option) error {
		o := newOptions()
		for _, opt := range opts {
			opt(o)
		}

		return o.validate()
	}
)

// PutUser writes a user item. Used by integration tests to seed roles.
func (c *Client) PutUser(ctx context.Context, id, role string) error {
	_, err := c.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []dynamodbtypes.TransactWriteItem{
			{
				Put: &dynamodbtypes.Put{
					TableName: aws.String(c.tableName),
					Item: map[string]dynamodbtypes.AttributeValue{
						PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: UsersPartition},
						SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: "USER#" + id},
						RoleAttr:     &dynamodbtypes.AttributeValueMemberS{Value: role},
					},
				},
			},
		},
	})

	return err
}
