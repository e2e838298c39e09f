//go:build integration

package dynamodb_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/civicpulse/mayoralert/dynamodb"
	"github.com/civicpulse/mayoralert/types"
	"github.com/civicpulse/mayoralert/types/dbtests"
	"github.com/google/uuid"
)

var client *dynamodb.Client

func TestMain(m *testing.M) {
	ctx := context.Background()

	region := os.Getenv("AWS_REGION")
	tableName := os.Getenv("DYNAMODB_TABLE_NAME")

	if region == "" || tableName == "" {
		fmt.Fprintln(os.Stderr, "AWS_REGION and DYNAMODB_TABLE_NAME environment variables must be set for integration tests")
		os.Exit(1)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	c := dynamodb.New(&awsCfg, tableName)

	// Verify that the client implements the types.DB interface
	var _ types.DB = c

	err = c.Connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Ensure the database is clean before running tests
	err = c.DropAllData(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to delete all items: %w", err))
		os.Exit(1)
	}

	err = c.Init(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client = c

	code := m.Run()

	_ = client.DropAllData(ctx)

	os.Exit(code)
}

func TestAlertLifecycleIntegration(t *testing.T) {
	dbtests.TestAlertLifecycle(t, client)
}

func TestUnknownAlertIDIntegration(t *testing.T) {
	dbtests.TestUnknownAlertID(t, client)
}

func TestCountUsersByRoleIntegration(t *testing.T) {
	dbtests.TestCountUsersByRole(t, client, func(ctx context.Context, roles ...types.Role) error {
		for _, role := range roles {
			if err := client.PutUser(ctx, uuid.NewString(), string(role)); err != nil {
				return err
			}
		}

		return nil
	})
}
