// Package dynamodb provides a DynamoDB-backed implementation of the
// [github.com/civicpulse/mayoralert/types.DB] interface.
//
// # Overview
//
// The package uses a single-table DynamoDB design keyed by a partition key
// ("pk") and a sort key ("sk"):
//
//   - Alerts:    pk=ALERT, sk=<created_at>#<id>
//   - Alert IDs: pk=ALERTID#<id>, sk=ALERTID
//   - Users:     pk=USER, sk=USER#<id>, role=<role>
//
// The creation timestamp in the alert sort key has a fixed width, so a
// descending Query over the ALERT partition returns the newest alerts first.
// The alert ID item carries a copy of the alert body and the sort key of the
// alert item, which lets [Client.FindAlertByID] and [Client.DeleteAlert] work
// without a secondary index. Both items are written and deleted in a single
// transaction.
//
// # Getting Started
//
// Create a [Client] with [New], supplying an AWS config, the DynamoDB table
// name, and any [Option] values you need:
//
//	client := dynamodb.New(&awsCfg, "mayoralert", dynamodb.WithQueryPageSize(200))
//
//	if err := client.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//
// By default, [Client.Connect] creates an AWS SDK v2 DynamoDB client from the
// supplied [aws.Config]. Supply [WithAPI] to inject a custom or mock
// implementation.
//
// # Concurrency
//
// [Client] is safe for concurrent use by multiple goroutines once
// [Client.Connect] has returned.
package dynamodb
