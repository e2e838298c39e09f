// Package mongodb provides the MongoDB-backed implementation of the
// types.DB interface. It is the default store for mayor alerts.
//
// # Usage
//
// Create a client using [New] with functional options, call [Client.Connect]
// to establish the connection pool, and then [Client.Init] to create the
// indexes the alert queries rely on:
//
//	client := mongodb.New(logger,
//	    mongodb.WithURI(os.Getenv("MONGODB_URI")),
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
// # Connection Pool
//
// A single pooled connection is opened per process. The defaults keep
// between 5 and 10 connections, recycle connections idle for more than
// 30 seconds and apply a 30 second socket timeout. Reads are routed to the
// nearest replica set member. See [WithPoolMaxConnections],
// [WithPoolMinConnections], [WithPoolMaxConnectionIdleTime],
// [WithSocketTimeout] and [WithReadPreference].
//
// [Client.Connect] makes exactly one attempt and pings the deployment before
// returning, so a client that connected successfully is usable immediately
// and a client that failed never queues operations. Failures wrap
// types.ErrConfiguration or types.ErrConnection; deciding whether to exit is
// left to the caller.
//
// # Collections
//
// Alerts are stored in the "mayoralerts" collection and users are read from
// the "users" collection. Both names are configurable with
// [WithAlertsCollection] and [WithUsersCollection].
package mongodb
