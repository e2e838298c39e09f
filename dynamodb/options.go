package dynamodb

import "errors"

// Option is a functional option for configuring a [Client].
type Option func(*Options)

// Options holds the configuration for a [Client]. Use [Option] functions
// (such as [WithQueryPageSize]) to customise the defaults.
type Options struct {
	queryPageSize int32
	maxRetries    int
	dynamoDBAPI   API
}

func newOptions() *Options {
	return &Options{
		queryPageSize: 100,
		maxRetries:    5,
	}
}

func (o *Options) validate() error {
	if o.queryPageSize < 1 {
		return errors.New("query page size must be greater than zero")
	}

	if o.maxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}

	return nil
}

// WithQueryPageSize sets the maximum number of items read per Query call when
// paging through alerts and users. The default is 100.
func WithQueryPageSize(n int32) Option {
	return func(o *Options) {
		o.queryPageSize = n
	}
}

// WithMaxRetries sets how many times unprocessed batch deletes are retried by
// [Client.DropAllData]. The default is 5.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		o.maxRetries = n
	}
}

// WithAPI sets a custom [API] implementation. This is useful when a custom
// DynamoDB configuration is required, or for injecting mocks in tests.
func WithAPI(api API) Option {
	return func(o *Options) {
		o.dynamoDBAPI = api
	}
}
