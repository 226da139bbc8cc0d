package redis

// Defines Mocks for the module-command client. The in-process test server
// used elsewhere does not implement the filter, document or search modules,
// so those resources are tested against this mock.

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/stretchr/testify/mock"
)

// mockClient is a mock module-command client
type mockClient struct {
	mock.Mock
}

func (mc *mockClient) Do(ctx context.Context, args ...any) (reply *redis.Cmd) {

	arguments := mc.Called(args...)
	return arguments.Get(0).(*redis.Cmd)
}

func (mc *mockClient) Close() error {
	arguments := mc.Called()
	return arguments.Error(0)
}
