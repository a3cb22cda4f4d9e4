package feed_test

import (
	"context"
	"sync/atomic"

	"civicledger/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	officerID   string
	RecvChannel chan models.StatusEvent
	closed      atomic.Bool
}

func newMockClient(officerID string, buffer int) *MockClient {
	return &MockClient{
		officerID:   officerID,
		RecvChannel: make(chan models.StatusEvent, buffer),
	}
}

func (c *MockClient) OfficerID() string                      { return c.officerID }
func (c *MockClient) SendChannel() chan<- models.StatusEvent { return c.RecvChannel }
func (c *MockClient) Run()                                   {}
func (c *MockClient) Close()                                 { c.closed.Store(true) }

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return m.Called(ctx, channel, payload).Error(0)
}

func (m *MockBroker) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return m.Called(ctx, channel).Get(0).(*redis.PubSub)
}
