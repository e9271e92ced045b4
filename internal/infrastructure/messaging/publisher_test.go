package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	keys []string
}

func (f *fakeSender) Publish(ctx context.Context, routingKey string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, routingKey)
	return f.err
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func testEvent() order.Event {
	return order.Event{Type: order.EventCreated, OrderID: 1, UserID: 2, Status: "Pending", Total: 1599}
}

func TestBrokerPublisher_RoutesByEventType(t *testing.T) {
	sender := &fakeSender{}
	p := NewBrokerPublisher(sender, config.MQConfig{Exchange: "t1", BreakerFails: 2, BreakerOpen: time.Minute})

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	assert.Equal(t, []string{order.EventCreated}, sender.keys)
}

func TestBrokerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection reset")}
	p := NewBrokerPublisher(sender, config.MQConfig{Exchange: "t2", BreakerFails: 2, BreakerOpen: time.Minute})
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, testEvent()))
	assert.Error(t, p.Publish(ctx, testEvent()))
	assert.Equal(t, gobreaker.StateOpen, p.State())

	// 熔断期间不再调用Broker
	err := p.Publish(ctx, testEvent())
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Equal(t, 2, sender.calls())
}

func TestBrokerPublisher_HalfOpenRecovers(t *testing.T) {
	sender := &fakeSender{err: errors.New("down")}
	p := NewBrokerPublisher(sender, config.MQConfig{Exchange: "t3", BreakerFails: 1, BreakerOpen: 20 * time.Millisecond})
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, testEvent()))
	assert.Equal(t, gobreaker.StateOpen, p.State())

	time.Sleep(40 * time.Millisecond)
	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()

	require.NoError(t, p.Publish(ctx, testEvent()))
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, LogPublisher{}.Publish(context.Background(), testEvent()))
}
