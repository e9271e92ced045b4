// Package messaging 订单领域事件的发布适配
//
// 结算引擎只依赖order.EventPublisher接口；这里提供两种实现：
//   - BrokerPublisher：经熔断器发布到RabbitMQ
//   - LogPublisher：mq.enabled=false时只写日志，本地开发无需Broker
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/metrics"
)

// ErrBrokerUnavailable 熔断器打开，发布被直接拒绝
var ErrBrokerUnavailable = apperrors.New(apperrors.ErrCodeMQError, "消息服务暂不可用")

// Sender 底层消息发送，*mq.Publisher实现了这个接口
type Sender interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// BrokerPublisher 带熔断的事件发布者
// 教学要点:
// 1. Broker故障时每次发布都会等到超时，熔断后直接失败，不拖慢结算
// 2. 连续失败BreakerFails次进入OPEN，BreakerOpen之后进入HALF_OPEN放一个请求探测
// 3. 状态变化写入circuit_breaker_state指标，便于告警
type BrokerPublisher struct {
	sender  Sender
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewBrokerPublisher 创建带熔断的发布者
func NewBrokerPublisher(sender Sender, cfg config.MQConfig) *BrokerPublisher {
	fails := cfg.BreakerFails
	if fails == 0 {
		fails = 5
	}
	name := "mq:" + cfg.Exchange

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= fails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, breakerGauge(to))
			logger.Ctx(context.Background()).Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("熔断器状态变化")
		},
	})
	metrics.SetBreakerState(name, breakerGauge(gobreaker.StateClosed))

	return &BrokerPublisher{sender: sender, cb: cb, timeout: 3 * time.Second}
}

var _ order.EventPublisher = (*BrokerPublisher)(nil)

// Publish 以事件类型作为routing key发布
func (p *BrokerPublisher) Publish(ctx context.Context, e order.Event) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return nil, p.sender.Publish(pubCtx, e.Type, e)
	})

	switch {
	case err == nil:
		metrics.RecordPublish(e.Type, "success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordPublish(e.Type, "rejected")
		return apperrors.WithCause(ErrBrokerUnavailable, err)
	default:
		metrics.RecordPublish(e.Type, "failure")
		return apperrors.Wrap(err, "发布订单事件失败")
	}
}

// State 当前熔断器状态
func (p *BrokerPublisher) State() gobreaker.State {
	return p.cb.State()
}

// breakerGauge 与circuit_breaker_state指标约定一致：0=CLOSED, 1=HALF_OPEN, 2=OPEN
func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// LogPublisher 只记录日志的发布者
type LogPublisher struct{}

var _ order.EventPublisher = LogPublisher{}

func (LogPublisher) Publish(ctx context.Context, e order.Event) error {
	logger.Ctx(ctx).Info().
		Str("event", e.Type).
		Uint("order_id", e.OrderID).
		Str("order_no", e.OrderNo).
		Uint("user_id", e.UserID).
		Str("status", e.Status).
		Int64("total", e.Total).
		Msg("订单事件")
	return nil
}
