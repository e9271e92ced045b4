// Package metrics 提供基于Prometheus的指标收集
//
// # 指标分组
//
//   - HTTP：请求总数、耗时、处理中请求数（middleware.Metrics写入）
//   - 结算：结算结果计数、结算耗时、取消次数、状态变更次数（checkout.Engine写入）
//   - Saga：执行结果、补偿次数（saga.Execute写入）
//   - 熔断器/消息：订单事件发布结果（messaging写入）
//
// # 命名规范
//
// 1. Counter以`_total`结尾
// 2. Histogram以单位结尾（`_seconds`）
// 3. 标签只用有限取值的维度（result、method、status），不要用user_id这类高基数字段
//
// # 使用示例
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	start := time.Now()
//	err := doSettle(ctx)
//	metrics.RecordSettlement(metrics.Outcome(err), time.Since(start))
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	// once 保证指标只注册一次（重复注册会panic）
	once sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板，不是原始URL）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 结算业务指标

	// SettlementsTotal 结算次数
	// 标签：result（success/validation/conflict/not_found/unauthorized/internal）
	SettlementsTotal *prometheus.CounterVec

	// SettlementDuration 结算耗时（含加锁等待）
	SettlementDuration prometheus.Histogram

	// SettlementsInProgress 正在进行的结算数
	SettlementsInProgress prometheus.Gauge

	// CancellationsTotal 订单取消次数
	// 标签：result（cancelled/noop/rejected/failed）
	CancellationsTotal *prometheus.CounterVec

	// StatusChangesTotal 订单状态变更次数
	// 标签：status（变更后的状态）
	StatusChangesTotal *prometheus.CounterVec

	// RefundedCreditsTotal 取消订单退回的积分总额（分）
	RefundedCreditsTotal prometheus.Counter

	// Saga指标

	// SagaExecutionsTotal Saga执行总数
	// 标签：name（saga名称）、result（success/failure）
	SagaExecutionsTotal *prometheus.CounterVec

	// SagaExecutionDuration Saga执行耗时
	SagaExecutionDuration prometheus.Histogram

	// SagaCompensationsTotal 补偿步骤执行次数
	// 标签：result（success/failure）
	SagaCompensationsTotal *prometheus.CounterVec

	// 熔断器与消息指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=HALF_OPEN, 2=OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// MessagesPublishedTotal 消息发布次数
	// 标签：routing_key、result（success/failure/rejected）
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 注册所有Prometheus指标
// 可以重复调用，只有第一次生效；各Record函数内部也会调用，测试中无需手动初始化
func InitMetrics() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_settlements_total",
			Help: "购物车结算次数",
		},
		[]string{"result"},
	)

	SettlementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkout_settlement_duration_seconds",
			Help:    "购物车结算耗时（秒）",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	SettlementsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_settlements_in_progress",
			Help: "正在进行的结算数",
		},
	)

	CancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_cancellations_total",
			Help: "订单取消次数",
		},
		[]string{"result"},
	)

	StatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_changes_total",
			Help: "订单状态变更次数",
		},
		[]string{"status"},
	)

	RefundedCreditsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_refunded_credits_cents_total",
			Help: "取消订单退回的积分（分）",
		},
	)

	SagaExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_executions_total",
			Help: "Saga执行总数",
		},
		[]string{"name", "result"},
	)

	SagaExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saga_execution_duration_seconds",
			Help:    "Saga执行耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	SagaCompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_compensations_total",
			Help: "Saga补偿步骤执行次数",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=HALF_OPEN, 2=OPEN）",
		},
		[]string{"name"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布次数",
		},
		[]string{"routing_key", "result"},
	)
}

// Outcome 将业务错误归类为指标标签
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return apperrors.KindOf(err).String()
}

// RecordHTTPRequest 记录一次HTTP请求
func RecordHTTPRequest(method, path, status string, d time.Duration) {
	InitMetrics()
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// TrackSettlement 结算开始时调用，返回的函数在结束时调用
//
//	done := metrics.TrackSettlement()
//	defer func() { done(err) }()
func TrackSettlement() func(err error) {
	InitMetrics()
	start := time.Now()
	SettlementsInProgress.Inc()
	return func(err error) {
		SettlementsInProgress.Dec()
		SettlementsTotal.WithLabelValues(Outcome(err)).Inc()
		SettlementDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordCancellation 记录订单取消结果
func RecordCancellation(result string, refunded int64) {
	InitMetrics()
	CancellationsTotal.WithLabelValues(result).Inc()
	if refunded > 0 {
		RefundedCreditsTotal.Add(float64(refunded))
	}
}

// RecordStatusChange 记录订单状态变更
func RecordStatusChange(status string) {
	InitMetrics()
	StatusChangesTotal.WithLabelValues(status).Inc()
}

// RecordSaga 记录Saga执行结果
func RecordSaga(name string, err error, d time.Duration) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	SagaExecutionsTotal.WithLabelValues(name, result).Inc()
	SagaExecutionDuration.Observe(d.Seconds())
}

// RecordCompensation 记录单个补偿步骤
func RecordCompensation(err error) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	SagaCompensationsTotal.WithLabelValues(result).Inc()
}

// SetBreakerState 更新熔断器状态
func SetBreakerState(name string, state float64) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordPublish 记录消息发布结果
func RecordPublish(routingKey, result string) {
	InitMetrics()
	MessagesPublishedTotal.WithLabelValues(routingKey, result).Inc()
}
