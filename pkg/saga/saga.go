// Package saga 实现进程内的Saga事务编排
//
// Saga模式核心思想：
// 1. 将一次多资源写入拆分为若干本地步骤
// 2. 每个步骤有对应的补偿操作
// 3. 某步失败时，按逆序执行已完成步骤的补偿操作
//
// 在本项目中，结算（扣库存、建订单、扣积分）与取消（改状态、退积分、回库存）
// 都编排为Saga，保证"要么全部生效，要么全部回滚"。
//
// 教学要点：
// - 补偿操作必须只依赖自己Action的输入（闭包捕获），不能依赖后续步骤
// - 补偿使用脱离超时的Context，避免"因为超时而补偿，补偿又因为超时失败"
// - 补偿失败无法自动修复，必须记录日志并计入指标，交由人工处理
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/metrics"
)

// ErrTimeout Saga整体超时
var ErrTimeout = errors.New("saga超时")

// Step 表示Saga中的一个步骤
type Step struct {
	Name       string                          // 步骤名称（用于日志和调试）
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作，可为nil
}

// Saga 表示一个Saga事务
// 一个Saga实例只能Execute一次
type Saga struct {
	name     string
	steps    []Step        // 所有步骤
	executed []Step        // 已执行的步骤（用于补偿）
	timeout  time.Duration // 整体超时时间，0表示不限制
}

// CompensationError 正向步骤失败且至少一个补偿也失败
// Unwrap返回正向步骤的原始错误，调用方仍然可以用errors.Is判断业务原因
type CompensationError struct {
	Step   string
	Cause  error
	Failed []string // 补偿失败的步骤名
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("步骤[%s]失败且补偿未完成%v: %v", e.Step, e.Failed, e.Cause)
}

func (e *CompensationError) Unwrap() error {
	return e.Cause
}

// NewSaga 创建一个新的Saga事务
//
//	s := saga.NewSaga("settle", 5*time.Second)
//	s.AddStep("扣减库存", deductStock, restoreStock)
//	s.AddStep("创建订单", createOrder, removeOrder)
//	err := s.Execute(ctx)
func NewSaga(name string, timeout time.Duration) *Saga {
	return &Saga{
		name:    name,
		steps:   make([]Step, 0, 4),
		timeout: timeout,
	}
}

// AddStep 添加一个Saga步骤
// 步骤按添加顺序执行，按逆序补偿
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Len 步骤数量
func (s *Saga) Len() int {
	return len(s.steps)
}

// Execute 执行Saga事务
//
// 执行流程：
// 1. 按顺序执行每个步骤的Action
// 2. 如果某步失败或整体超时，逆序执行已完成步骤的Compensate
// 3. 返回的错误包装了失败步骤的原始错误（支持errors.Is/As）
func (s *Saga) Execute(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.RecordSaga(s.name, err, time.Since(start)) }()

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return s.rollback(ctx, step.Name, fmt.Errorf("%w: %w", ErrTimeout, ctxErr))
		}

		if step.Action != nil {
			if actErr := step.Action(runCtx); actErr != nil {
				return s.rollback(ctx, step.Name, fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, actErr))
			}
		}

		s.executed = append(s.executed, step)
	}

	return nil
}

// rollback 逆序补偿已完成的步骤
// 即使某个Compensate失败，也继续执行剩余补偿（尽最大努力）
func (s *Saga) rollback(ctx context.Context, failedStep string, cause error) error {
	// 补偿不受原超时约束，但保留Context中的日志字段
	compCtx := context.WithoutCancel(ctx)
	log := logger.Ctx(ctx)

	var failed []string
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}

		compErr := step.Compensate(compCtx)
		metrics.RecordCompensation(compErr)
		if compErr != nil {
			failed = append(failed, step.Name)
			log.Error().
				Err(compErr).
				Str("saga", s.name).
				Str("step", step.Name).
				Msg("补偿失败，需人工介入")
		}
	}
	s.executed = nil

	if len(failed) > 0 {
		return &CompensationError{Step: failedStep, Cause: cause, Failed: failed}
	}

	log.Debug().Str("saga", s.name).Str("step", failedStep).Err(cause).Msg("saga已回滚")
	return cause
}
