// Package librarian 馆员申请
//
// 普通用户提交申请(附理由),管理员审批:
// 通过后用户角色升为Librarian,拒绝只标记为已处理。每个用户同时只能有一个待处理申请。
package librarian

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	// ErrRequestNotFound 申请不存在
	ErrRequestNotFound = apperrors.New(apperrors.ErrCodeRequestNotFound, "申请不存在")

	// ErrPendingRequest 已有待处理的申请
	ErrPendingRequest = apperrors.New(apperrors.ErrCodePendingRequest, "您已有待处理的申请")

	// ErrAlreadyProcessed 申请已处理
	ErrAlreadyProcessed = apperrors.New(apperrors.ErrCodeRequestProcessed, "该申请已处理")

	// ErrInvalidReason 理由必填
	ErrInvalidReason = apperrors.New(apperrors.ErrCodeInvalidParams, "申请理由不能为空且不超过1000个字符")
)

const maxReason = 1000

// Request 馆员申请
type Request struct {
	ID          uint
	UserID      uint
	Reason      string
	IsProcessed bool
	Approved    bool
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewRequest 创建申请
func NewRequest(userID uint, reason string) (*Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || len([]rune(reason)) > maxReason {
		return nil, ErrInvalidReason
	}
	return &Request{UserID: userID, Reason: reason, CreatedAt: time.Now()}, nil
}

// Process 审批
func (r *Request) Process(approved bool) error {
	if r.IsProcessed {
		return ErrAlreadyProcessed
	}
	now := time.Now()
	r.IsProcessed = true
	r.Approved = approved
	r.ProcessedAt = &now
	return nil
}

// Repository 申请存储
type Repository interface {
	// Create 创建申请,该用户已有待处理申请时返回ErrPendingRequest
	Create(ctx context.Context, r *Request) error

	// FindByID 不存在返回ErrRequestNotFound
	FindByID(ctx context.Context, id uint) (*Request, error)

	// Update 保存审批结果
	Update(ctx context.Context, r *Request) error

	// ListPending 待处理的申请,按提交时间升序
	ListPending(ctx context.Context) ([]*Request, error)

	// CountPending 待处理申请数
	CountPending(ctx context.Context) (int64, error)
}
