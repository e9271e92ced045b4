package user

import (
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// 用户领域错误定义
var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.ErrUserNotFound

	// ErrEmailDuplicate 邮箱已被注册
	ErrEmailDuplicate = apperrors.ErrEmailDuplicate

	// ErrAccountDisabled 账号已停用
	ErrAccountDisabled = apperrors.ErrAccountDisabled

	// ErrInvalidRole 角色不合法
	ErrInvalidRole = apperrors.New(apperrors.ErrCodeInvalidParams, "角色不合法")

	// ErrInsufficientCredits 积分不足（校验类错误，充值后可重试）
	ErrInsufficientCredits = apperrors.New(apperrors.ErrCodeInsufficientCredits, "积分余额不足")

	// ErrInvalidAmount 积分变动金额必须大于0
	ErrInvalidAmount = apperrors.New(apperrors.ErrCodeInvalidAmount, "积分金额必须大于0")
)
