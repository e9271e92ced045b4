package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// userRepository 用户仓储实现（MySQL）
// 设计说明：
// 1. 同一个结构体实现user.Repository和user.CreditLedger两个接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误（如邮箱重复），转换为业务错误
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
// 注意：返回的是domain层的接口类型，不是具体类型（依赖倒置）
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// NewCreditLedger 创建积分账本
func NewCreditLedger(db *gorm.DB) user.CreditLedger {
	return &userRepository{db: db}
}

// Create 创建用户
// 学习要点：
// 1. 邮箱唯一性由数据库UNIQUE索引保证（而非应用层SELECT再INSERT）
// 2. 捕获MySQL的Duplicate Entry错误，转换为业务错误ErrEmailDuplicate
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	if u.Credits < 0 {
		return user.ErrInvalidAmount
	}
	model := toUserModel(u)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return user.ErrEmailDuplicate
		}
		return apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var model UserModel
	if err := dbFrom(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return toUserEntity(&model), nil
}

// FindByEmail 根据邮箱查找用户（邮箱统一按小写存储）
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserModel
	err := dbFrom(ctx, r.db).Where("email = ?", strings.ToLower(email)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return toUserEntity(&model), nil
}

// Update 只更新资料、角色和启用状态，积分走CreditLedger
func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	now := time.Now()
	result := dbFrom(ctx, r.db).Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"role":       int(u.Role),
		"is_active":  u.IsActive,
		"updated_at": now,
	})
	if result.Error != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	u.UpdatedAt = now
	return nil
}

// List 按条件查询用户，按ID升序
func (r *userRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	query := dbFrom(ctx, r.db).Model(&UserModel{})
	if filter.Role != 0 {
		query = query.Where("role = ?", int(filter.Role))
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	var models []UserModel
	if err := query.Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return toUserEntities(models), nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := dbFrom(ctx, r.db).Model(&UserModel{}).Count(&n).Error; err != nil {
		return 0, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return n, nil
}

func (r *userRepository) Recent(ctx context.Context, n int) ([]*user.User, error) {
	var models []UserModel
	err := dbFrom(ctx, r.db).Order("created_at DESC, id DESC").Limit(n).Find(&models).Error
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return toUserEntities(models), nil
}

// =========================================
// CreditLedger
// =========================================
// 教学要点：每个操作都是一条UPDATE，读-改-写由数据库行锁保证原子性，
// 不会出现"先SELECT余额再UPDATE"之间被其他请求插入的丢失更新

func (r *userRepository) Balance(ctx context.Context, userID uint) (int64, error) {
	var model UserModel
	err := dbFrom(ctx, r.db).Select("id", "credits").First(&model, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, user.ErrUserNotFound
		}
		return 0, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return model.Credits, nil
}

// Credit UPDATE users SET credits = credits + ? WHERE id = ?
func (r *userRepository) Credit(ctx context.Context, userID uint, amount int64) error {
	if amount <= 0 {
		return user.ErrInvalidAmount
	}
	result := dbFrom(ctx, r.db).Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"credits":    gorm.Expr("credits + ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Debit UPDATE users SET credits = credits - ? WHERE id = ? AND credits >= ?
func (r *userRepository) Debit(ctx context.Context, userID uint, amount int64) error {
	if amount <= 0 {
		return user.ErrInvalidAmount
	}
	result := dbFrom(ctx, r.db).Model(&UserModel{}).
		Where("id = ? AND credits >= ?", userID, amount).
		Updates(map[string]interface{}{
			"credits":    gorm.Expr("credits - ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}
	if result.RowsAffected == 0 {
		// 用户不存在或余额不足
		if _, err := r.Balance(ctx, userID); err != nil {
			return err
		}
		return user.ErrInsufficientCredits
	}
	return nil
}

func (r *userRepository) SetBalance(ctx context.Context, userID uint, amount int64) error {
	if amount < 0 {
		return user.ErrInvalidAmount
	}
	result := dbFrom(ctx, r.db).Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"credits":    amount,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// =========================================
// 辅助函数：模型转换
// =========================================

func toUserModel(u *user.User) *UserModel {
	return &UserModel{
		ID:        u.ID,
		Email:     strings.ToLower(u.Email),
		Password:  u.Password,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      int(u.Role),
		Credits:   u.Credits,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// toUserEntity GORM模型 → 领域实体
// 说明：这是Repository的重要职责之一，隔离infrastructure层与domain层
func toUserEntity(model *UserModel) *user.User {
	return &user.User{
		ID:        model.ID,
		Email:     model.Email,
		Password:  model.Password,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		Role:      user.Role(model.Role),
		Credits:   model.Credits,
		IsActive:  model.IsActive,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toUserEntities(models []UserModel) []*user.User {
	out := make([]*user.User, len(models))
	for i := range models {
		out[i] = toUserEntity(&models[i])
	}
	return out
}
