package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookshop/internal/domain/librarian"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// librarianRequestRepository 馆员申请仓储实现(MySQL)
type librarianRequestRepository struct {
	db *gorm.DB
	tx *TxManager
}

// NewLibrarianRequestRepository 创建馆员申请仓储
func NewLibrarianRequestRepository(db *gorm.DB, tx *TxManager) librarian.Repository {
	return &librarianRequestRepository{db: db, tx: tx}
}

// Create 检查待处理申请和插入放在同一个事务里
// 教学要点:先锁住该用户在users表中的行(SELECT ... FOR UPDATE),
// 同一用户的并发提交会在这里排队,不会出现两个待处理申请
func (r *librarianRequestRepository) Create(ctx context.Context, req *librarian.Request) error {
	return r.tx.Transaction(ctx, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)

		var owner UserModel
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&owner, req.UserID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.WithCause(apperrors.ErrDatabaseError, err)
		}

		var pending int64
		err = db.Model(&LibrarianRequestModel{}).
			Where("user_id = ? AND is_processed = ?", req.UserID, false).
			Count(&pending).Error
		if err != nil {
			return apperrors.WithCause(apperrors.ErrDatabaseError, err)
		}
		if pending > 0 {
			return librarian.ErrPendingRequest
		}

		model := toRequestModel(req)
		if err := db.Create(model).Error; err != nil {
			return apperrors.WithCause(apperrors.ErrDatabaseError, err)
		}
		req.ID = model.ID
		req.CreatedAt = model.CreatedAt
		return nil
	})
}

func (r *librarianRequestRepository) FindByID(ctx context.Context, id uint) (*librarian.Request, error) {
	var model LibrarianRequestModel
	if err := dbFrom(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, librarian.ErrRequestNotFound
		}
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return toRequestEntity(&model), nil
}

// Update 保存审批结果
func (r *librarianRequestRepository) Update(ctx context.Context, req *librarian.Request) error {
	result := dbFrom(ctx, r.db).Model(&LibrarianRequestModel{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"is_processed": req.IsProcessed,
		"approved":     req.Approved,
		"processed_at": req.ProcessedAt,
	})
	if result.Error != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, req.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *librarianRequestRepository) ListPending(ctx context.Context) ([]*librarian.Request, error) {
	var models []LibrarianRequestModel
	err := dbFrom(ctx, r.db).Where("is_processed = ?", false).Order("id ASC").Find(&models).Error
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	out := make([]*librarian.Request, len(models))
	for i := range models {
		out[i] = toRequestEntity(&models[i])
	}
	return out, nil
}

func (r *librarianRequestRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := dbFrom(ctx, r.db).Model(&LibrarianRequestModel{}).Where("is_processed = ?", false).Count(&n).Error
	if err != nil {
		return 0, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return n, nil
}

func toRequestModel(req *librarian.Request) *LibrarianRequestModel {
	return &LibrarianRequestModel{
		ID:          req.ID,
		UserID:      req.UserID,
		Reason:      req.Reason,
		IsProcessed: req.IsProcessed,
		Approved:    req.Approved,
		CreatedAt:   req.CreatedAt,
		ProcessedAt: req.ProcessedAt,
	}
}

func toRequestEntity(m *LibrarianRequestModel) *librarian.Request {
	return &librarian.Request{
		ID:          m.ID,
		UserID:      m.UserID,
		Reason:      m.Reason,
		IsProcessed: m.IsProcessed,
		Approved:    m.Approved,
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
	}
}
