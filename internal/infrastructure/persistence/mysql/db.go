package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/pkg/logger"
)

// NewDB 创建数据库连接(storage.driver=mysql时使用)
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. database.auto_migrate=true时自动迁移表结构
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true, // 唯一索引冲突翻译为gorm.ErrDuplicatedKey
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 学习要点：合理的连接池配置对性能至关重要
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.Ctx(context.Background()).Info().
		Str("host", cfg.Database.Host).
		Str("db", cfg.Database.DBName).
		Msg("数据库连接成功")

	// 注意：生产环境应使用专门的迁移工具（如golang-migrate）
	if cfg.Database.AutoMigrate {
		if err := autoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&AuthorModel{},
		&BookModel{},
		&OrderModel{},
		&OrderItemModel{},
		&LibrarianRequestModel{},
	)
}

// UserModel GORM用户模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/user/entity.go是领域实体，不依赖GORM
// 3. credits只通过条件UPDATE修改(见userRepository的CreditLedger实现)
type UserModel struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱(小写)"`
	Password  string    `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	FirstName string    `gorm:"size:50;not null;comment:名"`
	LastName  string    `gorm:"size:50;not null;comment:姓"`
	Role      int       `gorm:"index;type:tinyint;not null;comment:角色(1用户2馆员3管理员)"`
	Credits   int64     `gorm:"not null;comment:积分余额(分)"`
	IsActive  bool      `gorm:"not null;comment:是否启用"`
	CreatedAt time.Time `gorm:"index;comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (UserModel) TableName() string {
	return "users"
}

// AuthorModel 作者
type AuthorModel struct {
	ID          uint      `gorm:"primaryKey"`
	FirstName   string    `gorm:"size:50;not null"`
	LastName    string    `gorm:"index;size:50;not null"`
	Biography   string    `gorm:"type:text"`
	Nationality string    `gorm:"size:50"`
	CreatedAt   time.Time
}

func (AuthorModel) TableName() string {
	return "authors"
}

// BookModel GORM图书模型
// 设计说明:
// 1. 价格使用int64存储"分"为单位(避免浮点数精度问题)
// 2. ISBN可选,用NULL表示未填写,唯一索引只约束填写了的ISBN
// 3. 添加复合索引优化列表查询性能
type BookModel struct {
	ID          uint           `gorm:"primaryKey"`
	ISBN        *string        `gorm:"uniqueIndex;size:20;comment:ISBN号"`
	Title       string         `gorm:"index:idx_search;size:200;not null;comment:书名"`
	AuthorID    uint           `gorm:"index;not null;comment:作者ID"`
	Category    int            `gorm:"index;type:tinyint;not null;comment:分类"`
	Price       int64          `gorm:"index:idx_list;not null;comment:价格(分)"`
	Stock       int            `gorm:"not null;comment:库存数量"`
	IsAvailable bool           `gorm:"not null;comment:是否上架"`
	Description string         `gorm:"type:text;comment:图书描述"`
	ImageURL    string         `gorm:"size:500;comment:封面图片URL"`
	PublishedAt *time.Time     `gorm:"comment:出版日期"`
	CreatedAt   time.Time      `gorm:"index:idx_list;comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

func (BookModel) TableName() string {
	return "books"
}

// OrderModel GORM订单模型
// 教学要点:
// 1. 与OrderItemModel是一对多关系
// 2. OrderNo有唯一索引(业务主键)
// 3. Status使用int存储(节省空间,便于索引)
type OrderModel struct {
	ID            uint             `gorm:"primaryKey"`
	OrderNo       string           `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID        uint             `gorm:"index;not null;comment:下单用户ID"`
	CustomerName  string           `gorm:"size:100;not null"`
	CustomerEmail string           `gorm:"size:100;not null"`
	Notes         string           `gorm:"type:text"`
	Total         int64            `gorm:"not null;comment:订单总金额(分),创建后不变"`
	Status        int              `gorm:"index;type:tinyint;not null;comment:订单状态(1待处理2处理中3已发货4已送达5已取消)"`
	Items         []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt     time.Time        `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel GORM订单明细模型
// 记录下单时的书名和单价快照
type OrderItemModel struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   uint   `gorm:"index;not null;comment:订单ID"`
	BookID    uint   `gorm:"index;not null;comment:图书ID"`
	Title     string `gorm:"size:200;not null;comment:下单时书名"`
	UnitPrice int64  `gorm:"not null;comment:下单时单价(分)"`
	Quantity  int    `gorm:"not null;comment:购买数量"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// LibrarianRequestModel 馆员申请
type LibrarianRequestModel struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index:idx_user_pending;not null"`
	Reason      string `gorm:"type:text;not null"`
	IsProcessed bool   `gorm:"index:idx_user_pending;not null"`
	Approved    bool   `gorm:"not null"`
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func (LibrarianRequestModel) TableName() string {
	return "librarian_requests"
}
