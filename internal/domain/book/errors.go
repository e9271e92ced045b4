package book

import (
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.ErrBookNotFound

	// ErrAuthorNotFound 作者不存在
	ErrAuthorNotFound = apperrors.New(apperrors.ErrCodeAuthorNotFound, "作者不存在")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.ErrISBNDuplicate

	// ErrInvalidPrice 无效的价格
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格必须在0.01-999.99之间")

	// ErrInvalidStock 无效的库存
	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存必须在0-1000之间")

	// ErrInvalidQuantity 无效的数量
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")

	// ErrInsufficientStock 库存不足(调整后库存会小于0)
	ErrInsufficientStock = apperrors.ErrInsufficientStock

	// ErrInvalidISBN ISBN格式不正确
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN格式不正确")

	// ErrInvalidTitle 书名不合法
	ErrInvalidTitle = apperrors.New(apperrors.ErrCodeInvalidParams, "书名不能为空且不超过200个字符")

	// ErrInvalidAuthor 作者名不能为空
	ErrInvalidAuthor = apperrors.New(apperrors.ErrCodeInvalidParams, "作者名不能为空")

	// ErrAuthorHasBooks 作者名下还有图书,不能删除
	ErrAuthorHasBooks = apperrors.New(apperrors.ErrCodeAuthorHasBooks, "作者名下还有图书,请先删除或改挂这些图书")

	// ErrInvalidCategory 分类不合法
	ErrInvalidCategory = apperrors.New(apperrors.ErrCodeInvalidParams, "图书分类不合法")
)
