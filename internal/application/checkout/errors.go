package checkout

import (
	"errors"
	"fmt"

	"github.com/xiebiao/bookshop/internal/domain/cart"
	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// 结算错误
// 教学要点(错误分类):
// - EmptyCart/InsufficientCredits/ItemUnavailable 是校验类错误,调用方调整后重试
// - StockConflict 是冲突类错误(并发抢占),没有留下任何部分状态,可以立即原样重试
var (
	ErrEmptyCart           = cart.ErrEmptyCart
	ErrInsufficientCredits = user.ErrInsufficientCredits
	ErrItemUnavailable     = apperrors.New(apperrors.ErrCodeItemUnavailable, "购物车中有图书已下架或库存不足")
	ErrStockConflict       = apperrors.New(apperrors.ErrCodeStockConflict, "库存已被其他订单抢占,请重试")
)

// ItemUnavailableError 不可购买的具体图书
//
//	var e *checkout.ItemUnavailableError
//	if errors.As(err, &e) { ... e.BookID ... }
type ItemUnavailableError struct {
	BookID uint
	Title  string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("图书[%d]《%s》不可购买", e.BookID, e.Title)
}

// UnavailableBookID 从错误链中取出不可购买的图书ID
func UnavailableBookID(err error) (uint, bool) {
	var e *ItemUnavailableError
	if errors.As(err, &e) {
		return e.BookID, true
	}
	return 0, false
}

func itemUnavailable(bookID uint, title string) error {
	return apperrors.WithCause(ErrItemUnavailable, &ItemUnavailableError{BookID: bookID, Title: title})
}
