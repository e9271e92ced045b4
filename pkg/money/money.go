// Package money 金额换算
//
// 系统内部统一使用int64"分"存储金额（积分、价格、订单总额），
// 只有在与外部交互（HTTP展示、管理员输入"100.00"）时才转换为元。
// 换算用shopspring/decimal完成，避免float64带来的精度问题。
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Format 分 → 元字符串，固定两位小数
//
//	Format(1599) == "15.99"
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Parse 元字符串 → 分
// 最多两位小数，超过精度直接报错而不是四舍五入
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("金额格式错误: %q", s)
	}
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("金额最多保留两位小数: %q", s)
	}
	return cents.IntPart(), nil
}

// Yuan 分 → decimal（供需要继续计算的场景使用）
func Yuan(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
