package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderNo 生成订单号
// 教学要点:订单号设计原则
// 1. 全局唯一(避免冲突)
// 2. 时间有序(便于按日期排查)
// 3. 不可预测(防止恶意遍历)
//
// 格式:ORD + 日期时间 + 8位随机十六进制
// 示例:ORD20240301153000A1B2C3D4
// 数据库主键ID仍然自增,订单号只用于展示和客服查询
func GenerateOrderNo(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD%s%s", now.Format("20060102150405"), suffix)
}
