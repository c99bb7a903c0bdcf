// internal/service/checkout/domain/errors.go
package domain

import "errors"

// 对账侧的错误只在服务内部流转: 任何上游失败都降级为兜底数据，
// 绝不作为硬错误抛给确认页。
var (
	// ErrOrderNotFound 内部订单记录不存在
	ErrOrderNotFound = errors.New("order record not found")
)
