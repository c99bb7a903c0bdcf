// internal/service/checkout/domain/repository.go
package domain

import "context"

// OrderReader 是确认页对订单存储的只读访问面
type OrderReader interface {
	// FindByID 按主键读取订单投影；无记录返回 ErrOrderNotFound
	FindByID(ctx context.Context, id string) (*OrderRecord, error)
}
