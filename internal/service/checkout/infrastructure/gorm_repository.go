// internal/service/checkout/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"lumina/internal/service/checkout/domain"
)

// orderRow 是 orders 表在确认页语境下的只读投影，
// 只挑选渲染摘要需要的列。
type orderRow struct {
	ID            string `gorm:"primaryKey"`
	CustomerEmail string
	Amount        float64
	Currency      string
	ServiceTitle  string
	PaymentMethod string
	Status        string
	CreatedAt     time.Time
}

func (orderRow) TableName() string {
	return "orders"
}

// GormOrderReader 是 OrderReader 的 GORM 实现
type GormOrderReader struct {
	db *gorm.DB
}

// NewGormOrderReader 创建一个新的只读订单仓储实例
func NewGormOrderReader(db *gorm.DB) *GormOrderReader {
	return &GormOrderReader{db: db}
}

// FindByID 按主键读取订单投影
func (r *GormOrderReader) FindByID(ctx context.Context, id string) (*domain.OrderRecord, error) {
	var row orderRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(err, "query order record")
	}
	return &domain.OrderRecord{
		ID:            row.ID,
		CustomerEmail: row.CustomerEmail,
		Amount:        row.Amount,
		Currency:      row.Currency,
		ServiceTitle:  row.ServiceTitle,
		PaymentMethod: row.PaymentMethod,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
	}, nil
}
