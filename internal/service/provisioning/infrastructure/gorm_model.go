// internal/service/provisioning/infrastructure/gorm_model.go
package infrastructure

import (
	"database/sql"
	"time"
)

// OrderModel 对应数据库中的 orders 表。
// (provisioning_token, customer_email) 上的联合索引服务于 token 校验的等值查询。
type OrderModel struct {
	ID            string `gorm:"primaryKey;size:64"`
	CustomerEmail string `gorm:"size:255;index:idx_provisioning_lookup,priority:2"`
	Amount        float64
	Currency      string `gorm:"size:8"`
	ServiceTitle  string `gorm:"size:255"`
	ProductRef    string `gorm:"size:64"`
	PaymentMethod string `gorm:"size:32"`
	Status        string `gorm:"size:16"`

	ProvisioningToken       sql.NullString `gorm:"size:128;index:idx_provisioning_lookup,priority:1"`
	ProvisioningTokenExpiry sql.NullTime

	PasswordSet     bool
	PasswordSetAt   sql.NullTime
	AccountLinked   bool
	IsGuestCheckout bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}

// ProvisionCommitModel 对应 provision_commit 表。
// order_id 上的唯一索引保证同一订单最多一条提交记录。
type ProvisionCommitModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	OrderID   string `gorm:"size:64;uniqueIndex"`
	Email     string `gorm:"size:255"`
	State     string `gorm:"size:32;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定 GORM 应该使用的表名
func (ProvisionCommitModel) TableName() string {
	return "provision_commit"
}
