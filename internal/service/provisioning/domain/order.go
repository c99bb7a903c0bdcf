// internal/service/provisioning/domain/order.go
package domain

import "time"

// PaymentMethod 标识订单的支付渠道
type PaymentMethod string

const (
	PaymentCard         PaymentMethod = "CARD"          // 同步卡支付
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER" // 异步转账类支付
	PaymentOther        PaymentMethod = "OTHER"
)

// Status 是订单的生命周期状态，归支付子系统所有，本服务只读
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Order 是一次购买的订单聚合。开通服务对它只做两类写入:
// 清除 token（消费）和置位 PasswordSet，其余字段均为只读。
//
// 不变量: ProvisioningToken 与 ProvisioningTokenExpiry 要么同时存在要么同时缺失；
// PasswordSet 一旦为 true，token 必须已被清除，消费过的 token 永远不能再次通过校验。
type Order struct {
	ID            string
	CustomerEmail string // token 校验要求逐字节精确匹配
	Amount        float64
	Currency      string
	ServiceTitle  string
	ProductRef    string
	PaymentMethod PaymentMethod
	Status        Status

	ProvisioningToken       *string
	ProvisioningTokenExpiry *time.Time

	PasswordSet     bool
	PasswordSetAt   *time.Time
	AccountLinked   bool
	IsGuestCheckout bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenExpired 判断开通链接是否已过期。
// 缺失过期时间的 token 视为已过期，而不是永久有效。
func (o *Order) TokenExpired(now time.Time) bool {
	if o.ProvisioningTokenExpiry == nil {
		return true
	}
	return now.After(*o.ProvisioningTokenExpiry)
}

// ConsumeToken 在账号创建成功后消费 token: 置位密码标记并清除 token。
// false→true 单向翻转，重复调用是幂等的。
func (o *Order) ConsumeToken(now time.Time) {
	o.PasswordSet = true
	if o.PasswordSetAt == nil {
		t := now
		o.PasswordSetAt = &t
	}
	o.AccountLinked = true
	o.ProvisioningToken = nil
	o.ProvisioningTokenExpiry = nil
	o.UpdatedAt = now
}

// CheckToken 对已查到的订单执行 token 状态机校验，
// 返回 nil 表示 VALID，可以进入开通流程。校验本身不产生任何副作用。
func (o *Order) CheckToken(now time.Time) error {
	if o.TokenExpired(now) {
		return ErrTokenExpired
	}
	if o.PasswordSet {
		// 正常流程下不可达: token 消费时已同时清除
		return ErrTokenAlreadyUsed
	}
	return nil
}
