// internal/service/provisioning/infrastructure/mapper.go
package infrastructure

import (
	"lumina/internal/service/provisioning/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型。
// NULL 的 token/过期时间映射为 nil 指针，保持"同时存在或同时缺失"的不变量表达。
func ToDomainOrder(m *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:              m.ID,
		CustomerEmail:   m.CustomerEmail,
		Amount:          m.Amount,
		Currency:        m.Currency,
		ServiceTitle:    m.ServiceTitle,
		ProductRef:      m.ProductRef,
		PaymentMethod:   domain.PaymentMethod(m.PaymentMethod),
		Status:          domain.Status(m.Status),
		PasswordSet:     m.PasswordSet,
		AccountLinked:   m.AccountLinked,
		IsGuestCheckout: m.IsGuestCheckout,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.ProvisioningToken.Valid {
		token := m.ProvisioningToken.String
		order.ProvisioningToken = &token
	}
	if m.ProvisioningTokenExpiry.Valid {
		expiry := m.ProvisioningTokenExpiry.Time
		order.ProvisioningTokenExpiry = &expiry
	}
	if m.PasswordSetAt.Valid {
		setAt := m.PasswordSetAt.Time
		order.PasswordSetAt = &setAt
	}
	return order
}

// ToCommitModel 将提交记录转换为数据库模型
func ToCommitModel(c *domain.ProvisionCommit) *ProvisionCommitModel {
	return &ProvisionCommitModel{
		ID:        c.ID,
		OrderID:   c.OrderID,
		Email:     c.Email,
		State:     string(c.State),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToDomainCommit 将数据库模型转换为提交记录领域模型
func ToDomainCommit(m *ProvisionCommitModel) *domain.ProvisionCommit {
	return &domain.ProvisionCommit{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Email:     m.Email,
		State:     domain.CommitState(m.State),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
