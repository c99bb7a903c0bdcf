// internal/service/provisioning/domain/repository.go
package domain

import (
	"context"
	"time"
)

// OrderRepository 定义开通服务对订单存储的全部访问面。
// 订单归支付/商城子系统所有，这里只有一条等值查询和一次消费性写入。
type OrderRepository interface {
	// FindByToken 按 (provisioningToken, customerEmail) 精确等值查询订单。
	// 无匹配时返回 ErrTokenNotFound；存储故障返回底层错误。
	FindByToken(ctx context.Context, token, email string) (*Order, error)

	// FindByID 按主键查询订单
	FindByID(ctx context.Context, id string) (*Order, error)

	// ConsumeToken 以一次部分字段更新完成 token 消费:
	// 置位 password_set / password_set_at / account_linked，清除 token 与过期时间。
	ConsumeToken(ctx context.Context, orderID string, now time.Time) error
}

// CommitRepository 持久化两态提交记录
type CommitRepository interface {
	// Record 插入一条 IDENTITY_CREATED 记录；同一订单重复插入视为成功
	Record(ctx context.Context, commit *ProvisionCommit) error

	// MarkOrderUpdated 将提交记录推进到 ORDER_UPDATED
	MarkOrderUpdated(ctx context.Context, commitID string, now time.Time) error

	// FindPending 返回在部分失败窗口中停留超过给定时刻的提交记录
	FindPending(ctx context.Context, olderThan time.Time, limit int) ([]*ProvisionCommit, error)
}
