// internal/service/provisioning/domain/commit.go
package domain

import "time"

// CommitState 记录开通流程两步提交的进度
type CommitState string

const (
	// CommitIdentityCreated 身份已创建，订单尚未更新（部分失败窗口）
	CommitIdentityCreated CommitState = "IDENTITY_CREATED"
	// CommitOrderUpdated 订单已更新，流程完整结束
	CommitOrderUpdated CommitState = "ORDER_UPDATED"
)

// ProvisionCommit 是随订单持久化的两态提交记录。
// 开通不是原子操作: 第 1 步创建身份，第 2 步更新订单。
// 两步之间进程崩溃或存储不可用时，记录会停留在 IDENTITY_CREATED，
// 修复任务据此找到并补齐第 2 步，而不是只依赖用户重试触发自愈。
type ProvisionCommit struct {
	ID        string
	OrderID   string
	Email     string
	State     CommitState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProvisionCommit 在身份创建成功后立刻记录第一步已完成
func NewProvisionCommit(id, orderID, email string, now time.Time) *ProvisionCommit {
	return &ProvisionCommit{
		ID:        id,
		OrderID:   orderID,
		Email:     email,
		State:     CommitIdentityCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkOrderUpdated 标记第二步（订单写入）已完成
func (c *ProvisionCommit) MarkOrderUpdated(now time.Time) {
	c.State = CommitOrderUpdated
	c.UpdatedAt = now
}

// Pending 判断提交是否停留在部分失败窗口中
func (c *ProvisionCommit) Pending() bool {
	return c.State == CommitIdentityCreated
}
