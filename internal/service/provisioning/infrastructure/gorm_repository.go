// internal/service/provisioning/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"lumina/internal/service/provisioning/domain"
)

const mysqlDuplicateEntry = 1062

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的订单仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByToken 按 (token, email) 做精确等值查询。
// MySQL 默认排序规则不区分大小写，这里用 BINARY 强制逐字节比较，
// 与"邮箱精确匹配"的既定行为保持一致（是否应改为不区分大小写待产品澄清）。
func (r *GormOrderRepository) FindByToken(ctx context.Context, token, email string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).
		Where("provisioning_token = BINARY ? AND customer_email = BINARY ?", token, email).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, pkgerrors.Wrap(err, "query order by provisioning token")
	}
	return ToDomainOrder(&model), nil
}

// FindByID 按主键查询订单
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, pkgerrors.Wrap(err, "query order by id")
	}
	return ToDomainOrder(&model), nil
}

// ConsumeToken 用一条部分字段更新完成 token 消费。
// 清除 token 与置位 password_set 在同一条语句里完成，
// 保证"PasswordSet 为 true 则 token 必为空"的不变量不会出现中间态。
func (r *GormOrderRepository) ConsumeToken(ctx context.Context, orderID string, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"password_set":              true,
			"password_set_at":           now,
			"account_linked":            true,
			"provisioning_token":        nil,
			"provisioning_token_expiry": nil,
			"updated_at":                now,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(err, "consume provisioning token")
	}
	return nil
}

// GormCommitRepository 是 CommitRepository 的 GORM 实现
type GormCommitRepository struct {
	db *gorm.DB
}

// NewGormCommitRepository 创建一个新的提交记录仓储实例
func NewGormCommitRepository(db *gorm.DB) *GormCommitRepository {
	return &GormCommitRepository{db: db}
}

// Record 插入提交记录。order_id 唯一索引冲突说明之前的尝试已经记录过
// 第一步，重复插入按成功处理（两次开通尝试竞争同一订单时会走到这里）。
func (r *GormCommitRepository) Record(ctx context.Context, commit *domain.ProvisionCommit) error {
	err := r.db.WithContext(ctx).Create(ToCommitModel(commit)).Error
	if err != nil {
		var mysqlErr *gomysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return nil
		}
		return pkgerrors.Wrap(err, "record provision commit")
	}
	return nil
}

// MarkOrderUpdated 推进提交记录到 ORDER_UPDATED
func (r *GormCommitRepository) MarkOrderUpdated(ctx context.Context, commitID string, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&ProvisionCommitModel{}).
		Where("id = ?", commitID).
		Updates(map[string]interface{}{
			"state":      string(domain.CommitOrderUpdated),
			"updated_at": now,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(err, "mark provision commit as order_updated")
	}
	return nil
}

// FindPending 查找停留在部分失败窗口中的提交记录
func (r *GormCommitRepository) FindPending(ctx context.Context, olderThan time.Time, limit int) ([]*domain.ProvisionCommit, error) {
	var models []ProvisionCommitModel
	err := r.db.WithContext(ctx).
		Where("state = ? AND updated_at < ?", string(domain.CommitIdentityCreated), olderThan).
		Order("updated_at").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "query pending provision commits")
	}

	commits := make([]*domain.ProvisionCommit, 0, len(models))
	for i := range models {
		commits = append(commits, ToDomainCommit(&models[i]))
	}
	return commits, nil
}
