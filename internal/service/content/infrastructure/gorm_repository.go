// internal/service/content/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"database/sql"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"lumina/internal/service/content/domain"
)

// ContentModel 对应数据库中的 content 表。
// slug 不落库: 它由标题确定性推导，查询时在已发布条目上现算匹配。
type ContentModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	Title     string `gorm:"size:255"`
	Status    string `gorm:"size:16;index"`
	Views     sql.NullInt64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定 GORM 应该使用的表名
func (ContentModel) TableName() string {
	return "content"
}

// GormContentRepository 是 ContentRepository 的 GORM 实现
type GormContentRepository struct {
	db *gorm.DB
}

// NewGormContentRepository 创建一个新的内容仓储实例
func NewGormContentRepository(db *gorm.DB) *GormContentRepository {
	return &GormContentRepository{db: db}
}

// FindPublishedBySlug 在已发布条目中按创建时间序扫描，返回 slug 的
// 第一个匹配。标题冲突会导致 slug 冲突，按约定取第一个。
func (r *GormContentRepository) FindPublishedBySlug(ctx context.Context, slug string) (*domain.ContentItem, error) {
	var models []ContentModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.StatusPublished)).
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "query published content")
	}

	for i := range models {
		if domain.Slugify(models[i].Title) == slug {
			return toDomainContent(&models[i]), nil
		}
	}
	return nil, domain.ErrContentNotFound
}

func toDomainContent(m *ContentModel) *domain.ContentItem {
	item := &domain.ContentItem{
		ID:        m.ID,
		Title:     m.Title,
		Status:    domain.PublishStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Views.Valid {
		views := m.Views.Int64
		item.Views = &views
	}
	return item
}

// GormViewCounter 是 ViewCounter 的 GORM 实现，
// 两个操作都是单条 UPDATE，不做读-改-写。
type GormViewCounter struct {
	db *gorm.DB
}

// NewGormViewCounter 创建一个新的计数器实例
func NewGormViewCounter(db *gorm.DB) *GormViewCounter {
	return &GormViewCounter{db: db}
}

// InitViews 把 NULL 计数器置 1。条件更新保证两个会话同时初始化时
// 只有一个生效，输掉的一方退回原子自增。
func (c *GormViewCounter) InitViews(ctx context.Context, contentID string) error {
	result := c.db.WithContext(ctx).Model(&ContentModel{}).
		Where("id = ? AND views IS NULL", contentID).
		Update("views", 1)
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "initialize view counter")
	}
	if result.RowsAffected == 0 {
		// 另一个会话抢先初始化了，退化为普通自增
		return c.IncrementViews(ctx, contentID)
	}
	return nil
}

// IncrementViews 对已存在的计数器执行存储级原子自增
func (c *GormViewCounter) IncrementViews(ctx context.Context, contentID string) error {
	err := c.db.WithContext(ctx).Model(&ContentModel{}).
		Where("id = ? AND views IS NOT NULL", contentID).
		Update("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return pkgerrors.Wrap(err, "increment view counter")
	}
	return nil
}
