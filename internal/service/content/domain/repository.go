// internal/service/content/domain/repository.go
package domain

import (
	"context"
	"errors"
)

// ErrContentNotFound 没有已发布条目匹配给定 slug
var ErrContentNotFound = errors.New("no published content matches this slug")

// ContentRepository 是内容存储的访问面。内容归内容子系统所有，
// 本服务只读条目、只写计数器。
type ContentRepository interface {
	// FindPublishedBySlug 返回已发布条目中 slug 的第一个匹配
	FindPublishedBySlug(ctx context.Context, slug string) (*ContentItem, error)
}

// ViewCounter 是浏览计数器的写入端口。两个操作都必须是存储级
// 原语: 并发会话同时写入时不允许出现丢失更新的读-改-写。
type ViewCounter interface {
	// InitViews 把缺失的计数器显式初始化为 1（不是自增，
	// 不能假设存储会把缺失字段当 0 处理）
	InitViews(ctx context.Context, contentID string) error

	// IncrementViews 对已存在的计数器原子加一
	IncrementViews(ctx context.Context, contentID string) error
}
