// internal/service/content/application/service.go
package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lumina/internal/pkg/logger"
	"lumina/internal/service/content/domain"
)

// ContentService 负责内容详情查询与会话级浏览计数
type ContentService struct {
	repo    domain.ContentRepository
	counter domain.ViewCounter
	tracer  trace.Tracer
}

// NewContentService 创建内容服务实例
func NewContentService(repo domain.ContentRepository, counter domain.ViewCounter, tracer trace.Tracer) *ContentService {
	return &ContentService{repo: repo, counter: counter, tracer: tracer}
}

// GetPublishedBySlug 按 slug 查询已发布内容
func (s *ContentService) GetPublishedBySlug(ctx context.Context, slug string) (*domain.ContentItem, error) {
	ctx, span := s.tracer.Start(ctx, "content.GetPublishedBySlug")
	defer span.End()
	span.SetAttributes(attribute.String("content.slug", slug))

	return s.repo.FindPublishedBySlug(ctx, slug)
}

// RecordView 为一次内容详情浏览计数，会话内至多一次。
// 计数是尽力而为的: 写入失败只记日志并吞掉，永远不能阻断
// 内容展示路径。写入成功才把 id 记入会话，失败留给下次浏览重试。
// 返回值指示本次是否真的计了数。
func (s *ContentService) RecordView(ctx context.Context, session *domain.ViewSession, item *domain.ContentItem) bool {
	ctx, span := s.tracer.Start(ctx, "content.RecordView")
	defer span.End()
	span.SetAttributes(attribute.String("content.id", item.ID))

	if session.Seen(item.ID) {
		// 会话内已计数，这是主导不变量: 至多一次
		span.AddEvent("View already counted in this session.")
		return false
	}

	var err error
	if item.Views == nil {
		// 计数器缺失: 显式置 1，不能对缺失字段做自增
		err = s.counter.InitViews(ctx, item.ID)
	} else {
		err = s.counter.IncrementViews(ctx, item.ID)
	}
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("content_id", item.ID).Msg("view counter write failed, view not recorded")
		span.AddEvent("Counter write failed, swallowed.")
		return false
	}

	session.Mark(item.ID)
	return true
}
