// internal/service/content/infrastructure/adapter/views_redis_adapter.go
package adapter

import (
	"context"
	"fmt"

	"lumina/internal/pkg/redis"
)

const initViewsScriptName = "init_views"

// ViewsRedisAdapter 是 domain.ViewCounter 的 Redis 实现，
// 供高流量部署下把计数从 MySQL 挪到 Redis 的场景使用。
type ViewsRedisAdapter struct {
	redisClient *redis.Client
}

// NewViewsRedisAdapter 创建计数适配器并加载所需的 Lua 脚本
func NewViewsRedisAdapter(redisClient *redis.Client) (*ViewsRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(initViewsScriptName, initViewsScript); err != nil {
		return nil, fmt.Errorf("failed to load init_views script: %w", err)
	}
	return &ViewsRedisAdapter{redisClient: redisClient}, nil
}

func viewsKey(contentID string) string {
	return fmt.Sprintf("content:views:{%s}", contentID)
}

// InitViews 把缺失的计数器置 1。脚本在 Redis 内原子执行，
// 两个会话同时初始化时输掉的一方自动落到自增分支。
func (a *ViewsRedisAdapter) InitViews(ctx context.Context, contentID string) error {
	_, err := a.redisClient.RunScript(ctx, initViewsScriptName, []string{viewsKey(contentID)})
	if err != nil {
		return fmt.Errorf("views adapter failed to run script: %w", err)
	}
	return nil
}

// IncrementViews 对计数器执行原生 INCR
func (a *ViewsRedisAdapter) IncrementViews(ctx context.Context, contentID string) error {
	return a.redisClient.GetClient().Incr(ctx, viewsKey(contentID)).Err()
}

var initViewsScript = `
-- KEYS[1]: 浏览计数的 Key, 例如: content:views:{course_123}

-- 计数器已存在则自增，否则显式置 1
if redis.call('exists', KEYS[1]) == 1 then
    return redis.call('incr', KEYS[1])
else
    redis.call('set', KEYS[1], 1)
    return 1
end
`
