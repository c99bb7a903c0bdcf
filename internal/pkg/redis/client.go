// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// Client 封装 go-redis 客户端，并维护一个按名字注册的 Lua 脚本表。
// 地址串包含多个节点时使用 Cluster 模式。
type Client struct {
	client goredis.UniversalClient

	mu      sync.RWMutex
	scripts map[string]*goredis.Script
}

// NewClient 根据 "addr1,addr2" 形式的地址串创建客户端
func NewClient(addrs string) (*Client, error) {
	addrList := strings.Split(addrs, ",")
	for i := range addrList {
		addrList[i] = strings.TrimSpace(addrList[i])
	}

	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs: addrList,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis %s: %w", addrs, err)
	}

	return &Client{
		client:  client,
		scripts: make(map[string]*goredis.Script),
	}, nil
}

// LoadScriptFromContent 以给定名字注册一段 Lua 脚本
func (c *Client) LoadScriptFromContent(name, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("script %q is empty", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[name] = goredis.NewScript(content)
	return nil
}

// RunScript 执行已注册的 Lua 脚本，自动走 EVALSHA 缓存
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("script %q is not loaded", name)
	}
	return script.Run(ctx, c.client, keys, args...).Result()
}

// GetClient 暴露底层客户端，供需要 pipeline 等原生能力的调用方使用
func (c *Client) GetClient() goredis.UniversalClient {
	return c.client
}

// Close 关闭底层连接
func (c *Client) Close() error {
	return c.client.Close()
}
