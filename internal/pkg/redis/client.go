// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client 是对 go-redis 的一层薄封装，
// 除了连接管理外还维护一个 Lua 脚本注册表，
// 业务侧通过脚本名调用，首次执行后走 EVALSHA
type Client struct {
	client goredis.UniversalClient

	mu      sync.RWMutex
	scripts map[string]*goredis.Script
}

// NewClient 根据逗号分隔的地址列表创建客户端
// 单地址时为普通客户端，多地址时自动使用集群模式
func NewClient(addrs string) (*Client, error) {
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs: strings.Split(addrs, ","),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addrs, err)
	}

	return &Client{
		client:  client,
		scripts: make(map[string]*goredis.Script),
	}, nil
}

// GetClient 暴露底层客户端，少数需要 pipeline 等原生能力的场景使用
func (c *Client) GetClient() goredis.UniversalClient {
	return c.client
}

// LoadScriptFromContent 注册一段 Lua 脚本
// 重复注册同名脚本会直接覆盖
func (c *Client) LoadScriptFromContent(name, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("script %q is empty", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[name] = goredis.NewScript(content)
	return nil
}

// RunScript 按名字执行已注册的脚本
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("lua script %q is not registered", name)
	}
	return script.Run(ctx, c.client, keys, args...).Result()
}

// Close 关闭底层连接
func (c *Client) Close() error {
	return c.client.Close()
}
