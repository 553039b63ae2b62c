// internal/service/store/infrastructure/adapter/stock_redis_adapter.go
package adapter

import (
	"context"
	"fmt"
	"strconv"

	"storefront/internal/pkg/redis"
	"storefront/internal/service/store/domain"
	"storefront/internal/service/store/domain/port"
)

const decrementScriptName = "conditional_decrement"

// 脚本返回值约定（见脚本内注释）
const (
	scriptResultNotFound     = -1
	scriptResultInsufficient = -2
)

// StockRedisAdapter 是 port.StockLedger 接口的 Redis 实现。
// 每个商品一个 hash，条件扣减通过 Lua 脚本在服务端一步完成，
// 并发下单不会读到同一余量再互相覆盖
type StockRedisAdapter struct {
	redisClient *redis.Client
}

// NewStockRedisAdapter 创建一个新的库存账本适配器实例。
// 它在创建时会加载所需的 Lua 脚本。
func NewStockRedisAdapter(redisClient *redis.Client) (*StockRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(decrementScriptName, decrementScript); err != nil {
		return nil, fmt.Errorf("failed to load critical decrement script: %w", err)
	}
	return &StockRedisAdapter{redisClient: redisClient}, nil
}

// 哈希标签保证集群模式下同一商品的操作落在同一个槽
func stockKey(product string) string {
	return fmt.Sprintf("stock:{%s}", product)
}

// Get 读取一个商品的库存记录
func (a *StockRedisAdapter) Get(ctx context.Context, product string) (*domain.StockRecord, error) {
	fields, err := a.redisClient.GetClient().HGetAll(ctx, stockKey(product)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stock record for %s: %w", product, err)
	}

	// 记录不存在，或者存在但缺少必需字段，都按"没有这个商品"处理
	name, hasName := fields["product"]
	quantityStr, hasQuantity := fields["quantity"]
	if len(fields) == 0 || !hasName || !hasQuantity {
		return nil, domain.ErrProductNotFound
	}

	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}

	return &domain.StockRecord{Product: name, Quantity: quantity}, nil
}

// Put 整体覆盖一条库存记录
func (a *StockRedisAdapter) Put(ctx context.Context, record *domain.StockRecord) error {
	err := a.redisClient.GetClient().HSet(ctx, stockKey(record.Product),
		"product", record.Product,
		"quantity", record.Quantity,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to write stock record for %s: %w", record.Product, err)
	}
	return nil
}

// ConditionalDecrement 原子地执行带余量保护的扣减
func (a *StockRedisAdapter) ConditionalDecrement(ctx context.Context, product string, amount int) (port.DecrementResult, error) {
	keys := []string{stockKey(product)}
	result, err := a.redisClient.RunScript(ctx, decrementScriptName, keys, amount)
	if err != nil {
		return 0, fmt.Errorf("stock adapter failed to run script: %w", err)
	}

	code, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from Lua script: %T", result)
	}

	switch {
	case code == scriptResultNotFound:
		return port.DecrementNotFound, nil
	case code == scriptResultInsufficient:
		return port.DecrementInsufficient, nil
	case code >= 0:
		return port.DecrementSuccess, nil
	default:
		return 0, fmt.Errorf("unknown result code from decrement script: %d", code)
	}
}

// Restore 把补偿归还的数量原子地加回去
func (a *StockRedisAdapter) Restore(ctx context.Context, product string, amount int) error {
	err := a.redisClient.GetClient().HIncrBy(ctx, stockKey(product), "quantity", int64(amount)).Err()
	if err != nil {
		return fmt.Errorf("failed to restore stock for %s: %w", product, err)
	}
	return nil
}

var decrementScript = `
-- scripts/conditional_decrement.lua

-- KEYS[1]: 库存记录的 Key, 例如: stock:{widget}
-- ARGV[1]: 本次要扣减的数量

-- 1. 读取当前库存
local qty = redis.call('hget', KEYS[1], 'quantity')
if not qty then
    return -1 -- 返回 -1, 代表商品记录不存在
end
qty = tonumber(qty)
local need = tonumber(ARGV[1])

-- 2. 检查余量是否充足
if qty < need then
    return -2 -- 返回 -2, 代表库存不足, 不做任何修改
end

-- 3. 余量充足, 扣减并返回新余量
local left = qty - need
redis.call('hset', KEYS[1], 'quantity', left)
return left
`
