// internal/service/store/domain/port/stock.go
package port

import (
	"context"

	"storefront/internal/service/store/domain"
)

// DecrementResult 是条件扣减的业务结果
type DecrementResult int

const (
	DecrementSuccess      DecrementResult = iota + 1 // 扣减成功
	DecrementInsufficient                            // 库存不足，未扣减
	DecrementNotFound                                // 商品记录不存在
)

// StockLedger 是库存账本的出站端口。
// ConditionalDecrement 必须是存储层的单次原子操作：
// 读-改-写分开做会让并发下单彼此覆盖，出现超卖
type StockLedger interface {
	// Get 读取一个商品的当前库存。
	// 记录不存在或缺少必需字段时返回 domain.ErrProductNotFound
	Get(ctx context.Context, product string) (*domain.StockRecord, error)

	// Put 整体覆盖一条库存记录（入库操作使用）。
	Put(ctx context.Context, record *domain.StockRecord) error

	// ConditionalDecrement 原子地执行 quantity = quantity - amount，
	// 仅当 quantity >= amount 时生效，否则不改变任何状态。
	ConditionalDecrement(ctx context.Context, product string, amount int) (DecrementResult, error)

	// Restore 归还已扣减的数量，补偿路径使用。
	Restore(ctx context.Context, product string, amount int) error
}
