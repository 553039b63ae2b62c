// internal/service/monitor/infrastructure/adapter/stock_redis_reader.go
package adapter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"storefront/internal/pkg/redis"
)

// StockRedisReader 只读地查询库存台账, 供监控侧在收到通知后复核最新数量.
type StockRedisReader struct {
	client *redis.Client
}

func NewStockRedisReader(client *redis.Client) *StockRedisReader {
	return &StockRedisReader{client: client}
}

func stockKey(product string) string {
	// hash tag 保证集群模式下同一商品的读写落在同一 slot
	return fmt.Sprintf("stock:{%s}", product)
}

// Get 返回商品当前库存量. 记录不存在时 found 为 false 而非错误,
// 由调用方决定是否告警, 避免消费端因台账滞后而崩溃.
func (r *StockRedisReader) Get(ctx context.Context, product string) (int, bool, error) {
	fields, err := r.client.GetClient().HGetAll(ctx, stockKey(product)).Result()
	if err != nil {
		return 0, false, errors.Wrapf(err, "read stock record for %s", product)
	}
	if len(fields) == 0 {
		return 0, false, nil
	}

	raw, ok := fields["quantity"]
	if !ok {
		return 0, false, nil
	}
	quantity, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, errors.Wrapf(err, "malformed quantity for %s", product)
	}
	return quantity, true, nil
}
