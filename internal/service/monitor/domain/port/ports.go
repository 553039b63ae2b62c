// internal/service/monitor/domain/port/ports.go
package port

import (
	"context"

	"storefront/internal/service/monitor/domain"
)

// StockReader 读取一个商品的当前库存余量。
// found 为 false 表示账本里没有这个商品的可用记录
type StockReader interface {
	Get(ctx context.Context, product string) (quantity int, found bool, err error)
}

// AlertRule 判断一个商品的当前余量是否需要告警
type AlertRule interface {
	ShouldAlert(product string, quantity int) (bool, error)
}

// AlertProducer 把告警发布到告警通道
type AlertProducer interface {
	SendLowStock(ctx context.Context, alert *domain.LowStockAlert) error
}
