// internal/service/store/domain/event.go
package domain

// StockNotification 是订单生效后发往通知通道的消息
// 下游的低库存监控会拿着 product 重新读取当前库存，
// 所以消息本身不携带数量，天然幂等
type StockNotification struct {
	Product string `json:"product"`
	OrderID string `json:"orderId,omitempty"`
}
