// internal/service/store/domain/order.go
package domain

import (
	"time"

	"github.com/pkg/errors"
)

// Order 是订单聚合的根实体
// 订单一旦被接受就只追加不删除，状态只允许
// PENDING -> CONFIRMED 或 PENDING -> FAILED 两条路径
type Order struct {
	ID        string
	Product   string
	Quantity  int
	OrderDate time.Time
	State     OrderState
	UpdatedAt time.Time
}

// 工厂函数: NewOrder 用于创建一个新的订单实例
// 这里只做实体级校验，请求级校验在应用层完成
func NewOrder(id, product string, quantity int) (*Order, error) {
	if id == "" || product == "" {
		return nil, errors.New("cannot create order with empty id or product")
	}
	if quantity <= 0 {
		return nil, errors.New("cannot create order with non-positive quantity")
	}
	now := time.Now()
	return &Order{
		ID:        id,
		Product:   product,
		Quantity:  quantity,
		OrderDate: now,
		State:     StatePending, // 初始状态
		UpdatedAt: now,
	}, nil
}

// MarkAsConfirmed 在库存扣减成功后将订单置为生效
func (o *Order) MarkAsConfirmed() error {
	if o.State != StatePending {
		return errors.Errorf("order %s can only be confirmed from pending state, got %s", o.ID, o.State)
	}
	o.State = StateConfirmed
	o.UpdatedAt = time.Now()
	return nil
}

// MarkAsFailed 将订单标记为失败
// 这是补偿路径，任何状态都允许进入 FAILED
func (o *Order) MarkAsFailed() {
	o.State = StateFailed
	o.UpdatedAt = time.Now()
}
