// internal/service/store/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单日志的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// Save 保存一个订单（用于创建或按状态更新）。
	Save(ctx context.Context, order *Order) error

	// FindByID 根据 ID 查找一个订单。
	FindByID(ctx context.Context, id string) (*Order, error)

	// UpdateState 只更新订单状态，补偿路径使用。
	UpdateState(ctx context.Context, id string, state OrderState) error

	// ScanOrders 分批遍历全部订单，报表生成使用。
	// fn 返回错误时终止遍历。
	ScanOrders(ctx context.Context, fn func(batch []Order) error) error
}

// ProductRepository 定义了商品目录的持久化接口。
type ProductRepository interface {
	// Upsert 新增或整体覆盖一条商品记录。
	Upsert(ctx context.Context, product *Product) error

	// FindByName 根据商品名查找。
	FindByName(ctx context.Context, name string) (*Product, error)

	// ListNames 返回目录中所有商品名。
	ListNames(ctx context.Context) ([]string, error)
}
