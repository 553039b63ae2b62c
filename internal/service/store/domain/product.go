// internal/service/store/domain/product.go
package domain

// Product 是商品目录里的一条记录
// 数量不在这里：剩余库存的唯一可信来源是库存账本
type Product struct {
	Name        string
	Category    string
	Description string
	Cost        float64
}

// StockRecord 是库存账本中一个商品的当前余量
type StockRecord struct {
	Product  string
	Quantity int
}
