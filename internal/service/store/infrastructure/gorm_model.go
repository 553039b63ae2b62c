// internal/service/store/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"gorm.io/gorm"

	"storefront/internal/service/store/domain"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	gorm.Model
	OrderID   string `gorm:"uniqueIndex;size:64"`
	Product   string `gorm:"index;size:255"`
	Quantity  int
	OrderDate time.Time
	State     domain.OrderState `gorm:"size:16"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}

// ProductModel 对应数据库中的 products 表
// 剩余数量不在这张表里，库存账本才是数量的唯一可信来源
type ProductModel struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;size:255"`
	Category    string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	Cost        float64 `gorm:"type:decimal(10,2)"`
}

// TableName 指定 GORM 应该使用的表名
func (ProductModel) TableName() string {
	return "products"
}

// ToDomainOrder 将数据库模型转换为领域模型
func ToDomainOrder(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:        m.OrderID,
		Product:   m.Product,
		Quantity:  m.Quantity,
		OrderDate: m.OrderDate,
		State:     m.State,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToDomainProduct 将数据库模型转换为领域模型
func ToDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		Name:        m.Name,
		Category:    m.Category,
		Description: m.Description,
		Cost:        m.Cost,
	}
}
