// internal/service/store/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/service/store/domain"
)

const scanBatchSize = 500

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 订单仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save 写入订单；同一 order_id 已存在时只更新状态字段
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model := OrderModel{
		OrderID:   order.ID,
		Product:   order.Product,
		Quantity:  order.Quantity,
		OrderDate: order.OrderDate,
		State:     order.State,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
		}).
		Create(&model).Error
}

// FindByID 根据订单 ID 查找
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("order_id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return ToDomainOrder(&model), nil
}

// UpdateState 只更新订单状态，补偿路径使用
func (r *GormOrderRepository) UpdateState(ctx context.Context, id string, state domain.OrderState) error {
	return r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("order_id = ?", id).
		Update("state", state).Error
}

// ScanOrders 分批遍历全部订单，避免把整张表一次性拉进内存
func (r *GormOrderRepository) ScanOrders(ctx context.Context, fn func(batch []domain.Order) error) error {
	var models []OrderModel
	return r.db.WithContext(ctx).
		FindInBatches(&models, scanBatchSize, func(tx *gorm.DB, _ int) error {
			batch := make([]domain.Order, 0, len(models))
			for i := range models {
				batch = append(batch, *ToDomainOrder(&models[i]))
			}
			return fn(batch)
		}).Error
}

// GormProductRepository 是 domain.ProductRepository 的 GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository 创建一个新的 GORM 商品仓储实例
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Upsert 新增或整体覆盖一条商品记录
func (r *GormProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	model := ProductModel{
		Name:        product.Name,
		Category:    product.Category,
		Description: product.Description,
		Cost:        product.Cost,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"category", "description", "cost", "updated_at"}),
		}).
		Create(&model).Error
}

// FindByName 根据商品名查找
func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return ToDomainProduct(&model), nil
}

// ListNames 返回目录中所有商品名
func (r *GormProductRepository) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Order("name").
		Pluck("name", &names).Error
	return names, err
}
