// internal/service/store/application/dto.go
package application

import (
	"github.com/pkg/errors"

	"storefront/internal/service/store/domain"
)

// PlaceOrderRequest 是下单入参
type PlaceOrderRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// Validate 做请求级校验，失败时返回 domain.ErrInvalidInput 族的错误
func (r *PlaceOrderRequest) Validate() error {
	if r.Product == "" {
		return errors.Wrap(domain.ErrInvalidInput, "product must be a non-empty string")
	}
	if r.Quantity <= 0 {
		return errors.Wrap(domain.ErrInvalidInput, "quantity must be a positive number")
	}
	return nil
}

// PlaceOrderResponse 是下单成功的响应体
type PlaceOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
}

// AddInventoryRequest 是入库入参，所有字段必填
type AddInventoryRequest struct {
	Product     string  `json:"product"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Quantity    int     `json:"quantity"`
}

func (r *AddInventoryRequest) Validate() error {
	if r.Product == "" || r.Category == "" || r.Description == "" || r.Cost <= 0 || r.Quantity <= 0 {
		return errors.Wrap(domain.ErrInvalidInput, "missing required fields")
	}
	return nil
}

// CatalogResponse 列出当前有货的商品名
type CatalogResponse struct {
	Available []string `json:"available"`
}

// 报表模式，对应原始系统的 inventory / sales 两张表导出
const (
	ReportModeInventory = "inventory"
	ReportModeSales     = "sales"
)

// GenerateReportRequest 是报表生成入参
type GenerateReportRequest struct {
	Mode string `json:"mode"`
}

func (r *GenerateReportRequest) Validate() error {
	if r.Mode != ReportModeInventory && r.Mode != ReportModeSales {
		return errors.Wrap(domain.ErrInvalidInput, "missing or invalid `mode` (must be 'inventory' or 'sales')")
	}
	return nil
}

// GenerateReportResponse 指向生成的 CSV 制品
type GenerateReportResponse struct {
	Message     string `json:"message"`
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	RecordCount int    `json:"recordCount"`
}
