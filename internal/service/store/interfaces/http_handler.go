// internal/service/store/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/service/store/application"
	"storefront/internal/service/store/domain"
)

const serviceName = "store-service"

// StoreHandler 封装了 store 服务的 HTTP 处理器
type StoreHandler struct {
	service *application.StoreApplicationService
}

// NewStoreHandler 创建一个新的 HTTP 处理器实例
func NewStoreHandler(service *application.StoreApplicationService) *StoreHandler {
	return &StoreHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *StoreHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/order", h.placeOrderHandler)
	mux.HandleFunc("/inventory", h.addInventoryHandler)
	mux.HandleFunc("/catalog", h.catalogHandler)
	mux.HandleFunc("/report", h.reportHandler)
}

func (h *StoreHandler) placeOrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "store-service.PlaceOrderHandler")
	defer span.End()

	var req application.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(domain.ErrInvalidInput, "could not parse JSON body"))
		return
	}

	resp, err := h.service.PlaceOrder(ctx, &req)
	if err != nil {
		// 半成功：订单已生效但通知没发出去，带着订单号返回 500
		if errors.Is(err, domain.ErrNotificationNotSent) && resp != nil {
			writeJSON(w, http.StatusInternalServerError, struct {
				Message string `json:"message"`
				OrderID string `json:"orderId"`
			}{Message: err.Error(), OrderID: resp.OrderID})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StoreHandler) addInventoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "store-service.AddInventoryHandler")
	defer span.End()

	var req application.AddInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(domain.ErrInvalidInput, "could not parse JSON body"))
		return
	}

	if err := h.service.AddInventory(ctx, &req); err != nil {
		// 校验失败时回显原始请求，方便客户端定位缺了哪个字段
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error(), Request: req})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Item successfully uploaded to inventory!"})
}

func (h *StoreHandler) catalogHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "store-service.CatalogHandler")
	defer span.End()

	resp, err := h.service.ListCatalog(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StoreHandler) reportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "store-service.ReportHandler")
	defer span.End()

	var req application.GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(domain.ErrInvalidInput, "could not parse JSON body"))
		return
	}

	resp, err := h.service.GenerateReport(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
