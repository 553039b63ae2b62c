// cmd/api-gateway/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/httpclient"
	"storefront/internal/pkg/logger"
)

const (
	serviceName = "api-gateway"
)

var storeServiceBaseURL = getEnv("STORE_SERVICE_BASE_URL", "http://localhost:8080")

// route 描述一条网关转发规则: 对外的方法/路径 -> 下游的方法/路径
type route struct {
	method           string
	path             string
	downstreamMethod string
	downstreamPath   string
}

var routes = []route{
	{method: http.MethodGet, path: "/catalog", downstreamMethod: http.MethodGet, downstreamPath: "/catalog"},
	{method: http.MethodGet, path: "/report", downstreamMethod: http.MethodPost, downstreamPath: "/report"},
	{method: http.MethodPost, path: "/order", downstreamMethod: http.MethodPost, downstreamPath: "/order"},
	{method: http.MethodPut, path: "/inventory", downstreamMethod: http.MethodPut, downstreamPath: "/inventory"},
}

func main() {
	bootstrap.Init()

	client := httpclient.NewClient(otel.Tracer(serviceName))

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8090,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", healthzHandler)
			appCtx.Mux.HandleFunc("/readyz", readyzHandler)
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			for _, rt := range routes {
				appCtx.Mux.HandleFunc(rt.path, forwardHandler(client, rt))
			}
		},
	})
}

// forwardHandler 把请求原样转发到 store-service，并补上宽松的跨域响应头。
// 浏览器的 OPTIONS 预检请求在网关本地应答，不会打到下游。
func forwardHandler(client *httpclient.Client, rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != rt.method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		tracer := otel.Tracer(serviceName)
		ctx, span := tracer.Start(r.Context(), "api-gateway.Forward"+rt.path)
		defer span.End()
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		)

		body, err := buildDownstreamBody(r, rt)
		if err != nil {
			span.SetStatus(codes.Error, "bad request body")
			writeGatewayError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := client.Forward(ctx, rt.downstreamMethod, storeServiceBaseURL+rt.downstreamPath, body)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("path", rt.path).Msg("downstream call failed")
			span.RecordError(err)
			span.SetStatus(codes.Error, "downstream unreachable")
			writeGatewayError(w, http.StatusBadGateway, "store service unavailable")
			return
		}

		// 下游的状态码和响应体原样透传
		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.StatusCode)
		w.Write(resp.Body)
	}
}

// buildDownstreamBody 组装转发给下游的请求体。
// GET /report?mode=xxx 在这里翻译成下游的 POST {"mode": "xxx"}，
// 其余路由把原始请求体原封不动地带过去。
func buildDownstreamBody(r *http.Request, rt route) ([]byte, error) {
	if rt.path == "/report" {
		mode := r.URL.Query().Get("mode")
		if mode == "" {
			return nil, fmt.Errorf("query parameter 'mode' is required")
		}
		return json.Marshal(map[string]string{"mode": mode})
	}
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %v", err)
	}
	return body, nil
}

func writeCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, traceparent, tracestate")
}

func writeGatewayError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	// 对于 livenessProbe，只要能响应，就说明进程存活
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func readyzHandler(w http.ResponseWriter, r *http.Request) {
	// readinessProbe 检查下游 store-service 是否可达
	resp, err := http.Get(storeServiceBaseURL + "/healthz")
	if err != nil {
		http.Error(w, "Downstream store-service not ready", http.StatusServiceUnavailable)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		http.Error(w, "Downstream store-service not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
