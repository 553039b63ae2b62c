package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// pointStoreServiceAt 把下游地址临时指向测试服务器，用完恢复
func pointStoreServiceAt(t *testing.T, baseURL string) {
	t.Helper()
	old := storeServiceBaseURL
	storeServiceBaseURL = baseURL
	t.Cleanup(func() { storeServiceBaseURL = old })
}

func TestReadyzHandler_DownstreamHealthy(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer downstream.Close()
	pointStoreServiceAt(t, downstream.URL)

	rec := httptest.NewRecorder()
	readyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReadyzHandler_DownstreamUnhealthy(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer downstream.Close()
	pointStoreServiceAt(t, downstream.URL)

	rec := httptest.NewRecorder()
	readyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyzHandler_DownstreamUnreachable(t *testing.T) {
	pointStoreServiceAt(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	readyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// 探活请求的响应体必须被读完并关闭，否则每次探活都会泄漏一个连接
func TestReadyzHandler_ClosesDownstreamBody(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer downstream.Close()
	pointStoreServiceAt(t, downstream.URL)

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		readyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// 泄漏的响应体会让 Server.Close 阻塞在活跃连接上，这里要求它能正常收尾
	downstream.Close()
}
