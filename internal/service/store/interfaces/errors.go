// internal/service/store/interfaces/errors.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"storefront/internal/service/store/domain"
)

// errorBody 是所有失败响应的统一结构
type errorBody struct {
	Message string      `json:"message"`
	Request interface{} `json:"request,omitempty"`
}

// statusForError 把领域错误映射成 HTTP 状态码
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorBody{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
