package utils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/zhouzirui/peoplemap/backend/pkg/apperr"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondAppError 将服务层错误映射为 HTTP 状态码；上游错误只返回通用信息。
func RespondAppError(w http.ResponseWriter, logger *zap.Logger, err error, publicMessage string) {
	if apperr.IsInput(err) {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if logger == nil {
		logger = zap.L()
	}
	logger.Error(publicMessage, zap.Error(err))
	RespondError(w, http.StatusInternalServerError, publicMessage)
}
