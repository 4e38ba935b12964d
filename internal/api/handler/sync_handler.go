package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NoBody217/WeClass/internal/service"
	"github.com/NoBody217/WeClass/pkg/response"
)

// SyncHandler 远端同步模块 HTTP 处理器
type SyncHandler struct {
	syncSvc service.SyncService
}

// NewSyncHandler 创建 SyncHandler
func NewSyncHandler(syncSvc service.SyncService) *SyncHandler {
	return &SyncHandler{syncSvc: syncSvc}
}

// Push 本地课表覆盖远端
// POST /api/v1/sync/push
func (h *SyncHandler) Push(c *gin.Context) {
	resp, err := h.syncSvc.Push(c.Request.Context())
	if err != nil {
		handleSyncError(c, err)
		return
	}
	response.OK(c, resp)
}

// Pull 远端课表覆盖本地
// POST /api/v1/sync/pull
func (h *SyncHandler) Pull(c *gin.Context) {
	resp, err := h.syncSvc.Pull(c.Request.Context())
	if err != nil {
		handleSyncError(c, err)
		return
	}
	response.OK(c, resp)
}

func handleSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSyncDisabled):
		response.Error(c, http.StatusServiceUnavailable, 13001, "远端同步未配置")
	case errors.Is(err, service.ErrSyncRemoteFailed):
		response.Error(c, http.StatusBadGateway, 13002, "远端文档服务请求失败")
	case errors.Is(err, service.ErrSyncDocumentEmpty),
		errors.Is(err, service.ErrSyncBadDocument):
		response.Error(c, http.StatusBadGateway, 13003, "远端文档内容无效")
	default:
		response.InternalError(c)
	}
}
