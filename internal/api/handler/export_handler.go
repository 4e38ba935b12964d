package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NoBody217/WeClass/internal/service"
	"github.com/NoBody217/WeClass/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportXlsx 导出某一周课表网格为 Excel
// GET /api/v1/export/xlsx?week=0&mode=couple
func (h *ExportHandler) ExportXlsx(c *gin.Context) {
	week, _ := strconv.Atoi(c.DefaultQuery("week", "0"))
	mode := c.Query("mode")

	buf, filename, err := h.exportSvc.ExportXlsx(c.Request.Context(), week, mode)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportICS 导出某一槽位的课程为标准 iCalendar
// GET /api/v1/export/ics?owner=user1
func (h *ExportHandler) ExportICS(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		var ok bool
		owner, ok = MustGetOwner(c)
		if !ok {
			return
		}
	}

	buf, filename, err := h.exportSvc.ExportICS(c.Request.Context(), owner)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, icsContentType, buf.Bytes())
}

func setDownloadHeaders(c *gin.Context, filename string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoCourses):
		response.NotFound(c, 14101, "课表为空，无可导出内容")
	case errors.Is(err, service.ErrCourseInvalidOwner):
		response.BadRequest(c, 14102, "owner 必须为 user1 或 user2")
	case errors.Is(err, service.ErrInvalidViewMode):
		response.BadRequest(c, 14103, "未知的课表视图")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/export_handler.go
