package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NoBody217/WeClass/internal/dto"
	"github.com/NoBody217/WeClass/internal/model"
	"github.com/NoBody217/WeClass/internal/service"
	"github.com/NoBody217/WeClass/pkg/response"
)

// TimetableHandler 课表模块 HTTP 处理器
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// GetTimetable 获取完整课表文档
// GET /api/v1/timetable
func (h *TimetableHandler) GetTimetable(c *gin.Context) {
	resp, err := h.svc.GetDocument(c.Request.Context())
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetWeekGrid 获取某一周的课表网格
// GET /api/v1/timetable/week/:week?mode=mine|theirs|couple
// week=0 表示当前周
func (h *TimetableHandler) GetWeekGrid(c *gin.Context) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		response.BadRequest(c, 12001, "周次必须为整数")
		return
	}
	mode := c.Query("mode")

	resp, err := h.svc.GetWeekGrid(c.Request.Context(), week, mode)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// CreateCourse 手动新建课程
// POST /api/v1/courses
func (h *TimetableHandler) CreateCourse(c *gin.Context) {
	var req dto.SaveCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12002, err.Error())
		return
	}

	course, err := h.svc.CreateCourse(c.Request.Context(), &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse 编辑课程
// PUT /api/v1/courses/:id
func (h *TimetableHandler) UpdateCourse(c *gin.Context) {
	id := c.Param("id")

	var req dto.SaveCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12002, err.Error())
		return
	}

	course, err := h.svc.UpdateCourse(c.Request.Context(), id, &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, course)
}

// DeleteCourse 删除课程
// DELETE /api/v1/courses/:id
func (h *TimetableHandler) DeleteCourse(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.DeleteCourse(c.Request.Context(), id); err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, nil)
}

// 订阅地址拉取超时
var importFetchClient = &http.Client{Timeout: 20 * time.Second}

// ImportICS 导入日历课表
// POST /api/v1/timetable/import
//
// multipart/form-data：field="file" 为日历文件，或 field="url" 为
// 订阅地址（二选一，file 优先）；可选 field="owner" 指定导入到
// 哪个槽位（默认当前用户的槽位）
func (h *TimetableHandler) ImportICS(c *gin.Context) {
	owner := c.PostForm("owner")
	if owner == "" {
		var ok bool
		owner, ok = MustGetOwner(c)
		if !ok {
			return
		}
	}
	if owner != model.OwnerUser1 && owner != model.OwnerUser2 {
		response.BadRequest(c, 12003, "owner 必须为 user1 或 user2")
		return
	}

	reader, cleanup, ok := h.openImportSource(c)
	if !ok {
		return
	}
	defer cleanup()

	resp, err := h.svc.ImportICS(c.Request.Context(), reader, owner)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// openImportSource 取导入数据源：上传文件优先，其次订阅地址
func (h *TimetableHandler) openImportSource(c *gin.Context) (io.Reader, func(), bool) {
	if file, _, err := c.Request.FormFile("file"); err == nil {
		return file, func() { file.Close() }, true
	}

	rawURL := c.PostForm("url")
	if rawURL == "" {
		response.BadRequest(c, 12004, "请上传日历文件或提供订阅地址")
		return nil, nil, false
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		response.BadRequest(c, 12005, "订阅地址必须为 http/https")
		return nil, nil, false
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		response.BadRequest(c, 12005, "订阅地址无效")
		return nil, nil, false
	}
	resp, err := importFetchClient.Do(req)
	if err != nil {
		response.Error(c, http.StatusBadGateway, 12006, "订阅地址拉取失败")
		return nil, nil, false
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		response.Error(c, http.StatusBadGateway, 12006, "订阅地址拉取失败")
		return nil, nil, false
	}
	// 拉取内容同样受大小上限约束
	body := io.LimitReader(resp.Body, 2<<20)
	return body, func() { resp.Body.Close() }, true
}

// UpdateConfig 更新学期配置
// PUT /api/v1/timetable/config
func (h *TimetableHandler) UpdateConfig(c *gin.Context) {
	var req dto.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12002, err.Error())
		return
	}

	cfg, err := h.svc.UpdateConfig(c.Request.Context(), &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, cfg)
}

// handleTimetableError 统一课表模块错误映射
func handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 12101, "课程不存在")
	case errors.Is(err, service.ErrCourseInvalidOwner),
		errors.Is(err, service.ErrCourseNameRequired),
		errors.Is(err, service.ErrCourseInvalidDay),
		errors.Is(err, service.ErrCourseInvalidPeriod),
		errors.Is(err, service.ErrCourseInvalidWeeks),
		errors.Is(err, service.ErrCourseInvalidWeekType),
		errors.Is(err, service.ErrCourseDateRequired),
		errors.Is(err, service.ErrCourseInvalidDate),
		errors.Is(err, service.ErrInvalidViewMode),
		errors.Is(err, service.ErrInvalidStartDate):
		response.BadRequest(c, 12102, err.Error())
	case errors.Is(err, service.ErrTimetableICSReadFailed):
		response.BadRequest(c, 12103, "日历文件读取失败")
	case errors.Is(err, service.ErrTimetableICSEmpty):
		response.BadRequest(c, 12104, "日历文件中未发现有效课程事件")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/timetable_handler.go
