package dto

import "github.com/NoBody217/WeClass/internal/model"

// TimetableDocument 完整课表文档（与远端同步的 JSON 形态一致）
type TimetableDocument struct {
	User1  []model.Course       `json:"user1"`
	User2  []model.Course       `json:"user2"`
	Config model.SemesterConfig `json:"config"`
}

// SaveCourseRequest 新建/编辑课程请求
type SaveCourseRequest struct {
	Owner       string  `json:"owner" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	DayOfWeek   int     `json:"day_of_week"`
	StartPeriod int     `json:"start_period" binding:"required"`
	EndPeriod   int     `json:"end_period" binding:"required"`
	StartWeek   int     `json:"start_week"`
	EndWeek     int     `json:"end_week"`
	WeekType    string  `json:"week_type"`
	Room        string  `json:"room"`
	Teacher     string  `json:"teacher"`
	Credit      string  `json:"credit"`
	Note        string  `json:"note"`
	Color       string  `json:"color"`
	IsTemporary bool    `json:"is_temporary"`
	Date        *string `json:"date,omitempty"`
}

// RenderInstruction 单个课程块的绘制指令（布局解析器的输出单元）
type RenderInstruction struct {
	Course      model.Course `json:"course"`
	StartPeriod int          `json:"start_period"`
	EndPeriod   int          `json:"end_period"`
	SlotIndex   int          `json:"slot_index"` // 第几列（0-based）
	SlotCount   int          `json:"slot_count"` // 等宽列数（1 或 2）
	IsActive    bool         `json:"is_active"`
	HasConflict bool         `json:"has_conflict"`
}

// DayColumn 某一天的日期列与绘制指令
type DayColumn struct {
	DayOfWeek    int                 `json:"day_of_week"` // 1-7
	Date         string              `json:"date"`        // YYYY-MM-DD
	Instructions []RenderInstruction `json:"instructions"`
}

// WeekGridResponse 一周课表网格
type WeekGridResponse struct {
	Week        int               `json:"week"`         // 恒 >= 1
	CurrentWeek int               `json:"current_week"` // 0 = 未开学
	Mode        string            `json:"mode"`
	Periods     model.PeriodTimes `json:"periods"`
	Days        []DayColumn       `json:"days"`
}

// ImportICSResponse 导入结果
type ImportICSResponse struct {
	ImportedCount   int            `json:"imported_count"`
	PeriodsReplaced bool           `json:"periods_replaced"`
	Courses         []model.Course `json:"courses"`
}

// UpdateConfigRequest 学期配置更新请求（字段为 nil 表示不变）
type UpdateConfigRequest struct {
	StartDate  *string            `json:"start_date,omitempty"`
	Periods    *model.PeriodTimes `json:"periods,omitempty"`
	Appearance *model.Appearance  `json:"appearance,omitempty"`
}

// SyncResultResponse 同步操作结果
type SyncResultResponse struct {
	Direction string `json:"direction"` // push | pull
	Courses   int    `json:"courses"`
}
