// Package civil 提供与时区无关的"日历日期"值类型。
//
// 周次推算只关心日历上的整数天数差，使用 time.Time 做这类运算会把
// 时区与夏令时牵扯进来，这里统一用纯日期值规避。
package civil

import (
	"fmt"
	"time"
)

// Date 日历日期（无时区、无时刻）
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf 从 time.Time 提取日历日期（忽略其时区下的时刻部分）
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today 当前本地日历日期
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate 解析 YYYY-MM-DD 格式日期
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("无效日期 %q: %w", s, err)
	}
	return DateOf(t), nil
}

// String 输出 YYYY-MM-DD
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero 是否为零值日期
func (d Date) IsZero() bool {
	return d == Date{}
}

// in 固定以 UTC 正午表示，天数差不受任何时钟调整影响
func (d Date) in() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

// AddDays 返回 d 之后 n 天的日期（n 可为负）
func (d Date) AddDays(n int) Date {
	return DateOf(d.in().AddDate(0, 0, n))
}

// DaysSince 返回 d - other 的整数天数差
func (d Date) DaysSince(other Date) int {
	return int(d.in().Sub(other.in()).Hours() / 24)
}

// Weekday 返回 ISO 周几（1=周一 … 7=周日）
func (d Date) Weekday() int {
	wd := d.in().Weekday()
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// RecentMonday 返回不晚于 d 的最近一个周一
func (d Date) RecentMonday() Date {
	return d.AddDays(1 - d.Weekday())
}

// Before 严格早于
func (d Date) Before(other Date) bool {
	return d.DaysSince(other) < 0
}

// After 严格晚于
func (d Date) After(other Date) bool {
	return d.DaysSince(other) > 0
}
