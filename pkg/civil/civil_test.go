package civil

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-09-02")
	if err != nil {
		t.Fatalf("ParseDate 失败: %v", err)
	}
	if d.Year != 2024 || d.Month != time.September || d.Day != 2 {
		t.Errorf("期望 2024-09-02, 实际 %v", d)
	}
	if d.String() != "2024-09-02" {
		t.Errorf("String 期望 2024-09-02, 实际 %s", d.String())
	}

	if _, err := ParseDate("2024/09/02"); err == nil {
		t.Error("非法格式期望报错")
	}
	if _, err := ParseDate("2024-02-30"); err == nil {
		t.Error("不存在的日期期望报错")
	}
}

func TestWeekday_ISO(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"2024-09-02", 1}, // 周一
		{"2024-09-04", 3}, // 周三
		{"2024-09-07", 6}, // 周六
		{"2024-09-08", 7}, // 周日
	}
	for _, tc := range cases {
		d, _ := ParseDate(tc.date)
		if got := d.Weekday(); got != tc.want {
			t.Errorf("%s Weekday 期望 %d, 实际 %d", tc.date, tc.want, got)
		}
	}
}

func TestAddDaysAndDaysSince(t *testing.T) {
	d, _ := ParseDate("2024-09-02")

	if got := d.AddDays(16).String(); got != "2024-09-18" {
		t.Errorf("AddDays(16) 期望 2024-09-18, 实际 %s", got)
	}
	if got := d.AddDays(-1).String(); got != "2024-09-01" {
		t.Errorf("AddDays(-1) 期望 2024-09-01, 实际 %s", got)
	}

	// 跨月、跨年
	if got := d.AddDays(120).String(); got != "2024-12-31" {
		t.Errorf("AddDays(120) 期望 2024-12-31, 实际 %s", got)
	}

	other, _ := ParseDate("2024-12-31")
	if got := other.DaysSince(d); got != 120 {
		t.Errorf("DaysSince 期望 120, 实际 %d", got)
	}
	if got := d.DaysSince(other); got != -120 {
		t.Errorf("反向 DaysSince 期望 -120, 实际 %d", got)
	}
	if got := d.DaysSince(d); got != 0 {
		t.Errorf("同日 DaysSince 期望 0, 实际 %d", got)
	}
}

func TestRecentMonday(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2024-09-02", "2024-09-02"}, // 周一自身
		{"2024-09-05", "2024-09-02"}, // 周四
		{"2024-09-08", "2024-09-02"}, // 周日
		{"2024-09-09", "2024-09-09"}, // 下一个周一
	}
	for _, tc := range cases {
		d, _ := ParseDate(tc.date)
		if got := d.RecentMonday().String(); got != tc.want {
			t.Errorf("%s RecentMonday 期望 %s, 实际 %s", tc.date, tc.want, got)
		}
	}
}

func TestBeforeAfter(t *testing.T) {
	a, _ := ParseDate("2024-09-02")
	b, _ := ParseDate("2024-09-03")

	if !a.Before(b) || b.Before(a) {
		t.Error("Before 判定错误")
	}
	if !b.After(a) || a.After(b) {
		t.Error("After 判定错误")
	}
	if a.Before(a) || a.After(a) {
		t.Error("同日不应 Before/After")
	}
}

func TestIsZero(t *testing.T) {
	var zero Date
	if !zero.IsZero() {
		t.Error("零值日期 IsZero 期望 true")
	}
	d, _ := ParseDate("2024-09-02")
	if d.IsZero() {
		t.Error("非零日期 IsZero 期望 false")
	}
}
