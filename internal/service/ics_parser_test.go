package service

import (
	"testing"

	"github.com/NoBody217/WeClass/internal/model"
)

// ════════════════════════════════════════════════════════════
// 日历导入归一化器测试
// ════════════════════════════════════════════════════════════

// 带显式节次号的日历文本（触发策略 A）：
// 同一门课以两个事件出现，验证去重与周次拓宽
const testICSExplicitPeriods = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
SUMMARY:高等数学
LOCATION:A101 张三
DESCRIPTION:课程信息\n教学楼A101\n张三\n第1-2节
DTSTART;TZID=Asia/Shanghai:20240902T080000
DTEND;TZID=Asia/Shanghai:20240902T094000
END:VEVENT
BEGIN:VEVENT
SUMMARY:高等数学
LOCATION:A101 张三
DESCRIPTION:课程信息\n教学楼A101\n张三\n第1-2节
DTSTART;TZID=Asia/Shanghai:20241007T080000
DTEND;TZID=Asia/Shanghai:20241007T094000
END:VEVENT
BEGIN:VEVENT
SUMMARY:大学英语
DESCRIPTION:课程信息\n外语楼204\n李四\n第3节
DTSTART;TZID=Asia/Shanghai:20240903T100000
DTEND;TZID=Asia/Shanghai:20240903T104500
RRULE:FREQ=WEEKLY;UNTIL=20241217T000000Z
END:VEVENT
END:VCALENDAR`

// 无节次号、仅有时刻的日历文本（触发策略 B）
const testICSClockOnly = `BEGIN:VCALENDAR
BEGIN:VEVENT
SUMMARY:线性代数
LOCATION:B302
DTSTART;TZID=Asia/Shanghai:20240902T100500
DTEND;TZID=Asia/Shanghai:20240902T114500
END:VEVENT
END:VCALENDAR`

func TestParseICS_ExplicitPeriodsAndDedup(t *testing.T) {
	anchor := testAnchor(t)

	draft := ParseICS(testICSExplicitPeriods, model.DefaultPeriods(), anchor)

	if len(draft.Courses) != 2 {
		t.Fatalf("期望去重后 2 门课程, 实际 %d", len(draft.Courses))
	}

	math := draft.Courses[0]
	if math.Name != "高等数学" {
		t.Fatalf("首门课程期望高等数学, 实际 %s", math.Name)
	}
	if math.DayOfWeek != 1 {
		t.Errorf("高等数学 DayOfWeek 期望 1, 实际 %d", math.DayOfWeek)
	}
	if math.StartPeriod != 1 || math.EndPeriod != 2 {
		t.Errorf("高等数学节次期望 1-2, 实际 %d-%d", math.StartPeriod, math.EndPeriod)
	}
	if math.Room != "A101" || math.Teacher != "张三" {
		t.Errorf("高等数学地点/教师解析错误: %q / %q", math.Room, math.Teacher)
	}
	// 两个事件分别落在第 1 周与第 6 周，合并后区间为并集包络
	if math.StartWeek != 1 || math.EndWeek != 6 {
		t.Errorf("高等数学周次期望 1-6, 实际 %d-%d", math.StartWeek, math.EndWeek)
	}
	if math.Source != "ics" {
		t.Errorf("Source 期望 ics, 实际 %s", math.Source)
	}
	if math.CourseID == "" || math.Color == "" {
		t.Error("导入课程应生成标识与配色")
	}

	english := draft.Courses[1]
	if english.StartPeriod != 3 || english.EndPeriod != 3 {
		t.Errorf("大学英语节次期望 3-3, 实际 %d-%d", english.StartPeriod, english.EndPeriod)
	}
	// UNTIL=2024-12-17 落在第 16 周
	if english.StartWeek != 1 || english.EndWeek != 16 {
		t.Errorf("大学英语周次期望 1-16, 实际 %d-%d", english.StartWeek, english.EndWeek)
	}
	// DESCRIPTION 兜底：第 2 段为教室、第 3 段为教师
	if english.Room != "外语楼204" || english.Teacher != "李四" {
		t.Errorf("大学英语地点/教师兜底解析错误: %q / %q", english.Room, english.Teacher)
	}
}

func TestParseICS_RebuildPeriodsPreservesExisting(t *testing.T) {
	anchor := testAnchor(t)
	existing := model.DefaultPeriods()

	draft := ParseICS(testICSExplicitPeriods, existing, anchor)

	if draft.NewPeriods == nil {
		t.Fatal("含显式节次号的输入应重建节次表")
	}
	if len(draft.NewPeriods) != len(existing) {
		t.Fatalf("节次表长度期望保持 %d, 实际 %d", len(existing), len(draft.NewPeriods))
	}
	// 事件覆写第 1、2、3 节的对应时刻
	if draft.NewPeriods[0].StartTime != "08:00" {
		t.Errorf("第 1 节起始期望 08:00, 实际 %s", draft.NewPeriods[0].StartTime)
	}
	if draft.NewPeriods[1].EndTime != "09:40" {
		t.Errorf("第 2 节结束期望 09:40, 实际 %s", draft.NewPeriods[1].EndTime)
	}
	if draft.NewPeriods[2].StartTime != "10:00" {
		t.Errorf("第 3 节起始期望 10:00, 实际 %s", draft.NewPeriods[2].StartTime)
	}
	// 未被覆写的后段节次保留既有时刻
	if draft.NewPeriods[11] != existing[11] {
		t.Errorf("第 12 节应保留既有时刻, 实际 %+v", draft.NewPeriods[11])
	}
}

func TestParseICS_RebuildPeriodsGapFill(t *testing.T) {
	anchor := testAnchor(t)

	// 既有节次表为空：缺口从上一节结束时间接续，首节兜底 08:00
	input := `BEGIN:VCALENDAR
BEGIN:VEVENT
SUMMARY:晚间研讨
DESCRIPTION:课程信息\n\n\n第4节
DTSTART;TZID=Asia/Shanghai:20240902T190000
DTEND;TZID=Asia/Shanghai:20240902T194500
END:VEVENT
END:VCALENDAR`

	draft := ParseICS(input, nil, anchor)
	if draft.NewPeriods == nil || len(draft.NewPeriods) != 4 {
		t.Fatalf("期望重建 4 节, 实际 %v", draft.NewPeriods)
	}

	p := draft.NewPeriods
	if p[0].StartTime != "08:00" || p[0].EndTime != "08:45" {
		t.Errorf("第 1 节期望 08:00-08:45, 实际 %s-%s", p[0].StartTime, p[0].EndTime)
	}
	// 缺口链式接续
	for i := 1; i < 3; i++ {
		if p[i].StartTime != p[i-1].EndTime {
			t.Errorf("第 %d 节起始应接续上一节结束: %s vs %s", i+1, p[i].StartTime, p[i-1].EndTime)
		}
	}
	if p[3].StartTime != "19:00" || p[3].EndTime != "19:45" {
		t.Errorf("第 4 节期望 19:00-19:45, 实际 %s-%s", p[3].StartTime, p[3].EndTime)
	}
	// 不变式：每一节起止俱全
	for i, pt := range p {
		if pt.StartTime == "" || pt.EndTime == "" {
			t.Errorf("第 %d 节存在空时刻: %+v", i+1, pt)
		}
	}
}

func TestParseICS_NearestPeriodMatch(t *testing.T) {
	anchor := testAnchor(t)

	draft := ParseICS(testICSClockOnly, model.DefaultPeriods(), anchor)

	if draft.NewPeriods != nil {
		t.Fatal("无显式节次号的输入不应重建节次表")
	}
	if len(draft.Courses) != 1 {
		t.Fatalf("期望 1 门课程, 实际 %d", len(draft.Courses))
	}

	c := draft.Courses[0]
	// 10:05 最接近第 3 节起始 10:00；11:45 最接近第 4 节结束 11:40
	if c.StartPeriod != 3 || c.EndPeriod != 4 {
		t.Errorf("节次期望 3-4, 实际 %d-%d", c.StartPeriod, c.EndPeriod)
	}
	if c.Room != "B302" {
		t.Errorf("教室期望 B302, 实际 %s", c.Room)
	}
}

func TestParseICS_SoftWrappedLines(t *testing.T) {
	anchor := testAnchor(t)

	// SUMMARY 被软换行折断：续行以空白开头
	input := "BEGIN:VCALENDAR\nBEGIN:VEVENT\nSUMMARY:数据结\n 构\n" +
		"DESCRIPTION:课程信息\\n\\n\\n第1节\n" +
		"DTSTART;TZID=Asia/Shanghai:20240902T080000\n" +
		"DTEND;TZID=Asia/Shanghai:20240902T084500\nEND:VEVENT\nEND:VCALENDAR"

	draft := ParseICS(input, nil, anchor)
	if len(draft.Courses) != 1 {
		t.Fatalf("期望 1 门课程, 实际 %d", len(draft.Courses))
	}
	if draft.Courses[0].Name != "数据结构" {
		t.Errorf("软换行展开后名称期望 数据结构, 实际 %s", draft.Courses[0].Name)
	}
}

func TestParseICS_DiscardsBadBlocks(t *testing.T) {
	anchor := testAnchor(t)

	// 第 1 块缺 SUMMARY，第 2 块缺 DTSTART，第 3 块完整
	input := `BEGIN:VCALENDAR
BEGIN:VEVENT
DESCRIPTION:课程信息\n\n\n第1节
DTSTART;TZID=Asia/Shanghai:20240902T080000
END:VEVENT
BEGIN:VEVENT
SUMMARY:没有日期的课
DESCRIPTION:课程信息\n\n\n第2节
END:VEVENT
BEGIN:VEVENT
SUMMARY:正常的课
DESCRIPTION:课程信息\n\n\n第5节
DTSTART;TZID=Asia/Shanghai:20240904T143000
DTEND;TZID=Asia/Shanghai:20240904T151500
END:VEVENT
END:VCALENDAR`

	draft := ParseICS(input, model.DefaultPeriods(), anchor)
	if len(draft.Courses) != 1 {
		t.Fatalf("坏块应被丢弃, 期望 1 门课程, 实际 %d", len(draft.Courses))
	}
	if draft.Courses[0].Name != "正常的课" {
		t.Errorf("幸存课程期望 正常的课, 实际 %s", draft.Courses[0].Name)
	}
}

func TestParseICS_NeverErrors(t *testing.T) {
	anchor := testAnchor(t)

	for _, input := range []string{
		"",
		"完全不是日历的内容",
		"BEGIN:VEVENT\nSUMMARY:残缺块没有结束",
	} {
		draft := ParseICS(input, model.DefaultPeriods(), anchor)
		if len(draft.Courses) != 0 {
			t.Errorf("畸形输入 %q 期望 0 门课程, 实际 %d", input, len(draft.Courses))
		}
	}
}

func TestParseICS_ImportWeekClampedBeforeAnchor(t *testing.T) {
	anchor := testAnchor(t)

	// 事件日期在锚点之前：周次钳制为 1
	input := `BEGIN:VCALENDAR
BEGIN:VEVENT
SUMMARY:提前开始的课
DESCRIPTION:课程信息\n\n\n第1节
DTSTART;TZID=Asia/Shanghai:20240826T080000
DTEND;TZID=Asia/Shanghai:20240826T084500
END:VEVENT
END:VCALENDAR`

	draft := ParseICS(input, model.DefaultPeriods(), anchor)
	if len(draft.Courses) != 1 {
		t.Fatalf("期望 1 门课程, 实际 %d", len(draft.Courses))
	}
	if draft.Courses[0].StartWeek != 1 || draft.Courses[0].EndWeek != 1 {
		t.Errorf("锚点前事件周次期望钳制为 1-1, 实际 %d-%d",
			draft.Courses[0].StartWeek, draft.Courses[0].EndWeek)
	}
}

func TestMergeBlocks_Idempotent(t *testing.T) {
	// 键互不相同的块集合：合并不应产生任何折叠
	blocks := []icsEventBlock{
		{name: "高等数学", dayOfWeek: 1, startPeriod: 1, endPeriod: 2, startWeek: 1, endWeek: 16},
		{name: "大学英语", dayOfWeek: 1, startPeriod: 1, endPeriod: 2, startWeek: 1, endWeek: 16},
		{name: "高等数学", dayOfWeek: 2, startPeriod: 1, endPeriod: 2, startWeek: 1, endWeek: 16},
		{name: "高等数学", dayOfWeek: 1, startPeriod: 3, endPeriod: 4, startWeek: 1, endWeek: 16},
	}

	first := mergeBlocks(blocks)
	if len(first) != len(blocks) {
		t.Fatalf("互异键合并期望 %d 门课程, 实际 %d", len(blocks), len(first))
	}

	// 已去重集合再次合并：集合不再收缩，键与周次区间保持不变
	again := make([]icsEventBlock, 0, len(first))
	for _, c := range first {
		again = append(again, icsEventBlock{
			name:        c.Name,
			dayOfWeek:   c.DayOfWeek,
			startPeriod: c.StartPeriod,
			endPeriod:   c.EndPeriod,
			startWeek:   c.StartWeek,
			endWeek:     c.EndWeek,
		})
	}
	second := mergeBlocks(again)
	if len(second) != len(first) {
		t.Fatalf("已去重集合再合并期望 %d 门课程, 实际 %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Name != b.Name || a.DayOfWeek != b.DayOfWeek ||
			a.StartPeriod != b.StartPeriod || a.EndPeriod != b.EndPeriod ||
			a.StartWeek != b.StartWeek || a.EndWeek != b.EndWeek {
			t.Errorf("第 %d 门课程再合并后发生变化: %+v vs %+v", i, a, b)
		}
	}
}
