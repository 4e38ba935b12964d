package service

import (
	"reflect"
	"testing"

	"github.com/NoBody217/WeClass/internal/dto"
	"github.com/NoBody217/WeClass/internal/model"
	"github.com/NoBody217/WeClass/pkg/civil"
)

// 测试锚点：2024-09-02 是周一
func testAnchor(t *testing.T) civil.Date {
	t.Helper()
	d, err := civil.ParseDate("2024-09-02")
	if err != nil {
		t.Fatalf("解析锚点失败: %v", err)
	}
	return d
}

func mkCourse(id, owner string, day, startP, endP, startW, endW int, weekType string) model.Course {
	return model.Course{
		CourseID:    id,
		OwnerSlot:   owner,
		Name:        "课程" + id,
		DayOfWeek:   day,
		StartPeriod: startP,
		EndPeriod:   endP,
		StartWeek:   startW,
		EndWeek:     endW,
		WeekType:    weekType,
	}
}

// ════════════════════════════════════════════════════════════
// 周次推算
// ════════════════════════════════════════════════════════════

func TestWeekNumber(t *testing.T) {
	anchor := testAnchor(t)

	cases := []struct {
		date string
		want int
	}{
		{"2024-08-30", 0},  // 开学前
		{"2024-09-01", 0},  // 锚点前一天
		{"2024-09-02", 1},  // 锚点当天
		{"2024-09-08", 1},  // 第 1 周周日
		{"2024-09-09", 2},  // 第 2 周周一
		{"2024-09-18", 3},  // 第 3 周周三
		{"2024-12-16", 16}, // 第 16 周周一
	}
	for _, tc := range cases {
		d, _ := civil.ParseDate(tc.date)
		if got := WeekNumber(anchor, d); got != tc.want {
			t.Errorf("%s 周次期望 %d, 实际 %d", tc.date, tc.want, got)
		}
	}
}

func TestImportWeekNumber_ClampsToOne(t *testing.T) {
	anchor := testAnchor(t)
	before, _ := civil.ParseDate("2024-08-01")

	if got := ImportWeekNumber(anchor, before); got != 1 {
		t.Errorf("锚点前导入周次期望钳制为 1, 实际 %d", got)
	}
	after, _ := civil.ParseDate("2024-09-09")
	if got := ImportWeekNumber(anchor, after); got != 2 {
		t.Errorf("锚点后导入周次期望 2, 实际 %d", got)
	}
}

func TestDateOfWeekday(t *testing.T) {
	anchor := testAnchor(t)

	if got := DateOfWeekday(anchor, 1, 1).String(); got != "2024-09-02" {
		t.Errorf("第 1 周周一期望 2024-09-02, 实际 %s", got)
	}
	if got := DateOfWeekday(anchor, 3, 3).String(); got != "2024-09-18" {
		t.Errorf("第 3 周周三期望 2024-09-18, 实际 %s", got)
	}
	if got := DateOfWeekday(anchor, 2, 7).String(); got != "2024-09-15" {
		t.Errorf("第 2 周周日期望 2024-09-15, 实际 %s", got)
	}

	dates := DatesOfWeek(anchor, 2)
	if dates[0].String() != "2024-09-09" || dates[6].String() != "2024-09-15" {
		t.Errorf("第 2 周日期列错误: %v ~ %v", dates[0], dates[6])
	}
}

// ════════════════════════════════════════════════════════════
// 周次激活判定
// ════════════════════════════════════════════════════════════

func TestIsCourseActive(t *testing.T) {
	c := mkCourse("a", model.OwnerUser1, 1, 1, 2, 2, 10, model.WeekTypeOdd)

	cases := []struct {
		week int
		want bool
	}{
		{1, false},  // 区间前
		{2, false},  // 区间内但双周
		{3, true},   // 区间内单周
		{10, false}, // 第 10 周为双周
		{11, false}, // 区间后
	}
	for _, tc := range cases {
		if got := IsCourseActive(&c, tc.week); got != tc.want {
			t.Errorf("第 %d 周激活期望 %v, 实际 %v", tc.week, tc.want, got)
		}
	}

	even := mkCourse("b", model.OwnerUser1, 1, 1, 2, 1, 10, model.WeekTypeEven)
	if IsCourseActive(&even, 3) {
		t.Error("双周课在单周不应激活")
	}
	if !IsCourseActive(&even, 4) {
		t.Error("双周课在双周应激活")
	}

	all := mkCourse("c", model.OwnerUser1, 1, 1, 2, 1, 10, model.WeekTypeAll)
	for wk := 1; wk <= 10; wk++ {
		if !IsCourseActive(&all, wk) {
			t.Errorf("全周课第 %d 周应激活", wk)
		}
	}
}

// ════════════════════════════════════════════════════════════
// 单日布局
// ════════════════════════════════════════════════════════════

func TestLayoutDay_ViewFilter(t *testing.T) {
	anchor := testAnchor(t)
	date := DateOfWeekday(anchor, 1, 1)
	courses := []model.Course{
		mkCourse("a", model.OwnerUser1, 1, 1, 2, 1, 16, model.WeekTypeAll),
		mkCourse("b", model.OwnerUser2, 1, 3, 4, 1, 16, model.WeekTypeAll),
	}

	mine := LayoutDay(courses, 1, ViewModeMine, date)
	if len(mine) != 1 || mine[0].Course.CourseID != "a" {
		t.Fatalf("mine 视图期望仅 user1 课程, 实际 %d 条", len(mine))
	}

	theirs := LayoutDay(courses, 1, ViewModeTheirs, date)
	if len(theirs) != 1 || theirs[0].Course.CourseID != "b" {
		t.Fatalf("theirs 视图期望仅 user2 课程, 实际 %d 条", len(theirs))
	}

	couple := LayoutDay(courses, 1, ViewModeCouple, date)
	if len(couple) != 2 {
		t.Fatalf("couple 视图期望 2 条, 实际 %d 条", len(couple))
	}
}

func TestLayoutDay_CoupleSideBySide(t *testing.T) {
	anchor := testAnchor(t)
	date := DateOfWeekday(anchor, 1, 1)
	courses := []model.Course{
		mkCourse("a", model.OwnerUser1, 1, 1, 2, 1, 16, model.WeekTypeAll),
		mkCourse("b", model.OwnerUser2, 1, 2, 3, 1, 16, model.WeekTypeAll),
	}

	out := LayoutDay(courses, 1, ViewModeCouple, date)
	if len(out) != 2 {
		t.Fatalf("期望 2 条指令, 实际 %d", len(out))
	}
	for _, ins := range out {
		if ins.SlotCount != 2 {
			t.Errorf("课程 %s SlotCount 期望 2, 实际 %d", ins.Course.CourseID, ins.SlotCount)
		}
		wantIdx := 0
		if ins.Course.OwnerSlot == model.OwnerUser2 {
			wantIdx = 1
		}
		if ins.SlotIndex != wantIdx {
			t.Errorf("课程 %s SlotIndex 期望 %d, 实际 %d", ins.Course.CourseID, wantIdx, ins.SlotIndex)
		}
		if ins.HasConflict {
			t.Errorf("couple 视图不应标记冲突")
		}
	}
}

func TestLayoutDay_CoupleNoOverlapFullWidth(t *testing.T) {
	anchor := testAnchor(t)
	date := DateOfWeekday(anchor, 1, 1)
	courses := []model.Course{
		mkCourse("a", model.OwnerUser1, 1, 1, 2, 1, 16, model.WeekTypeAll),
		mkCourse("b", model.OwnerUser2, 1, 5, 6, 1, 16, model.WeekTypeAll),
	}

	out := LayoutDay(courses, 1, ViewModeCouple, date)
	for _, ins := range out {
		if ins.SlotCount != 1 || ins.SlotIndex != 0 {
			t.Errorf("无重叠课程 %s 期望整宽单列, 实际 %d/%d",
				ins.Course.CourseID, ins.SlotIndex, ins.SlotCount)
		}
	}
}

func TestLayoutDay_SingleModeConflict(t *testing.T) {
	anchor := testAnchor(t)
	date := DateOfWeekday(anchor, 1, 1)
	// 同槽位两门激活课挤在同一时段：更长者幸存并标记冲突
	courses := []model.Course{
		mkCourse("a", model.OwnerUser1, 1, 1, 3, 1, 16, model.WeekTypeAll),
		mkCourse("b", model.OwnerUser1, 1, 2, 2, 1, 16, model.WeekTypeAll),
	}

	out := LayoutDay(courses, 1, ViewModeMine, date)
	if len(out) != 1 {
		t.Fatalf("期望压制后仅 1 条指令, 实际 %d", len(out))
	}
	if out[0].Course.CourseID != "a" {
		t.Errorf("期望跨度更长的 a 幸存, 实际 %s", out[0].Course.CourseID)
	}
	if !out[0].HasConflict {
		t.Error("幸存者应标记时间冲突")
	}
}

func TestLayoutDay_SuppressionPriority(t *testing.T) {
	anchor := testAnchor(t)
	date := DateOfWeekday(anchor, 3, 1) // 第 3 周（单周）

	// 激活课压过单双周错位课
	courses := []model.Course{
		mkCourse("odd", model.OwnerUser1, 1, 1, 2, 1, 16, model.WeekTypeOdd),
		mkCourse("even", model.OwnerUser1, 1, 1, 2, 1, 16, model.WeekTypeEven),
	}
	out := LayoutDay(courses, 3, ViewModeMine, date)
	if len(out) != 1 || out[0].Course.CourseID != "odd" {
		t.Fatalf("第 3 周期望单周课幸存, 实际 %v", ids(out))
	}
	if !out[0].IsActive {
		t.Error("幸存的单周课应为激活态")
	}

	// 分值、跨度全同时按标识字典序取小
	tie := []model.Course{
		mkCourse("b", model.OwnerUser1, 1, 1, 2, 1, 16, model.WeekTypeAll),
		mkCourse("a", model.OwnerUser1, 1, 1, 2, 1, 16, model.WeekTypeAll),
	}
	out = LayoutDay(tie, 1, ViewModeMine, date)
	if len(out) != 1 || out[0].Course.CourseID != "a" {
		t.Fatalf("平手期望标识较小的 a 幸存, 实际 %v", ids(out))
	}
}

func TestLayoutDay_ElapsedAndUpcoming(t *testing.T) {
	anchor := testAnchor(t)
	courses := []model.Course{
		mkCourse("done", model.OwnerUser1, 1, 1, 2, 1, 4, model.WeekTypeAll),
		mkCourse("future", model.OwnerUser1, 1, 5, 6, 10, 16, model.WeekTypeAll),
	}

	date := DateOfWeekday(anchor, 6, 1)
	out := LayoutDay(courses, 6, ViewModeMine, date)

	// 已彻底结束的课程消失；未开始的课程置灰保留
	if len(out) != 1 {
		t.Fatalf("期望 1 条指令, 实际 %d: %v", len(out), ids(out))
	}
	if out[0].Course.CourseID != "future" {
		t.Errorf("期望 future 保留, 实际 %s", out[0].Course.CourseID)
	}
	if out[0].IsActive {
		t.Error("未开始课程应为非激活态")
	}
}

func TestLayoutDay_Temporary(t *testing.T) {
	anchor := testAnchor(t)
	date := DateOfWeekday(anchor, 2, 3) // 2024-09-11 周三
	dateStr := date.String()

	temp := mkCourse("tmp", model.OwnerUser1, 3, 1, 2, 1, 1, model.WeekTypeAll)
	temp.IsTemporary = true
	temp.Date = &dateStr

	// 日期吻合：绘制且激活
	out := LayoutDay([]model.Course{temp}, 2, ViewModeMine, date)
	if len(out) != 1 || !out[0].IsActive {
		t.Fatalf("临时日程在指定日期应激活绘制, 实际 %d 条", len(out))
	}

	// 下一周同星期：不绘制
	nextDate := DateOfWeekday(anchor, 3, 3)
	out = LayoutDay([]model.Course{temp}, 3, ViewModeMine, nextDate)
	if len(out) != 0 {
		t.Fatalf("临时日程在其他日期不应绘制, 实际 %d 条", len(out))
	}
}

func TestLayoutDay_DeterministicUnderPermutation(t *testing.T) {
	anchor := testAnchor(t)
	date := DateOfWeekday(anchor, 3, 1)
	courses := []model.Course{
		mkCourse("a", model.OwnerUser1, 1, 1, 3, 1, 16, model.WeekTypeAll),
		mkCourse("b", model.OwnerUser1, 1, 2, 2, 1, 16, model.WeekTypeOdd),
		mkCourse("c", model.OwnerUser2, 1, 1, 2, 1, 16, model.WeekTypeAll),
		mkCourse("d", model.OwnerUser2, 1, 4, 5, 2, 8, model.WeekTypeEven),
	}

	base := LayoutDay(courses, 3, ViewModeCouple, date)

	perms := [][]int{
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	for _, p := range perms {
		shuffled := make([]model.Course, len(courses))
		for i, j := range p {
			shuffled[i] = courses[j]
		}
		got := LayoutDay(shuffled, 3, ViewModeCouple, date)
		if !reflect.DeepEqual(base, got) {
			t.Fatalf("输入排列 %v 改变了输出:\n基准 %v\n实际 %v", p, ids(base), ids(got))
		}
	}
}

func TestLayoutDay_EmptyInput(t *testing.T) {
	anchor := testAnchor(t)
	out := LayoutDay(nil, 1, ViewModeCouple, DateOfWeekday(anchor, 1, 1))
	if len(out) != 0 {
		t.Errorf("空输入期望空输出, 实际 %d 条", len(out))
	}
}

func ids(out []dto.RenderInstruction) []string {
	result := make([]string, 0, len(out))
	for _, ins := range out {
		result = append(result, ins.Course.CourseID)
	}
	return result
}
