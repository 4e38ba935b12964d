package service

import (
	"sort"

	"github.com/NoBody217/WeClass/internal/dto"
	"github.com/NoBody217/WeClass/internal/model"
	"github.com/NoBody217/WeClass/pkg/civil"
)

// ── 课表布局解析器 ──────────────────────────────────────────
//
// 职责：对"某一天 × 某一周 × 某一视图"决定哪些课程块被绘制、
// 占几列中的第几列、是否置灰、是否标记时间冲突。
//
// 设计决策：
//   - 全部为纯函数：相同输入必得相同输出，不依赖遍历顺序或全局状态
//   - 重叠判定基于节次区间相交，与课程当前是否激活无关
//   - 同一重叠簇内的取舍由显式比较器 betterCandidate 决定（全序）
//   - 双人视图按归属槽位左右分列；单人视图永不分列，真冲突标红
// ─────────────────────────────────────────────────────────────

// ViewMode 课表视图
type ViewMode string

const (
	ViewModeMine   ViewMode = "mine"   // 仅 user1
	ViewModeTheirs ViewMode = "theirs" // 仅 user2
	ViewModeCouple ViewMode = "couple" // 双人并排
)

// Valid 是否为已知视图
func (m ViewMode) Valid() bool {
	return m == ViewModeMine || m == ViewModeTheirs || m == ViewModeCouple
}

// ── 周次推算 ──

// WeekNumber 计算目标日期相对锚点（第 1 周周一）的周次。
// 锚点之前返回 0（未开学），之后恒为 1-based。
func WeekNumber(anchor, target civil.Date) int {
	days := target.DaysSince(anchor)
	if days < 0 {
		return 0
	}
	wk := days/7 + 1
	if wk < 1 {
		wk = 1
	}
	return wk
}

// ImportWeekNumber 导入场景的周次：锚点之前也钳制为 1，
// 避免产生 0 周或负周的非法周次区间。
func ImportWeekNumber(anchor, target civil.Date) int {
	wk := WeekNumber(anchor, target)
	if wk < 1 {
		return 1
	}
	return wk
}

// DateOfWeekday 返回第 week 周的周 day（1-7）对应的日历日期
func DateOfWeekday(anchor civil.Date, week, day int) civil.Date {
	return anchor.AddDays((week-1)*7 + (day - 1))
}

// DatesOfWeek 返回第 week 周的 7 个日期列
func DatesOfWeek(anchor civil.Date, week int) [7]civil.Date {
	var dates [7]civil.Date
	for i := 0; i < 7; i++ {
		dates[i] = DateOfWeekday(anchor, week, i+1)
	}
	return dates
}

// ── 周次激活判定 ──

// IsCourseActive 判断常规课程在指定周是否激活：
// 周次须落在 [StartWeek, EndWeek] 内，且满足单双周约束。
func IsCourseActive(c *model.Course, week int) bool {
	if week < c.StartWeek || week > c.EndWeek {
		return false
	}
	if c.WeekType == model.WeekTypeOdd && week%2 == 0 {
		return false
	}
	if c.WeekType == model.WeekTypeEven && week%2 != 0 {
		return false
	}
	return true
}

// activeOn 课程在"第 week 周的 date 这一天"是否激活：
// 临时日程只看日期是否吻合，常规课程走周次判定。
func activeOn(c *model.Course, week int, date civil.Date) bool {
	if c.IsTemporary {
		return c.Date != nil && *c.Date == date.String()
	}
	return IsCourseActive(c, week)
}

// overlaps 节次区间相交判定（与激活状态无关）
func overlaps(a, b *model.Course) bool {
	return !(a.EndPeriod < b.StartPeriod || a.StartPeriod > b.EndPeriod)
}

// ── 候选取舍比较器 ──

// 非激活且非"尚未开始"（如单双周错位）的扁平罚分。
// 只需劣于激活(0)并可与"还差 N 周开始"区分即可。
const scoreWrongParity = 1

// candidateScore 课程相对当前查看周的优先级分值，越小越优先：
//   - 0: 本周激活
//   - n>0: 还差 n 周开始
//   - scoreWrongParity: 在周次区间内但单双周错位
func candidateScore(c *model.Course, week int, date civil.Date) int {
	if activeOn(c, week, date) {
		return 0
	}
	if week < c.StartWeek {
		return c.StartWeek - week
	}
	return scoreWrongParity
}

// betterCandidate 判断 o 是否严格优于 c（同一重叠簇内 o 将压制 c）。
// 比较链：分值 → 节次跨度（长者优）→ 标识字典序（小者优）。
// 该比较链构成全序，保证同簇恰有一个幸存者且与输入顺序无关。
func betterCandidate(o, c *model.Course, week int, date civil.Date) bool {
	oScore := candidateScore(o, week, date)
	cScore := candidateScore(c, week, date)
	if oScore != cScore {
		return oScore < cScore
	}
	oSpan := o.EndPeriod - o.StartPeriod
	cSpan := c.EndPeriod - c.StartPeriod
	if oSpan != cSpan {
		return oSpan > cSpan
	}
	return o.CourseID < c.CourseID
}

// ── 单日布局 ──

// LayoutDay 对某一天的课程集合做布局解析。
//
// courses 应为该日期列的候选：常规课程取 DayOfWeek 匹配者，
// 临时日程取 Date 匹配者（由调用方筛选）。任何输入组合都产出
// 一个确定的（可能为空的）指令列表，永不失败。
func LayoutDay(courses []model.Course, week int, mode ViewMode, date civil.Date) []dto.RenderInstruction {
	// 1. 视图过滤
	var pool []model.Course
	for _, c := range courses {
		switch mode {
		case ViewModeMine:
			if c.OwnerSlot != model.OwnerUser1 {
				continue
			}
		case ViewModeTheirs:
			if c.OwnerSlot != model.OwnerUser2 {
				continue
			}
		}
		pool = append(pool, c)
	}

	// 2. 淘汰规则：未激活且已彻底结束的课程直接消失；
	//    临时日程只在其指定日期存在。
	var candidates []*model.Course
	for i := range pool {
		c := &pool[i]
		active := activeOn(c, week, date)
		if !active {
			if c.IsTemporary {
				continue
			}
			if week > c.EndWeek {
				continue
			}
		}
		candidates = append(candidates, c)
	}

	// 3. 压制：同簇中被更优候选覆盖的不绘制。
	//    双人视图只在同归属槽位内压制；单人视图在整个重叠集内压制
	//    （视图已按归属过滤，该差异按原始行为保留）。
	survivors := make([]*model.Course, 0, len(candidates))
	suppressed := make(map[string]bool)
	for _, c := range candidates {
		for _, o := range candidates {
			if o == c {
				continue
			}
			if mode == ViewModeCouple && o.OwnerSlot != c.OwnerSlot {
				continue
			}
			if !overlaps(o, c) {
				continue
			}
			if betterCandidate(o, c, week, date) {
				suppressed[c.CourseID+"/"+c.OwnerSlot] = true
				break
			}
		}
	}
	for _, c := range candidates {
		if !suppressed[c.CourseID+"/"+c.OwnerSlot] {
			survivors = append(survivors, c)
		}
	}

	// 4. 生成指令
	instructions := make([]dto.RenderInstruction, 0, len(survivors))
	for _, c := range survivors {
		active := activeOn(c, week, date)
		ins := dto.RenderInstruction{
			Course:      *c,
			StartPeriod: c.StartPeriod,
			EndPeriod:   c.EndPeriod,
			SlotIndex:   0,
			SlotCount:   1,
			IsActive:    active,
		}

		if mode == ViewModeCouple {
			// 与对方幸存课程重叠时左右分列：user1 左，user2 右
			for _, o := range survivors {
				if o.OwnerSlot != c.OwnerSlot && overlaps(o, c) {
					ins.SlotCount = 2
					if c.OwnerSlot == model.OwnerUser2 {
						ins.SlotIndex = 1
					}
					break
				}
			}
		} else if active {
			// 单人视图的真冲突：两门同时激活的课挤在同一时段。
			// 与被压制者的冲突同样成立，故在候选集而非幸存者中检测。
			for _, o := range candidates {
				if o == c {
					continue
				}
				if overlaps(o, c) && activeOn(o, week, date) {
					ins.HasConflict = true
					break
				}
			}
		}

		instructions = append(instructions, ins)
	}

	// 5. 输出顺序固定，与输入排列无关
	sort.Slice(instructions, func(i, j int) bool {
		a, b := &instructions[i], &instructions[j]
		if a.StartPeriod != b.StartPeriod {
			return a.StartPeriod < b.StartPeriod
		}
		if a.Course.OwnerSlot != b.Course.OwnerSlot {
			return a.Course.OwnerSlot < b.Course.OwnerSlot
		}
		return a.Course.CourseID < b.Course.CourseID
	})

	return instructions
}
