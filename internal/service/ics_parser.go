package service

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/NoBody217/WeClass/internal/model"
	"github.com/NoBody217/WeClass/pkg/civil"
)

// ── 日历导入归一化器 ────────────────────────────────────────
//
// 职责：将教务系统导出的日历文本解析为课程草稿，并重建/匹配节次
// 时间表，把按日散列的重复事件折叠为带周次区间的课程记录。
//
// 设计决策：
//   - 自有行级文法：BEGIN/END 事件块 + 冒号属性行 + 前导空白续行。
//     不走通用 iCalendar 解析库 —— 库遇到畸形输入整体报错，而这里
//     要求坏块只丢弃自身、不拖垮整次导入；节次推断也依赖
//     DESCRIPTION 的原始"第N节"文本。
//   - 节次表两种互斥策略：任一块给出显式节次号则重建节次表（策略A），
//     否则按时刻就近匹配既有节次表（策略B）。
//   - 去重键为 (名称, 星期, 起节, 止节)，后续同键块仅拓宽周次区间。
//   - 对局部损坏的输入永不报错，最坏情况返回零门课程。
// ─────────────────────────────────────────────────────────────

// DraftImport 归一化结果
type DraftImport struct {
	Courses []model.Course
	// NewPeriods 仅当策略 A 生效（输入含显式节次号）时非 nil
	NewPeriods model.PeriodTimes
}

// 导入课程的固定配色盘
var importPalette = []string{
	"#BDE0FE", "#FFC8DD", "#CDB4DB", "#A2D2FF", "#FFAFCC", "#FFFFB7", "#E2F0CB",
	"#FFD6A5", "#FDFFB6", "#CAFFBF", "#9BF6FF", "#A0C4FF", "#BDB2FF", "#FFC6FF",
}

var (
	foldRe   = regexp.MustCompile(`\r?\n[ \t]`)
	lineRe   = regexp.MustCompile(`\r?\n`)
	periodRe = regexp.MustCompile(`第\s*(\d+)\s*(?:-\s*(\d+))?\s*节`)
	clockRe  = regexp.MustCompile(`T(\d{2})(\d{2})`)
	dateRe   = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)
	untilRe  = regexp.MustCompile(`UNTIL=(\d{4})(\d{2})(\d{2})`)
)

// icsEventBlock 单个事件块的解析中间结构
type icsEventBlock struct {
	name    string
	room    string
	teacher string

	startPeriod int // 0 = 未定
	endPeriod   int

	startTime string // HH:MM，"" = 未出现
	endTime   string

	dayOfWeek    int
	startDate    civil.Date
	hasStartDate bool
	untilDate    civil.Date
	hasUntil     bool

	startWeek int
	endWeek   int
}

// ParseICS 将原始日历文本归一化为课程草稿。
//
// existing 为当前节次表（策略 B 的匹配基准，策略 A 的保留基准），
// anchor 为第 1 周周一。对畸形输入不报错：坏块被忽略，
// 可能返回零门课程，由调用方区分"没解析出内容"与硬性读取失败。
func ParseICS(raw string, existing model.PeriodTimes, anchor civil.Date) DraftImport {
	// 续行展开：以空格/制表符开头的行并回上一逻辑行
	unfolded := foldRe.ReplaceAllString(raw, "")
	lines := lineRe.Split(unfolded, -1)

	var blocks []icsEventBlock
	var cur *icsEventBlock
	maxPeriod := 0

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "BEGIN:VEVENT"):
			cur = &icsEventBlock{}

		case strings.HasPrefix(line, "END:VEVENT"):
			if cur != nil && cur.name != "" && cur.hasStartDate {
				// 起始周取事件日期相对锚点的周次（导入场景钳制为 ≥1）
				cur.startWeek = ImportWeekNumber(anchor, cur.startDate)
				cur.endWeek = cur.startWeek
				if cur.hasUntil {
					cur.endWeek = ImportWeekNumber(anchor, cur.untilDate)
				}
				blocks = append(blocks, *cur)
			}
			cur = nil

		case cur == nil:
			// 事件块之外的行（VCALENDAR 头等）不参与解析

		case strings.HasPrefix(line, "SUMMARY:"):
			cur.name = strings.TrimSpace(line[len("SUMMARY:"):])

		case strings.HasPrefix(line, "LOCATION:"):
			// 首个空白前为教室，其余为教师
			fields := strings.Fields(strings.TrimSpace(line[len("LOCATION:"):]))
			if len(fields) > 0 {
				cur.room = fields[0]
			}
			if len(fields) > 1 {
				cur.teacher = strings.Join(fields[1:], " ")
			}

		case strings.HasPrefix(line, "DESCRIPTION:"):
			desc := strings.ReplaceAll(line[len("DESCRIPTION:"):], `\n`, "\n")

			// "第N节" / "第N-M节" 显式节次号优先于时刻推断
			if m := periodRe.FindStringSubmatch(desc); m != nil {
				cur.startPeriod, _ = strconv.Atoi(m[1])
				cur.endPeriod = cur.startPeriod
				if m[2] != "" {
					cur.endPeriod, _ = strconv.Atoi(m[2])
				}
				if cur.endPeriod > maxPeriod {
					maxPeriod = cur.endPeriod
				}
			}

			parts := strings.Split(desc, "\n")
			if cur.teacher == "" && len(parts) >= 3 {
				cur.teacher = strings.TrimSpace(parts[2])
			}
			if cur.room == "" && len(parts) >= 2 {
				cur.room = strings.TrimSpace(parts[1])
			}

		case strings.HasPrefix(line, "DTSTART"):
			if m := clockRe.FindStringSubmatch(line); m != nil {
				cur.startTime = m[1] + ":" + m[2]
			}
			if m := dateRe.FindStringSubmatch(line); m != nil {
				if d, err := civil.ParseDate(m[1] + "-" + m[2] + "-" + m[3]); err == nil {
					cur.startDate = d
					cur.hasStartDate = true
					cur.dayOfWeek = d.Weekday()
				}
			}

		case strings.HasPrefix(line, "DTEND"):
			if m := clockRe.FindStringSubmatch(line); m != nil {
				cur.endTime = m[1] + ":" + m[2]
			}

		case strings.HasPrefix(line, "RRULE:"):
			if m := untilRe.FindStringSubmatch(line); m != nil {
				if d, err := civil.ParseDate(m[1] + "-" + m[2] + "-" + m[3]); err == nil {
					cur.untilDate = d
					cur.hasUntil = true
				}
			}
		}
	}

	var newPeriods model.PeriodTimes
	if maxPeriod > 0 {
		newPeriods = rebuildPeriods(blocks, existing, maxPeriod)
	} else {
		matchPeriods(blocks, existing)
	}

	return DraftImport{
		Courses:    mergeBlocks(blocks),
		NewPeriods: newPeriods,
	}
}

// ── 策略 A：依据显式节次号重建节次表 ──

// rebuildPeriods 构建新节次表：保留既有条目，按块中
// (节次号, 时刻) 对写入起止时间（同槽后写覆盖），
// 最后补齐空槽，保证每一节都有起止时间。
func rebuildPeriods(blocks []icsEventBlock, existing model.PeriodTimes, maxPeriod int) model.PeriodTimes {
	size := maxPeriod
	if len(existing) > size {
		size = len(existing)
	}

	periods := make(model.PeriodTimes, size)
	for i := 0; i < size; i++ {
		if i < len(existing) {
			periods[i] = existing[i]
		} else {
			periods[i] = model.PeriodTime{Num: i + 1}
		}
	}

	for _, b := range blocks {
		if b.startPeriod >= 1 && b.startPeriod <= size && b.startTime != "" {
			periods[b.startPeriod-1].StartTime = b.startTime
		}
		if b.endPeriod >= 1 && b.endPeriod <= size && b.endTime != "" {
			periods[b.endPeriod-1].EndTime = b.endTime
		}
	}

	// 补空槽：无起始时间继承上一节的结束时间（首节兜底 08:00），
	// 无结束时间取起始时间 + 45 分钟
	lastEnd := "08:00"
	for i := range periods {
		if periods[i].StartTime == "" {
			periods[i].StartTime = lastEnd
		}
		if periods[i].EndTime == "" {
			periods[i].EndTime = addMinutes(periods[i].StartTime, 45)
		}
		lastEnd = periods[i].EndTime
	}

	return periods
}

// ── 策略 B：按时刻就近匹配既有节次表 ──

// matchPeriods 为无显式节次号的块指派节次：起始节取起始时刻
// 分钟差最小的节（平手取表序靠前者），结束节同理且不早于起始节。
func matchPeriods(blocks []icsEventBlock, existing model.PeriodTimes) {
	for i := range blocks {
		b := &blocks[i]
		if b.startTime != "" {
			if num, ok := nearestPeriod(existing, b.startTime, false); ok {
				b.startPeriod = num
			}
		}
		if b.endTime != "" && b.startPeriod > 0 {
			if num, ok := nearestPeriod(existing, b.endTime, true); ok {
				b.endPeriod = num
				if b.endPeriod < b.startPeriod {
					b.endPeriod = b.startPeriod
				}
			}
		}
	}
}

// nearestPeriod 在节次表中找与 clock 分钟差最小的节。
// byEnd 为 true 时比较各节结束时间，否则比较起始时间。
func nearestPeriod(periods model.PeriodTimes, clock string, byEnd bool) (int, bool) {
	target, err := parseClock(clock)
	if err != nil {
		return 0, false
	}

	best, bestDiff := 0, -1
	for _, p := range periods {
		ref := p.StartTime
		if byEnd {
			ref = p.EndTime
		}
		mins, err := parseClock(ref)
		if err != nil {
			continue
		}
		diff := target - mins
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = p.Num, diff
		}
	}
	return best, best > 0
}

// ── 去重合并 ──

// mergeBlocks 将解析后的块按 (名称, 星期, 起节, 止节) 合并：
// 首现块成为规范记录，后续同键块仅把周次区间拓宽为并集包络。
// 输出保持键的首现顺序。
func mergeBlocks(blocks []icsEventBlock) []model.Course {
	var courses []model.Course
	index := make(map[string]int)

	for _, b := range blocks {
		// 未能定出节次区间的块无效
		if b.startPeriod == 0 || b.endPeriod == 0 {
			continue
		}

		key := fmt.Sprintf("%s-%d-%d-%d", b.name, b.dayOfWeek, b.startPeriod, b.endPeriod)
		if i, ok := index[key]; ok {
			if b.startWeek < courses[i].StartWeek {
				courses[i].StartWeek = b.startWeek
			}
			if b.endWeek > courses[i].EndWeek {
				courses[i].EndWeek = b.endWeek
			}
			continue
		}

		index[key] = len(courses)
		courses = append(courses, model.Course{
			CourseID:    uuid.New().String(),
			Name:        b.name,
			Room:        b.room,
			Teacher:     b.teacher,
			DayOfWeek:   b.dayOfWeek,
			StartPeriod: b.startPeriod,
			EndPeriod:   b.endPeriod,
			StartWeek:   b.startWeek,
			EndWeek:     b.endWeek,
			WeekType:    model.WeekTypeAll,
			Color:       importPalette[rand.Intn(len(importPalette))],
			Source:      "ics",
		})
	}

	return courses
}

// ── 辅助函数 ──

// parseClock 解析 HH:MM 为当日分钟数
func parseClock(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("无效时刻: %q", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// addMinutes 时刻加分钟数，跨日回绕
func addMinutes(clock string, mins int) string {
	total, err := parseClock(clock)
	if err != nil {
		return clock
	}
	total = (total + mins) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
