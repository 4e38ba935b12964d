package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/NoBody217/WeClass/config"
	"github.com/NoBody217/WeClass/internal/model"
	"github.com/NoBody217/WeClass/internal/repository"
	"github.com/NoBody217/WeClass/pkg/civil"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoCourses    = errors.New("课表为空，无可导出内容")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出按"节次行 × 星期列"的周网格呈现，直接复用布局
//     解析器的绘制指令，所见即所得。
//   - ICS 导出走标准 iCalendar 库：周重复课程映射为 RRULE
//     （单双周用 INTERVAL=2），临时日程为单次事件。
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入。
type ExportService interface {
	// ExportXlsx 导出某一周的课表网格为 Excel；week <= 0 表示当前周
	ExportXlsx(ctx context.Context, week int, mode string) (*bytes.Buffer, string, error)
	// ExportICS 导出某一槽位的全部课程为标准 iCalendar
	ExportICS(ctx context.Context, owner string) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg       *config.Config
	repo      *repository.Repository
	timetable TimetableService
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(
	cfg *config.Config,
	repo *repository.Repository,
	timetable TimetableService,
	logger *zap.Logger,
) ExportService {
	return &exportService{cfg: cfg, repo: repo, timetable: timetable, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportXlsx — 周课表网格导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 表头: | 节次 | 周一 ... 周日 |（列头附当周日期）
//   - 行头: "第N节\nHH:MM-HH:MM"
//   - 单元格: 课程名 + 教室；跨节课程纵向合并；同格多课以 " / " 连接

func (s *exportService) ExportXlsx(ctx context.Context, week int, mode string) (*bytes.Buffer, string, error) {
	grid, err := s.timetable.GetWeekGrid(ctx, week, mode)
	if err != nil {
		return nil, "", err
	}

	total := 0
	for _, day := range grid.Days {
		total += len(day.Instructions)
	}
	if total == 0 {
		return nil, "", ErrExportNoCourses
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := fmt.Sprintf("第%d周", grid.Week)
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽：节次列窄，七个星期列等宽
	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "H", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#A2D2FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	dayNames := [7]string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

	// 表头行
	f.SetCellValue(sheetName, "A1", "节次")
	for i, day := range grid.Days {
		col, _ := excelize.ColumnNumberToName(2 + i)
		f.SetCellValue(sheetName, col+"1", fmt.Sprintf("%s %s", dayNames[i], day.Date))
	}
	f.SetCellStyle(sheetName, "A1", "H1", headerStyle)

	// 节次行头
	for i, p := range grid.Periods {
		row := 2 + i
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row),
			fmt.Sprintf("第%d节\n%s-%s", p.Num, p.StartTime, p.EndTime))
	}
	lastRow := 1 + len(grid.Periods)
	f.SetCellStyle(sheetName, "A2", fmt.Sprintf("H%d", lastRow), cellStyle)

	// 课程块：同格多课（双人并排）以 " / " 连接后再合并
	for dayIdx, day := range grid.Days {
		col, _ := excelize.ColumnNumberToName(2 + dayIdx)

		cellText := make(map[int][]string) // startPeriod → 文本片段
		cellEnd := make(map[int]int)       // startPeriod → 最大止节
		for _, ins := range day.Instructions {
			text := ins.Course.Name
			if ins.Course.Room != "" {
				text += "\n" + ins.Course.Room
			}
			if ins.HasConflict {
				text += "\n[冲突]"
			}
			cellText[ins.StartPeriod] = append(cellText[ins.StartPeriod], text)
			if ins.EndPeriod > cellEnd[ins.StartPeriod] {
				cellEnd[ins.StartPeriod] = ins.EndPeriod
			}
		}

		for start, texts := range cellText {
			topCell := fmt.Sprintf("%s%d", col, 1+start)
			f.SetCellValue(sheetName, topCell, strings.Join(texts, " / "))
			if end := cellEnd[start]; end > start {
				f.MergeCell(sheetName, topCell, fmt.Sprintf("%s%d", col, 1+end))
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课表_第%d周.xlsx", grid.Week)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS — 课表导出为标准 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 映射规则：
//   - 常规课程 → 周重复事件：DTSTART 取 StartWeek 的对应星期与起节
//     时刻，RRULE FREQ=WEEKLY，单双周 INTERVAL=2，UNTIL 取 EndWeek
//   - 临时日程 → 单次事件
//   - 时刻为浮动本地时间（不带时区），与节次表一致

func (s *exportService) ExportICS(ctx context.Context, owner string) (*bytes.Buffer, string, error) {
	if owner != model.OwnerUser1 && owner != model.OwnerUser2 {
		return nil, "", ErrCourseInvalidOwner
	}

	courses, err := s.repo.Course.ListByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, "", err
	}
	if len(courses) == 0 {
		return nil, "", ErrExportNoCourses
	}

	semCfg, err := s.repo.Config.Get(ctx)
	if err != nil {
		s.logger.Error("查询学期配置失败", zap.Error(err))
		return nil, "", err
	}
	anchor, err := civil.ParseDate(semCfg.StartDate)
	if err != nil {
		return nil, "", ErrInvalidStartDate
	}
	periods := semCfg.Periods
	if len(periods) == 0 {
		periods = model.DefaultPeriods()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//WeClass//Timetable//CN")

	for _, c := range courses {
		event := cal.AddEvent(c.CourseID + "@weclass")
		event.SetSummary(c.Name)
		if c.Room != "" {
			event.SetLocation(c.Room)
		}
		if desc := icsDescription(&c); desc != "" {
			event.SetDescription(desc)
		}

		startClock := clockOfPeriod(periods, c.StartPeriod, false)
		endClock := clockOfPeriod(periods, c.EndPeriod, true)

		if c.IsTemporary && c.Date != nil {
			d, perr := civil.ParseDate(*c.Date)
			if perr != nil {
				continue // 日期损坏的临时日程不导出
			}
			event.SetProperty(ics.ComponentPropertyDtStart, icsStamp(d, startClock))
			event.SetProperty(ics.ComponentPropertyDtEnd, icsStamp(d, endClock))
			continue
		}

		// 首次上课周：单双周课程可能要顺延到第一个满足奇偶的周
		firstWeek := c.StartWeek
		if c.WeekType == model.WeekTypeOdd && firstWeek%2 == 0 {
			firstWeek++
		}
		if c.WeekType == model.WeekTypeEven && firstWeek%2 != 0 {
			firstWeek++
		}
		if firstWeek > c.EndWeek {
			continue // 区间内无任何满足奇偶的周
		}

		first := DateOfWeekday(anchor, firstWeek, c.DayOfWeek)
		last := DateOfWeekday(anchor, c.EndWeek, c.DayOfWeek)
		event.SetProperty(ics.ComponentPropertyDtStart, icsStamp(first, startClock))
		event.SetProperty(ics.ComponentPropertyDtEnd, icsStamp(first, endClock))

		interval := 1
		if c.WeekType != model.WeekTypeAll {
			interval = 2
		}
		rrule := fmt.Sprintf("FREQ=WEEKLY;INTERVAL=%d;UNTIL=%s", interval, icsStamp(last, "23:59"))
		event.AddRrule(rrule)
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("课表_%s.ics", owner)
	return buf, filename, nil
}

// ── 辅助函数 ──

// clockOfPeriod 查节次表得到起/止时刻；查不到时退到首/末节
func clockOfPeriod(periods model.PeriodTimes, num int, byEnd bool) string {
	for _, p := range periods {
		if p.Num == num {
			if byEnd {
				return p.EndTime
			}
			return p.StartTime
		}
	}
	if byEnd {
		return periods[len(periods)-1].EndTime
	}
	return periods[0].StartTime
}

// icsStamp 浮动本地时间戳：YYYYMMDDTHHMMSS
func icsStamp(d civil.Date, clock string) string {
	return fmt.Sprintf("%04d%02d%02dT%s00", d.Year, int(d.Month), d.Day, strings.ReplaceAll(clock, ":", ""))
}

func icsDescription(c *model.Course) string {
	var parts []string
	if c.Teacher != "" {
		parts = append(parts, "教师: "+c.Teacher)
	}
	parts = append(parts, fmt.Sprintf("第%d-%d节", c.StartPeriod, c.EndPeriod))
	if c.Note != "" {
		parts = append(parts, c.Note)
	}
	return strings.Join(parts, "\n")
}
