package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/NoBody217/WeClass/internal/dto"
	"github.com/NoBody217/WeClass/internal/model"
	"github.com/NoBody217/WeClass/internal/repository"
	"github.com/NoBody217/WeClass/pkg/civil"
)

// ── 课表模块业务错误 ──

var (
	ErrTimetableICSReadFailed = errors.New("日历文件读取失败")
	ErrTimetableICSEmpty      = errors.New("日历文件中未发现有效课程事件")
	ErrCourseNotFound         = errors.New("课程不存在")
	ErrCourseNameRequired     = errors.New("课程名称不能为空")
	ErrCourseInvalidOwner     = errors.New("归属槽位必须为 user1 或 user2")
	ErrCourseInvalidDay       = errors.New("星期必须在 1-7 之间")
	ErrCourseInvalidPeriod    = errors.New("节次区间非法")
	ErrCourseInvalidWeeks     = errors.New("周次区间非法")
	ErrCourseInvalidWeekType  = errors.New("周类型必须为 all、odd 或 even")
	ErrCourseDateRequired     = errors.New("临时日程必须指定日期")
	ErrCourseInvalidDate      = errors.New("日期格式须为 YYYY-MM-DD")
	ErrInvalidViewMode        = errors.New("未知的课表视图")
	ErrInvalidStartDate       = errors.New("学期起始日期格式须为 YYYY-MM-DD")
)

// ── TimetableService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 课表导入（ImportICS）采用按槽位全量替换策略，在单个事务中
//     执行"删除旧数据 → 批量插入新数据"，保证原子性。
//   - 周网格（GetWeekGrid）每天独立调用布局解析器，输出确定的
//     绘制指令列表，渲染端不做任何取舍逻辑。
//   - 学期配置为全局单行，服务启动时播种默认值。
// ─────────────────────────────────────────────────────────────

// TimetableService 课表模块业务接口
type TimetableService interface {
	// GetDocument 获取完整课表文档（双槽位课程 + 学期配置）
	GetDocument(ctx context.Context) (*dto.TimetableDocument, error)
	// GetWeekGrid 获取某一周的课表网格；week <= 0 表示当前周
	GetWeekGrid(ctx context.Context, week int, mode string) (*dto.WeekGridResponse, error)
	// CreateCourse 手动新建课程
	CreateCourse(ctx context.Context, req *dto.SaveCourseRequest) (*model.Course, error)
	// UpdateCourse 编辑课程
	UpdateCourse(ctx context.Context, id string, req *dto.SaveCourseRequest) (*model.Course, error)
	// DeleteCourse 删除课程
	DeleteCourse(ctx context.Context, id string) error
	// ImportICS 导入日历课表，全量替换 owner 槽位的课程
	ImportICS(ctx context.Context, reader io.Reader, owner string) (*dto.ImportICSResponse, error)
	// UpdateConfig 更新学期配置（起始日期 / 节次表 / 外观）
	UpdateConfig(ctx context.Context, req *dto.UpdateConfigRequest) (*model.SemesterConfig, error)
	// EnsureDefaults 播种默认学期配置（幂等，启动时调用）
	EnsureDefaults(ctx context.Context) error
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// GetDocument — 完整课表文档
// ════════════════════════════════════════════════════════════

func (s *timetableService) GetDocument(ctx context.Context) (*dto.TimetableDocument, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.Course.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}

	doc := dto.TimetableDocument{
		User1:  make([]model.Course, 0),
		User2:  make([]model.Course, 0),
		Config: *cfg,
	}
	for _, c := range all {
		if c.OwnerSlot == model.OwnerUser2 {
			doc.User2 = append(doc.User2, c)
		} else {
			doc.User1 = append(doc.User1, c)
		}
	}
	return &doc, nil
}

// ════════════════════════════════════════════════════════════
// GetWeekGrid — 周课表网格
// ════════════════════════════════════════════════════════════
//
// 流程：
//   1. 解析学期锚点，推算当前周；week <= 0 时落到当前周
//   2. 对周一至周日逐日筛选候选课程（常规按星期、临时按日期）
//   3. 每天独立调用布局解析器生成绘制指令

func (s *timetableService) GetWeekGrid(ctx context.Context, week int, mode string) (*dto.WeekGridResponse, error) {
	vm := ViewMode(mode)
	if mode == "" {
		vm = ViewModeCouple
	}
	if !vm.Valid() {
		return nil, ErrInvalidViewMode
	}

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	anchor, err := civil.ParseDate(cfg.StartDate)
	if err != nil {
		s.logger.Error("学期起始日期非法", zap.String("start_date", cfg.StartDate), zap.Error(err))
		return nil, ErrInvalidStartDate
	}

	currentWeek := WeekNumber(anchor, civil.Today())
	if week <= 0 {
		week = currentWeek
	}
	if week < 1 {
		week = 1 // 开学前查看默认落到第 1 周
	}

	all, err := s.repo.Course.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}

	days := make([]dto.DayColumn, 0, 7)
	for day := 1; day <= 7; day++ {
		date := DateOfWeekday(anchor, week, day)

		// 该日期列的候选：常规课程按星期匹配，临时日程按日期匹配
		var pool []model.Course
		for _, c := range all {
			if c.IsTemporary {
				if c.Date != nil && *c.Date == date.String() {
					pool = append(pool, c)
				}
				continue
			}
			if c.DayOfWeek == day {
				pool = append(pool, c)
			}
		}

		days = append(days, dto.DayColumn{
			DayOfWeek:    day,
			Date:         date.String(),
			Instructions: LayoutDay(pool, week, vm, date),
		})
	}

	return &dto.WeekGridResponse{
		Week:        week,
		CurrentWeek: currentWeek,
		Mode:        string(vm),
		Periods:     cfg.Periods,
		Days:        days,
	}, nil
}

// ════════════════════════════════════════════════════════════
// 课程 CRUD
// ════════════════════════════════════════════════════════════

func (s *timetableService) CreateCourse(ctx context.Context, req *dto.SaveCourseRequest) (*model.Course, error) {
	course, err := s.buildCourse(req)
	if err != nil {
		return nil, err
	}
	course.CourseID = uuid.New().String()
	course.Source = "manual"

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *timetableService) UpdateCourse(ctx context.Context, id string, req *dto.SaveCourseRequest) (*model.Course, error) {
	existing, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	course, err := s.buildCourse(req)
	if err != nil {
		return nil, err
	}
	course.CourseID = existing.CourseID
	course.Source = existing.Source
	course.CreatedAt = existing.CreatedAt

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("更新课程失败", zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *timetableService) DeleteCourse(ctx context.Context, id string) error {
	if _, err := s.repo.Course.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	if err := s.repo.Course.Delete(ctx, id); err != nil {
		s.logger.Error("删除课程失败", zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// ImportICS — 导入日历课表
// ════════════════════════════════════════════════════════════
//
// 解析永不报错（坏块被丢弃），硬性失败只有两种：
// 读取 reader 失败，以及解析结果为零门课程。

func (s *timetableService) ImportICS(ctx context.Context, reader io.Reader, owner string) (*dto.ImportICSResponse, error) {
	if owner != model.OwnerUser1 && owner != model.OwnerUser2 {
		return nil, ErrCourseInvalidOwner
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		s.logger.Error("日历文件读取失败", zap.Error(err))
		return nil, ErrTimetableICSReadFailed
	}

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	anchor, err := civil.ParseDate(cfg.StartDate)
	if err != nil {
		return nil, ErrInvalidStartDate
	}

	draft := ParseICS(string(raw), cfg.Periods, anchor)
	if len(draft.Courses) == 0 {
		return nil, ErrTimetableICSEmpty
	}

	for i := range draft.Courses {
		draft.Courses[i].OwnerSlot = owner
	}

	// 事务：删除该槽位旧课程 + 插入新课程
	if err := s.repo.Course.ReplaceByOwner(ctx, owner, draft.Courses); err != nil {
		s.logger.Error("课表导入事务失败", zap.Error(err))
		return nil, err
	}

	// 策略 A 生效时整表替换节次表
	periodsReplaced := false
	if draft.NewPeriods != nil {
		cfg.Periods = draft.NewPeriods
		if err := s.repo.Config.Save(ctx, cfg); err != nil {
			s.logger.Error("保存节次表失败", zap.Error(err))
			return nil, err
		}
		periodsReplaced = true
	}

	s.logger.Info("课表导入完成",
		zap.String("owner", owner),
		zap.Int("courses", len(draft.Courses)),
		zap.Bool("periods_replaced", periodsReplaced))

	return &dto.ImportICSResponse{
		ImportedCount:   len(draft.Courses),
		PeriodsReplaced: periodsReplaced,
		Courses:         draft.Courses,
	}, nil
}

// ════════════════════════════════════════════════════════════
// UpdateConfig — 学期配置
// ════════════════════════════════════════════════════════════

func (s *timetableService) UpdateConfig(ctx context.Context, req *dto.UpdateConfigRequest) (*model.SemesterConfig, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	if req.StartDate != nil {
		if _, err := civil.ParseDate(*req.StartDate); err != nil {
			return nil, ErrInvalidStartDate
		}
		cfg.StartDate = *req.StartDate
	}
	if req.Periods != nil {
		periods := *req.Periods
		for _, p := range periods {
			if _, err := parseClock(p.StartTime); err != nil {
				return nil, ErrCourseInvalidPeriod
			}
			if _, err := parseClock(p.EndTime); err != nil {
				return nil, ErrCourseInvalidPeriod
			}
		}
		cfg.Periods = periods
	}
	if req.Appearance != nil {
		cfg.Appearance = *req.Appearance
	}

	if err := s.repo.Config.Save(ctx, cfg); err != nil {
		s.logger.Error("保存学期配置失败", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

// EnsureDefaults 首次启动播种：锚点取最近的周一，节次表取默认 12 节
func (s *timetableService) EnsureDefaults(ctx context.Context) error {
	_, err := s.repo.Config.Get(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	cfg := model.SemesterConfig{
		ConfigID:  1,
		StartDate: civil.Today().RecentMonday().String(),
		Periods:   model.DefaultPeriods(),
	}
	if err := s.repo.Config.Save(ctx, &cfg); err != nil {
		return err
	}
	s.logger.Info("已播种默认学期配置", zap.String("start_date", cfg.StartDate))
	return nil
}

// ── 私有辅助方法 ──

func (s *timetableService) loadConfig(ctx context.Context) (*model.SemesterConfig, error) {
	cfg, err := s.repo.Config.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 播种后不应出现；兜底返回内存默认值
			return &model.SemesterConfig{
				ConfigID:  1,
				StartDate: civil.Today().RecentMonday().String(),
				Periods:   model.DefaultPeriods(),
			}, nil
		}
		s.logger.Error("查询学期配置失败", zap.Error(err))
		return nil, err
	}
	if len(cfg.Periods) == 0 {
		cfg.Periods = model.DefaultPeriods()
	}
	return cfg, nil
}

// buildCourse 校验并构造课程记录（不含 ID 与来源）
func (s *timetableService) buildCourse(req *dto.SaveCourseRequest) (*model.Course, error) {
	if req.Owner != model.OwnerUser1 && req.Owner != model.OwnerUser2 {
		return nil, ErrCourseInvalidOwner
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrCourseNameRequired
	}
	if req.StartPeriod < 1 || req.EndPeriod < req.StartPeriod {
		return nil, ErrCourseInvalidPeriod
	}

	weekType := req.WeekType
	if weekType == "" {
		weekType = model.WeekTypeAll
	}
	if weekType != model.WeekTypeAll && weekType != model.WeekTypeOdd && weekType != model.WeekTypeEven {
		return nil, ErrCourseInvalidWeekType
	}

	course := model.Course{
		OwnerSlot:   req.Owner,
		Name:        req.Name,
		StartPeriod: req.StartPeriod,
		EndPeriod:   req.EndPeriod,
		WeekType:    weekType,
		Room:        req.Room,
		Teacher:     req.Teacher,
		Credit:      req.Credit,
		Note:        req.Note,
		Color:       req.Color,
		IsTemporary: req.IsTemporary,
	}

	if req.IsTemporary {
		// 临时日程：日期必填，星期由日期推出
		if req.Date == nil || *req.Date == "" {
			return nil, ErrCourseDateRequired
		}
		d, err := civil.ParseDate(*req.Date)
		if err != nil {
			return nil, ErrCourseInvalidDate
		}
		date := d.String()
		course.Date = &date
		course.DayOfWeek = d.Weekday()
		course.StartWeek = 1
		course.EndWeek = 1
		course.WeekType = model.WeekTypeAll
	} else {
		if req.DayOfWeek < 1 || req.DayOfWeek > 7 {
			return nil, ErrCourseInvalidDay
		}
		startWeek, endWeek := req.StartWeek, req.EndWeek
		if startWeek == 0 {
			startWeek = 1
		}
		if endWeek == 0 {
			endWeek = startWeek
		}
		if startWeek < 1 || endWeek < startWeek {
			return nil, ErrCourseInvalidWeeks
		}
		course.DayOfWeek = req.DayOfWeek
		course.StartWeek = startWeek
		course.EndWeek = endWeek
	}

	return &course, nil
}
