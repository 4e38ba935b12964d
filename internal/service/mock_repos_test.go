package service

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/NoBody217/WeClass/internal/model"
	"github.com/NoBody217/WeClass/internal/repository"
)

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) ListByOwner(_ context.Context, owner string) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		if c.OwnerSlot == owner {
			result = append(result, *c)
		}
	}
	sortCourses(result)
	return result, nil
}

func (m *mockCourseRepo) ListAll(_ context.Context) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		result = append(result, *c)
	}
	sortCourses(result)
	return result, nil
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) ReplaceByOwner(_ context.Context, owner string, courses []model.Course) error {
	for id, c := range m.courses {
		if c.OwnerSlot == owner {
			delete(m.courses, id)
		}
	}
	for i := range courses {
		c := courses[i]
		m.courses[c.CourseID] = &c
	}
	return nil
}

func (m *mockCourseRepo) ReplaceAll(_ context.Context, courses []model.Course) error {
	m.courses = make(map[string]*model.Course)
	for i := range courses {
		c := courses[i]
		m.courses[c.CourseID] = &c
	}
	return nil
}

func sortCourses(courses []model.Course) {
	sort.Slice(courses, func(i, j int) bool {
		a, b := &courses[i], &courses[j]
		if a.OwnerSlot != b.OwnerSlot {
			return a.OwnerSlot < b.OwnerSlot
		}
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartPeriod != b.StartPeriod {
			return a.StartPeriod < b.StartPeriod
		}
		return a.CourseID < b.CourseID
	})
}

// ── Mock ConfigRepository ──

type mockConfigRepo struct {
	cfg *model.SemesterConfig
}

func newMockConfigRepo() *mockConfigRepo {
	return &mockConfigRepo{}
}

func (m *mockConfigRepo) Get(_ context.Context) (*model.SemesterConfig, error) {
	if m.cfg == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.cfg
	return &cp, nil
}

func (m *mockConfigRepo) Save(_ context.Context, cfg *model.SemesterConfig) error {
	cp := *cfg
	cp.ConfigID = 1
	m.cfg = &cp
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "u-" + user.Username
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// newTestRepository 组装全 Mock 的 Repository 聚合
func newTestRepository() *repository.Repository {
	return &repository.Repository{
		User:   newMockUserRepo(),
		Course: newMockCourseRepo(),
		Config: newMockConfigRepo(),
	}
}
