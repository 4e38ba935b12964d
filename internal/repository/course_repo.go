package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/NoBody217/WeClass/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*model.Course, error)
	ListByOwner(ctx context.Context, owner string) ([]model.Course, error)
	ListAll(ctx context.Context) ([]model.Course, error)
	Create(ctx context.Context, course *model.Course) error
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string) error
	// ReplaceByOwner 在事务中全量替换某一归属槽位的课程：先删除旧数据，再批量插入新数据
	ReplaceByOwner(ctx context.Context, owner string, courses []model.Course) error
	// ReplaceAll 在事务中全量替换两个槽位的课程（远端拉取覆盖场景）
	ReplaceAll(ctx context.Context, courses []model.Course) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).First(&course, "course_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) ListByOwner(ctx context.Context, owner string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("owner_slot = ?", owner).
		Order("day_of_week ASC, start_period ASC, course_id ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListAll(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Order("owner_slot ASC, day_of_week ASC, start_period ASC, course_id ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Course{}, "course_id = ?", id).Error
}

func (r *courseRepo) ReplaceByOwner(ctx context.Context, owner string, courses []model.Course) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_slot = ?", owner).Delete(&model.Course{}).Error; err != nil {
			return err
		}
		if len(courses) > 0 {
			if err := tx.Create(&courses).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *courseRepo) ReplaceAll(ctx context.Context, courses []model.Course) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Course{}).Error; err != nil {
			return err
		}
		if len(courses) > 0 {
			if err := tx.Create(&courses).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
