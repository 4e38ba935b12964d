package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NoBody217/WeClass/internal/model"
)

// ConfigRepository 学期配置数据访问接口（全局单行）
type ConfigRepository interface {
	Get(ctx context.Context) (*model.SemesterConfig, error)
	Save(ctx context.Context, cfg *model.SemesterConfig) error
}

type configRepo struct {
	db *gorm.DB
}

// NewConfigRepo 创建 ConfigRepository 实例
func NewConfigRepo(db *gorm.DB) ConfigRepository {
	return &configRepo{db: db}
}

func (r *configRepo) Get(ctx context.Context) (*model.SemesterConfig, error) {
	var cfg model.SemesterConfig
	if err := r.db.WithContext(ctx).First(&cfg, "config_id = 1").Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *configRepo) Save(ctx context.Context, cfg *model.SemesterConfig) error {
	cfg.ConfigID = 1
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "config_id"}},
			UpdateAll: true,
		}).
		Create(cfg).Error
}
