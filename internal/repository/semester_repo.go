package repository

import (
	"context"

	"gorm.io/gorm"

	"gradff/backend/internal/model"
)

// SemesterRepository 学期数据访问接口
type SemesterRepository interface {
	Create(ctx context.Context, semester *model.Semester) error
	GetByID(ctx context.Context, id string) (*model.Semester, error)
	// ListRecent 按名称倒序取最近 limit 个学期
	ListRecent(ctx context.Context, limit int) ([]model.Semester, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type semesterRepo struct {
	db *gorm.DB
}

// NewSemesterRepo 创建 SemesterRepository 实例
func NewSemesterRepo(db *gorm.DB) SemesterRepository {
	return &semesterRepo{db: db}
}

func (r *semesterRepo) Create(ctx context.Context, semester *model.Semester) error {
	return r.db.WithContext(ctx).Create(semester).Error
}

func (r *semesterRepo) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", id).
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepo) ListRecent(ctx context.Context, limit int) ([]model.Semester, error) {
	var semesters []model.Semester
	err := r.db.WithContext(ctx).
		Order("name DESC").
		Limit(limit).
		Find(&semesters).Error
	return semesters, err
}

func (r *semesterRepo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	delete(fields, "semester_id")
	delete(fields, "created_at")
	return updateByID(r.db.WithContext(ctx), &model.Semester{}, "semester_id", id, fields)
}

func (r *semesterRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(r.db.WithContext(ctx), &model.Semester{}, "semester_id", id)
}
