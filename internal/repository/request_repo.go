package repository

import (
	"context"

	"gorm.io/gorm"

	"gradff/backend/internal/model"
)

// RequestRepository 申请数据访问接口
type RequestRepository interface {
	Create(ctx context.Context, request *model.Request) error
	GetByID(ctx context.Context, id string) (*model.Request, error)
	GetByAccessCode(ctx context.Context, code string) (*model.Request, error)
	// List 按等值条件查询，按 created_at、name 升序
	List(ctx context.Context, filters []Filter) ([]model.Request, error)
	// Update 合并更新；access_code 永远不会被写入
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type requestRepo struct {
	db *gorm.DB
}

// NewRequestRepo 创建 RequestRepository 实例
func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) Create(ctx context.Context, request *model.Request) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (*model.Request, error) {
	var request model.Request
	err := r.db.WithContext(ctx).
		Where("request_id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepo) GetByAccessCode(ctx context.Context, code string) (*model.Request, error) {
	var request model.Request
	err := r.db.WithContext(ctx).
		Where("access_code = ?", code).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepo) List(ctx context.Context, filters []Filter) ([]model.Request, error) {
	db, err := applyFilters(r.db.WithContext(ctx).Model(&model.Request{}), filters)
	if err != nil {
		return nil, err
	}

	var requests []model.Request
	err = db.Order("created_at ASC").Order("name ASC").Find(&requests).Error
	return requests, err
}

func (r *requestRepo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	delete(fields, "access_code")
	delete(fields, "request_id")
	delete(fields, "created_at")
	return updateByID(r.db.WithContext(ctx), &model.Request{}, "request_id", id, fields)
}

func (r *requestRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(r.db.WithContext(ctx), &model.Request{}, "request_id", id)
}
