package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Request     RequestRepository
	Semester    SemesterRepository
	Coordinator CoordinatorRepository
	User        UserRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Request:     NewRequestRepo(db),
		Semester:    NewSemesterRepo(db),
		Coordinator: NewCoordinatorRepo(db),
		User:        NewUserRepo(db),
	}
}

// ── 查询条件 ──

// ErrUnknownFilterField 筛选字段不在白名单内
var ErrUnknownFilterField = errors.New("未知的筛选字段")

// Filter 一条等值筛选条件
type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// filterColumns 允许筛选的字段 → 列名
var filterColumns = map[string]string{
	"name":     "name",
	"semester": "semester",
	"course":   "course",
	"status":   "status",
	"email":    "email",
	"register": "register",
}

// FilterFields 允许筛选的字段（固定顺序，用于解析查询参数）
var FilterFields = []string{"name", "semester", "course", "status", "email", "register"}

// ValidFilterField 字段是否允许用于筛选
func ValidFilterField(field string) bool {
	_, ok := filterColumns[field]
	return ok
}

func applyFilters(db *gorm.DB, filters []Filter) (*gorm.DB, error) {
	for _, f := range filters {
		col, ok := filterColumns[f.Field]
		if !ok {
			return nil, ErrUnknownFilterField
		}
		db = db.Where(col+" = ?", f.Value)
	}
	return db, nil
}

// updateByID 按主键合并更新；未命中任何行时返回 gorm.ErrRecordNotFound
func updateByID(db *gorm.DB, value interface{}, pk, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		var count int64
		if err := db.Model(value).Where(pk+" = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	res := db.Model(value).Where(pk+" = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func deleteByID(db *gorm.DB, value interface{}, pk, id string) error {
	res := db.Where(pk+" = ?", id).Delete(value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
