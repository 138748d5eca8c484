package model

import "gorm.io/gorm"

// 学期状态（读取时按当前时间推导，不落库）
const (
	SemesterActive    = "ativo"
	SemesterPredicted = "previsto"
	SemesterClosed    = "encerrado"
)

// DateLayout 学期起止日期的存储格式
const DateLayout = "2006-01-02"

// Semester 学期，对应 semesters 表
type Semester struct {
	SemesterID string `gorm:"type:uuid;primaryKey"        json:"semester_id"`
	Name       string `gorm:"type:varchar(20);not null"   json:"name"` // 例如 2024.1
	Title      string `gorm:"type:varchar(100);not null"  json:"title"`
	StartDate  string `gorm:"type:varchar(10);not null"   json:"start_date"`
	EndDate    string `gorm:"type:varchar(10);not null"   json:"end_date"`
	Status     string `gorm:"-"                           json:"status"`
	BaseModel
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

func (s *Semester) BeforeCreate(*gorm.DB) error {
	newID(&s.SemesterID)
	return nil
}
