package model

import "gorm.io/gorm"

// Coordinator 课程协调员，对应 coordinators 表
type Coordinator struct {
	CoordinatorID string  `gorm:"type:uuid;primaryKey"       json:"coordinator_id"`
	Name          string  `gorm:"type:varchar(100);not null" json:"name"`
	Profile       JSONMap `gorm:"type:jsonb;not null"        json:"profile"` // 课程、邮箱、电话等自由字段
	BaseModel
}

// TableName 指定表名
func (Coordinator) TableName() string { return "coordinators" }

func (c *Coordinator) BeforeCreate(*gorm.DB) error {
	newID(&c.CoordinatorID)
	return nil
}
