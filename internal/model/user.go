package model

import "gorm.io/gorm"

// User 工作人员账号，对应 users 表
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey"                json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"          json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"          json:"-"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	newID(&u.UserID)
	return nil
}
