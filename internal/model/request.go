package model

import "gorm.io/gorm"

// 申请状态
const (
	StatusApproved          = "Deferido"
	StatusRejected          = "Indeferido"
	StatusPartiallyApproved = "Deferido-Parcial"
	StatusPending           = "Aguardando"
)

// MaxAttachments 单个申请的附件上限
const MaxAttachments = 3

// StatusOptions 筛选与选择框使用的状态列表（顺序固定）
var StatusOptions = []string{StatusApproved, StatusRejected, StatusPartiallyApproved, StatusPending}

// StatusColor 状态对应的前端配色
func StatusColor(status string) string {
	switch status {
	case StatusApproved:
		return "success"
	case StatusRejected:
		return "danger"
	case StatusPartiallyApproved:
		return "info"
	default:
		return "default"
	}
}

// ValidStatus 是否为已知状态
func ValidStatus(status string) bool {
	for _, s := range StatusOptions {
		if s == status {
			return true
		}
	}
	return false
}

// Request 违规申请，对应 requests 表
type Request struct {
	RequestID      string         `gorm:"type:uuid;primaryKey"                json:"request_id"`
	Name           string         `gorm:"type:varchar(150);not null"          json:"name"`
	Email          string         `gorm:"type:varchar(255);not null"          json:"email"`
	Register       string         `gorm:"type:varchar(30);not null"           json:"register"` // 学号
	Course         string         `gorm:"type:varchar(100);not null"          json:"course"`
	Semester       string         `gorm:"type:varchar(20);not null;index"     json:"semester"`
	Obs            string         `gorm:"type:text;not null"                  json:"obs"`
	Opinion        string         `gorm:"type:text;not null"                  json:"opinion"`
	Status         string         `gorm:"type:varchar(20);not null"           json:"status"`
	Files          Attachments    `gorm:"type:jsonb;not null"                 json:"files"`
	Irregularities Irregularities `gorm:"type:jsonb;not null"                 json:"irregularities"`
	AccessCode     string         `gorm:"type:varchar(40);not null;uniqueIndex;<-:create" json:"access_code"` // 仅创建时写入
	BaseModel
}

// TableName 指定表名
func (Request) TableName() string { return "requests" }

func (r *Request) BeforeCreate(*gorm.DB) error {
	newID(&r.RequestID)
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}
