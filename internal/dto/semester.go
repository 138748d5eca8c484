package dto

import "gradff/backend/internal/model"

// ── 学期模块 DTO ──

// SemesterInput 创建 / 更新学期；更新时仅覆盖非 nil 字段
type SemesterInput struct {
	Name      *string `json:"name"       binding:"omitempty,min=1,max=20"` // "2024.1"
	Title     *string `json:"title"      binding:"omitempty,max=100"`
	StartDate *string `json:"start_date"` // "2024-03-01"
	EndDate   *string `json:"end_date"`   // "2024-07-15"
}

// SemesterResponse 学期信息响应
type SemesterResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CurrentSemesterResponse 提交表单使用：当前学期与下一个预计学期
type CurrentSemesterResponse struct {
	Active    *SemesterResponse `json:"active"`
	Predicted *SemesterResponse `json:"predicted"`
}

// NewSemesterResponse 由模型构造响应
func NewSemesterResponse(s *model.Semester) SemesterResponse {
	return SemesterResponse{
		ID:        s.SemesterID,
		Name:      s.Name,
		Title:     s.Title,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		Status:    s.Status,
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}
}
