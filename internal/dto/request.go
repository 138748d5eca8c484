package dto

import (
	"io"
	"time"

	"gradff/backend/internal/model"
)

// ── 申请模块 DTO ──

// FileInput 附件输入：URL 非空表示已保存（保留），否则为待上传，内容从 Content 读取
type FileInput struct {
	Name    string    `json:"name"`
	Path    string    `json:"path,omitempty"`
	URL     string    `json:"url,omitempty"`
	Content io.Reader `json:"-"`
}

// Kept 是否为已保存的附件
func (f FileInput) Kept() bool { return f.URL != "" }

// IrregularityInput 违规项输入
type IrregularityInput struct {
	Name        string `json:"name"        binding:"required"`
	Description string `json:"description"`
	Authorized  bool   `json:"authorized"`
}

// RequestInput 创建 / 更新申请。
// 指针字段为 nil 表示"未提供"，更新时不覆盖；Files / Irregularities 为 nil 同理。
type RequestInput struct {
	Name           *string             `json:"name"`
	Email          *string             `json:"email"    binding:"omitempty,email"`
	Register       *string             `json:"register"`
	Course         *string             `json:"course"`
	Semester       *string             `json:"semester"`
	Obs            *string             `json:"obs"`
	Opinion        *string             `json:"opinion"`
	Status         *string             `json:"status"   binding:"omitempty,oneof=Deferido Indeferido Deferido-Parcial Aguardando"`
	Irregularities []IrregularityInput `json:"irregularities" binding:"dive"`
	Files          []FileInput         `json:"files"`
}

// RequestFilters 列表页的筛选选择
type RequestFilters struct {
	Name     string `json:"name"     form:"name"`
	Semester string `json:"semester" form:"semester"`
	Course   string `json:"course"   form:"course"`
	Status   string `json:"status"   form:"status"`
}

// SaveRequestResponse 保存成功后返回访问码
type SaveRequestResponse struct {
	AccessCode string `json:"access_code"`
}

// AttachmentResponse 附件
type AttachmentResponse struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// IrregularityResponse 违规项
type IrregularityResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Authorized  bool   `json:"authorized"`
}

// RequestResponse 申请完整信息（工作人员视图）
type RequestResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	Register       string                 `json:"register"`
	Course         string                 `json:"course"`
	Semester       string                 `json:"semester"`
	Obs            string                 `json:"obs"`
	Opinion        string                 `json:"opinion"`
	Status         string                 `json:"status"`
	StatusColor    string                 `json:"status_color"`
	AccessCode     string                 `json:"access_code"`
	Files          []AttachmentResponse   `json:"files"`
	Irregularities []IrregularityResponse `json:"irregularities"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

// RequestLookupResponse 学生凭访问码查询时看到的信息
type RequestLookupResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Semester       string                 `json:"semester"`
	Status         string                 `json:"status"`
	StatusColor    string                 `json:"status_color"`
	Opinion        string                 `json:"opinion"`
	AccessCode     string                 `json:"access_code"`
	Irregularities []IrregularityResponse `json:"irregularities"`
	CreatedAt      string                 `json:"created_at"`
}

// NewRequestResponse 由模型构造响应
func NewRequestResponse(r *model.Request) RequestResponse {
	files := make([]AttachmentResponse, 0, len(r.Files))
	for _, f := range r.Files {
		files = append(files, AttachmentResponse{Name: f.Name, Path: f.Path, URL: f.URL})
	}
	return RequestResponse{
		ID:             r.RequestID,
		Name:           r.Name,
		Email:          r.Email,
		Register:       r.Register,
		Course:         r.Course,
		Semester:       r.Semester,
		Obs:            r.Obs,
		Opinion:        r.Opinion,
		Status:         r.Status,
		StatusColor:    model.StatusColor(r.Status),
		AccessCode:     r.AccessCode,
		Files:          files,
		Irregularities: irregularityResponses(r.Irregularities),
		CreatedAt:      formatTime(r.CreatedAt),
		UpdatedAt:      formatTime(r.UpdatedAt),
	}
}

// NewRequestLookupResponse 公开查询视图（不含邮箱、学号、附件）
func NewRequestLookupResponse(r *model.Request) RequestLookupResponse {
	return RequestLookupResponse{
		ID:             r.RequestID,
		Name:           r.Name,
		Semester:       r.Semester,
		Status:         r.Status,
		StatusColor:    model.StatusColor(r.Status),
		Opinion:        r.Opinion,
		AccessCode:     r.AccessCode,
		Irregularities: irregularityResponses(r.Irregularities),
		CreatedAt:      formatTime(r.CreatedAt),
	}
}

func irregularityResponses(items model.Irregularities) []IrregularityResponse {
	out := make([]IrregularityResponse, 0, len(items))
	for _, it := range items {
		out = append(out, IrregularityResponse{Name: it.Name, Description: it.Description, Authorized: it.Authorized})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
