package dto

import "gradff/backend/internal/model"

// CoordinatorInput 创建 / 更新协调员
type CoordinatorInput struct {
	Name    *string                `json:"name" binding:"omitempty,min=1,max=100"`
	Profile map[string]interface{} `json:"profile"`
}

// CoordinatorResponse 协调员
type CoordinatorResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Profile   map[string]interface{} `json:"profile"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt string                 `json:"updated_at"`
}

func NewCoordinatorResponse(c *model.Coordinator) CoordinatorResponse {
	profile := map[string]interface{}(c.Profile)
	if profile == nil {
		profile = map[string]interface{}{}
	}
	return CoordinatorResponse{
		ID:        c.CoordinatorID,
		Name:      c.Name,
		Profile:   profile,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}
