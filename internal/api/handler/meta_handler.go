package handler

import (
	"github.com/gin-gonic/gin"

	"gradff/backend/internal/dto"
	"gradff/backend/internal/model"
	"gradff/backend/pkg/response"
)

// MetaHandler 前端选择框使用的静态元数据
type MetaHandler struct{}

func NewMetaHandler() *MetaHandler { return &MetaHandler{} }

// ListStatuses GET /api/v1/meta/statuses
func (h *MetaHandler) ListStatuses(c *gin.Context) {
	out := make([]dto.StatusOption, 0, len(model.StatusOptions))
	for _, s := range model.StatusOptions {
		out = append(out, dto.StatusOption{Value: s, Color: model.StatusColor(s)})
	}
	response.OK(c, gin.H{"list": out})
}
