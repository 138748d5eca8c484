package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gradff/backend/internal/dto"
	"gradff/backend/internal/service"
	"gradff/backend/pkg/response"
)

// CoordinatorHandler 协调员模块 HTTP 处理器
type CoordinatorHandler struct {
	coordinators service.CoordinatorRegistry
}

// NewCoordinatorHandler 创建 CoordinatorHandler
func NewCoordinatorHandler(coordinators service.CoordinatorRegistry) *CoordinatorHandler {
	return &CoordinatorHandler{coordinators: coordinators}
}

// ListCoordinators GET /api/v1/coordinators
func (h *CoordinatorHandler) ListCoordinators(c *gin.Context) {
	list, err := h.coordinators.Load(c.Request.Context())
	if err != nil {
		h.handleCoordinatorError(c, err)
		return
	}

	out := make([]dto.CoordinatorResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewCoordinatorResponse(&list[i]))
	}
	response.List(c, out, len(out))
}

// GetCoordinator GET /api/v1/coordinators/:id
func (h *CoordinatorHandler) GetCoordinator(c *gin.Context) {
	coord, err := h.coordinators.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCoordinatorError(c, err)
		return
	}
	response.OK(c, dto.NewCoordinatorResponse(coord))
}

// CreateCoordinator POST /api/v1/coordinators
func (h *CoordinatorHandler) CreateCoordinator(c *gin.Context) {
	var req dto.CoordinatorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	coord, err := h.coordinators.Save(c.Request.Context(), &req, "")
	if err != nil {
		h.handleCoordinatorError(c, err)
		return
	}
	response.Created(c, dto.NewCoordinatorResponse(coord))
}

// UpdateCoordinator PUT /api/v1/coordinators/:id
// profile 按键合并，未出现的键保持不变
func (h *CoordinatorHandler) UpdateCoordinator(c *gin.Context) {
	var req dto.CoordinatorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	coord, err := h.coordinators.Save(c.Request.Context(), &req, c.Param("id"))
	if err != nil {
		h.handleCoordinatorError(c, err)
		return
	}
	response.OK(c, dto.NewCoordinatorResponse(coord))
}

// DeleteCoordinator DELETE /api/v1/coordinators/:id
func (h *CoordinatorHandler) DeleteCoordinator(c *gin.Context) {
	if err := h.coordinators.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.handleCoordinatorError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *CoordinatorHandler) handleCoordinatorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCoordinatorNotFound):
		response.NotFound(c, 17001, "协调员不存在")
	case errors.Is(err, service.ErrCoordinatorNameRequired):
		response.BadRequest(c, 17002, "协调员姓名不能为空")
	default:
		handleCommonError(c, err)
	}
}
