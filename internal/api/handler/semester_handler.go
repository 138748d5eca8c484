package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gradff/backend/internal/dto"
	"gradff/backend/internal/model"
	"gradff/backend/internal/service"
	"gradff/backend/pkg/response"
)

// SemesterHandler 学期模块 HTTP 处理器
type SemesterHandler struct {
	semesters service.SemesterRegistry
	exportSvc service.ExportService
}

// NewSemesterHandler 创建 SemesterHandler
func NewSemesterHandler(semesters service.SemesterRegistry, exportSvc service.ExportService) *SemesterHandler {
	return &SemesterHandler{semesters: semesters, exportSvc: exportSvc}
}

// ListSemesters 最近的学期（按名称倒序，最多 3 个）
// GET /api/v1/semesters
func (h *SemesterHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.semesters.Load(c.Request.Context())
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	out := make([]dto.SemesterResponse, 0, len(semesters))
	for i := range semesters {
		out = append(out, dto.NewSemesterResponse(&semesters[i]))
	}
	response.List(c, out, len(out))
}

// GetCurrentSemester 当前学期与下一个预计学期（提交表单使用）
// GET /api/v1/semesters/current
func (h *SemesterHandler) GetCurrentSemester(c *gin.Context) {
	if _, err := h.semesters.Load(c.Request.Context()); err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, dto.CurrentSemesterResponse{
		Active:    semesterResponse(h.semesters.ActiveSemester()),
		Predicted: semesterResponse(h.semesters.PredictedSemester()),
	})
}

// GetSemester 学期详情
// GET /api/v1/semesters/:id
func (h *SemesterHandler) GetSemester(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学期ID不能为空")
		return
	}

	semester, err := h.semesters.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, dto.NewSemesterResponse(semester))
}

// CreateSemester 创建学期
// POST /api/v1/semesters
func (h *SemesterHandler) CreateSemester(c *gin.Context) {
	var req dto.SemesterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	semester, err := h.semesters.Save(c.Request.Context(), &req, "")
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.Created(c, dto.NewSemesterResponse(semester))
}

// UpdateSemester 更新学期
// PUT /api/v1/semesters/:id
func (h *SemesterHandler) UpdateSemester(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学期ID不能为空")
		return
	}

	var req dto.SemesterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	semester, err := h.semesters.Save(c.Request.Context(), &req, id)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, dto.NewSemesterResponse(semester))
}

// DeleteSemester 删除学期
// DELETE /api/v1/semesters/:id
func (h *SemesterHandler) DeleteSemester(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学期ID不能为空")
		return
	}

	if err := h.semesters.Remove(c.Request.Context(), id); err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, nil)
}

// DownloadCalendar 最近学期的 iCalendar 文件
// GET /api/v1/semesters/calendar.ics
func (h *SemesterHandler) DownloadCalendar(c *gin.Context) {
	buf, filename, err := h.exportSvc.SemesterCalendar(c.Request.Context())
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}
	sendFile(c, buf.Bytes(), filename, "text/calendar; charset=utf-8")
}

// handleSemesterError 统一处理学期模块业务错误
func (h *SemesterHandler) handleSemesterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 14001, "学期不存在")
	case errors.Is(err, service.ErrSemesterDateInvalid):
		response.BadRequest(c, 14002, "学期日期无效")
	case errors.Is(err, service.ErrSemesterNameRequired):
		response.BadRequest(c, 14003, "学期名称不能为空")
	default:
		handleCommonError(c, err)
	}
}

func semesterResponse(s *model.Semester) *dto.SemesterResponse {
	if s == nil {
		return nil
	}
	resp := dto.NewSemesterResponse(s)
	return &resp
}
