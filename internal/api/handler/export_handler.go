package handler

import (
	"bytes"
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"gradff/backend/internal/repository"
	"gradff/backend/internal/service"
	"gradff/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportRequests 导出申请
// GET /api/v1/export/requests?format=csv|xlsx&semester=2024.1&status=...
func (h *ExportHandler) ExportRequests(c *gin.Context) {
	var (
		gen         func(context.Context, []repository.Filter) (*bytes.Buffer, string, error)
		contentType string
	)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		gen, contentType = h.exportSvc.RequestsCSV, "text/csv; charset=utf-8"
	case "xlsx":
		gen, contentType = h.exportSvc.RequestsXLSX, xlsxContentType
	default:
		response.BadRequest(c, 16003, "format 仅支持 csv 或 xlsx")
		return
	}

	buf, filename, err := gen(c.Request.Context(), queryClauses(c))
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendFile(c, buf.Bytes(), filename, contentType)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoRequests):
		response.NotFound(c, 16001, "没有可导出的申请")
	case errors.Is(err, service.ErrUnknownFilterField):
		response.BadRequest(c, 15003, "不支持的筛选字段")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}
