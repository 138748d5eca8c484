package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"gradff/backend/internal/service"
	apperrors "gradff/backend/pkg/errors"
	"gradff/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	Request     *RequestHandler
	Semester    *SemesterHandler
	Coordinator *CoordinatorHandler
	Export      *ExportHandler
	Meta        *MetaHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Request:     NewRequestHandler(svc.Requests, svc.Notification, svc.Export),
		Semester:    NewSemesterHandler(svc.Semesters, svc.Export),
		Coordinator: NewCoordinatorHandler(svc.Coordinators),
		Export:      NewExportHandler(svc.Export),
		Meta:        NewMetaHandler(),
	}
}

// handleCommonError 模块错误之外的兜底：远程调用失败为 502，其余为 500
func handleCommonError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrTransport) {
		response.BadGateway(c)
		return
	}
	response.InternalError(c)
}

// bindError 请求体解析失败：超出大小限制为 413，其余为 400
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}

// sendFile 以附件形式写出下载内容
func sendFile(c *gin.Context, data []byte, filename, contentType string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}
