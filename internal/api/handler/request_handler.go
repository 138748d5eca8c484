package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"gradff/backend/internal/dto"
	"gradff/backend/internal/repository"
	"gradff/backend/internal/service"
	"gradff/backend/pkg/blobstore"
	"gradff/backend/pkg/mailer"
	"gradff/backend/pkg/response"
)

// RequestHandler 申请模块 HTTP 处理器
type RequestHandler struct {
	requests     service.RequestRegistry
	notification service.NotificationService
	exportSvc    service.ExportService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(
	requests service.RequestRegistry,
	notification service.NotificationService,
	exportSvc service.ExportService,
) *RequestHandler {
	return &RequestHandler{requests: requests, notification: notification, exportSvc: exportSvc}
}

// CreateRequest 学生提交申请
// POST /api/v1/requests
//
// 支持两种方式：
//   - multipart/form-data: field="payload" 为 JSON，field="files" 为待上传附件（可多个）
//   - application/json: 仅数据，无附件上传
//
// 状态与意见由工作人员处理，提交时忽略。
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	input, cleanup, err := bindRequestInput(c)
	if err != nil {
		bindError(c, err)
		return
	}
	defer cleanup()

	input.Status = nil
	input.Opinion = nil

	code, err := h.requests.Save(c.Request.Context(), input, "")
	if err != nil {
		handleRequestError(c, err)
		return
	}

	response.Created(c, dto.SaveRequestResponse{AccessCode: code})
}

// UpdateRequest 工作人员更新申请
// PUT /api/v1/requests/:id
//
// payload.files 为完整的附件列表（已保存的附件带 url），上传的文件追加在其后；
// 省略 files 且无上传时附件保持不变。
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	input, cleanup, err := bindRequestInput(c)
	if err != nil {
		bindError(c, err)
		return
	}
	defer cleanup()

	code, err := h.requests.Save(c.Request.Context(), input, id)
	if err != nil {
		handleRequestError(c, err)
		return
	}

	response.OK(c, dto.SaveRequestResponse{AccessCode: code})
}

// ListRequests 申请列表
// GET /api/v1/requests?semester=&status=&course=&name=&email=&register=
//
// 未带任何筛选参数时使用已保存的筛选选择。
func (h *RequestHandler) ListRequests(c *gin.Context) {
	clauses := queryClauses(c)
	if clauses == nil {
		clauses = service.FilterClauses(h.requests.Filters())
	}

	list, err := h.requests.Load(c.Request.Context(), clauses)
	if err != nil {
		handleRequestError(c, err)
		return
	}

	out := make([]dto.RequestResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewRequestResponse(&list[i]))
	}
	response.List(c, out, len(out))
}

// GetRequest 申请详情
// GET /api/v1/requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.requests.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleRequestError(c, err)
		return
	}
	response.OK(c, dto.NewRequestResponse(req))
}

// LookupRequest 学生凭访问码查询进度
// GET /api/v1/requests/lookup?code=ABC123/2024.1
func (h *RequestHandler) LookupRequest(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		response.BadRequest(c, 10001, "code 不能为空")
		return
	}

	req, err := h.requests.GetByAccessCode(c.Request.Context(), code)
	if err != nil {
		handleRequestError(c, err)
		return
	}
	response.OK(c, dto.NewRequestLookupResponse(req))
}

// DownloadReceipt 下载 PDF 回执
// GET /api/v1/requests/:id/receipt
func (h *RequestHandler) DownloadReceipt(c *gin.Context) {
	buf, filename, err := h.exportSvc.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleRequestError(c, err)
		return
	}
	sendFile(c, buf.Bytes(), filename, "application/pdf")
}

// DeleteRequest 删除申请
// DELETE /api/v1/requests/:id
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	if err := h.requests.Remove(c.Request.Context(), c.Param("id")); err != nil {
		handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// NotifyRequest 向申请人发送处理结果邮件
// POST /api/v1/requests/:id/notify
func (h *RequestHandler) NotifyRequest(c *gin.Context) {
	if err := h.notification.NotifyDecision(c.Request.Context(), c.Param("id")); err != nil {
		handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 筛选选择 ──

// GetFilters GET /api/v1/requests/filters
func (h *RequestHandler) GetFilters(c *gin.Context) {
	response.OK(c, h.requests.Filters())
}

// SetFilters PUT /api/v1/requests/filters
func (h *RequestHandler) SetFilters(c *gin.Context) {
	var f dto.RequestFilters
	if err := c.ShouldBindJSON(&f); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	h.requests.SetFilters(f)
	response.OK(c, h.requests.Filters())
}

// ResetFilters DELETE /api/v1/requests/filters
func (h *RequestHandler) ResetFilters(c *gin.Context) {
	h.requests.ResetFilters()
	response.OK(c, h.requests.Filters())
}

// DeleteFile 删除单个附件
// DELETE /api/v1/files?path=2024.1/xxx_doc.pdf
func (h *RequestHandler) DeleteFile(c *gin.Context) {
	objectPath := c.Query("path")
	if objectPath == "" {
		response.BadRequest(c, 10001, "path 不能为空")
		return
	}
	if err := h.requests.RemoveFile(c.Request.Context(), objectPath); err != nil {
		handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleRequestError 统一处理申请模块业务错误
func handleRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 15001, "申请不存在")
	case errors.Is(err, service.ErrAttachmentLimit):
		response.Unprocessable(c, 15002, err.Error())
	case errors.Is(err, service.ErrUnknownFilterField):
		response.BadRequest(c, 15003, "不支持的筛选字段")
	case errors.Is(err, service.ErrRequestFieldRequired):
		response.BadRequest(c, 15004, err.Error())
	case errors.Is(err, service.ErrRequestStatusInvalid):
		response.BadRequest(c, 15005, "申请状态无效")
	case errors.Is(err, service.ErrAttachmentEmpty):
		response.BadRequest(c, 15006, err.Error())
	case errors.Is(err, service.ErrAttachmentForeign):
		response.BadRequest(c, 15010, err.Error())
	case errors.Is(err, service.ErrAttachmentNotFound):
		response.NotFound(c, 15007, "附件不存在")
	case errors.Is(err, blobstore.ErrInvalidPath):
		response.BadRequest(c, 15008, "附件路径无效")
	case errors.Is(err, mailer.ErrNoRecipient):
		response.Unprocessable(c, 15009, "申请人邮箱为空，无法发送通知")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}

// ── 请求解析 ──

// bindRequestInput 解析 JSON 或 multipart 请求体；cleanup 关闭已打开的上传文件
func bindRequestInput(c *gin.Context) (*dto.RequestInput, func(), error) {
	noop := func() {}
	var input dto.RequestInput

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&input); err != nil {
			return nil, noop, err
		}
		return &input, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, err
	}
	if payload := form.Value["payload"]; len(payload) > 0 {
		if err := json.Unmarshal([]byte(payload[0]), &input); err != nil {
			return nil, noop, err
		}
	}
	// 与 ShouldBindJSON 使用同一套 binding 校验
	if err := binding.Validator.ValidateStruct(&input); err != nil {
		return nil, noop, err
	}

	uploads, closers, err := openUploads(form.File["files"])
	cleanup := func() {
		for _, cl := range closers {
			cl.Close()
		}
	}
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	if len(uploads) > 0 {
		input.Files = append(input.Files, uploads...)
	}
	return &input, cleanup, nil
}

func openUploads(headers []*multipart.FileHeader) ([]dto.FileInput, []io.Closer, error) {
	files := make([]dto.FileInput, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, f)
		files = append(files, dto.FileInput{Name: fh.Filename, Content: f})
	}
	return files, closers, nil
}

// queryClauses 从查询参数提取等值条件；没有任何筛选参数时返回 nil
func queryClauses(c *gin.Context) []repository.Filter {
	var out []repository.Filter
	for _, field := range repository.FilterFields {
		if v := strings.TrimSpace(c.Query(field)); v != "" {
			out = append(out, repository.Filter{Field: field, Value: v})
		}
	}
	return out
}
