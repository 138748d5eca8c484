package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gradff/backend/internal/dto"
	"gradff/backend/internal/model"
	"gradff/backend/internal/repository"
	"gradff/backend/pkg/blobstore"
	apperrors "gradff/backend/pkg/errors"
)

// ── 申请模块业务错误 ──

var (
	ErrRequestNotFound      = errors.New("申请不存在")
	ErrAttachmentLimit      = fmt.Errorf("每个申请最多 %d 个附件", model.MaxAttachments)
	ErrUnknownFilterField   = repository.ErrUnknownFilterField
	ErrRequestFieldRequired = errors.New("姓名、邮箱、学号、课程和学期均为必填")
	ErrRequestStatusInvalid = errors.New("申请状态无效")
	ErrAttachmentEmpty      = errors.New("待上传附件缺少文件名或内容")
	ErrAttachmentNotFound   = errors.New("附件不存在")
	ErrAttachmentForeign    = errors.New("保留的附件不属于该申请")
)

// DefaultRequestFilters 列表页默认只看待处理的申请
func DefaultRequestFilters() dto.RequestFilters {
	return dto.RequestFilters{Status: model.StatusPending}
}

// FilterClauses 将非空的筛选选择转换为等值条件
func FilterClauses(f dto.RequestFilters) []repository.Filter {
	var out []repository.Filter
	for _, c := range []repository.Filter{
		{Field: "name", Value: f.Name},
		{Field: "semester", Value: f.Semester},
		{Field: "course", Value: f.Course},
		{Field: "status", Value: f.Status},
	} {
		if c.Value != "" {
			out = append(out, c)
		}
	}
	return out
}

// RequestRegistry 申请注册表：当前结果集、按学期的结果缓存与筛选状态
type RequestRegistry interface {
	Load(ctx context.Context, filters []repository.Filter) ([]model.Request, error)
	Requests() []model.Request
	HasRequests() bool
	Filters() dto.RequestFilters
	SetFilters(f dto.RequestFilters)
	ResetFilters()
	GetByID(ctx context.Context, id string) (*model.Request, error)
	GetByAccessCode(ctx context.Context, code string) (*model.Request, error)
	// Save 返回访问码：更新时为已保存的访问码，新建时为新生成的
	Save(ctx context.Context, input *dto.RequestInput, id string) (string, error)
	Remove(ctx context.Context, id string) error
	UploadFile(ctx context.Context, file dto.FileInput, folder string) (*model.Attachment, error)
	RemoveFile(ctx context.Context, objectPath string) error
}

type requestRegistry struct {
	repo   repository.RequestRepository
	blobs  blobstore.Store
	cache  *requestCache
	logger *zap.Logger

	mu       sync.RWMutex
	requests []model.Request
	filters  dto.RequestFilters
}

// NewRequestRegistry 创建申请注册表
func NewRequestRegistry(
	repo *repository.Repository,
	blobs blobstore.Store,
	cacheSize int,
	cacheTTL time.Duration,
	logger *zap.Logger,
) RequestRegistry {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	return &requestRegistry{
		repo:    repo.Request,
		blobs:   blobs,
		cache:   newRequestCache(cacheSize, cacheTTL),
		logger:  logger,
		filters: DefaultRequestFilters(),
	}
}

// ────────────────────── Load ──────────────────────

// Load 查询并替换当前结果集。含 semester 条件时优先读缓存。
func (r *requestRegistry) Load(ctx context.Context, filters []repository.Filter) ([]model.Request, error) {
	for _, f := range filters {
		if !repository.ValidFilterField(f.Field) {
			return nil, ErrUnknownFilterField
		}
	}

	key, semester, cacheable := cacheKey(filters)
	var gen uint64
	if cacheable {
		if cached, ok := r.cache.get(key); ok {
			r.setRequests(cached)
			return cloneRequests(cached), nil
		}
		gen = r.cache.generation(semester)
	}

	list, err := r.repo.List(ctx, filters)
	if err != nil {
		r.logger.Error("加载申请列表失败", zap.Any("filters", filters), zap.Error(err))
		return nil, apperrors.Transport("request.load", err)
	}
	if list == nil {
		list = []model.Request{}
	}

	r.setRequests(list)
	if cacheable {
		r.cache.put(key, semester, gen, cloneRequests(list))
	}
	return cloneRequests(list), nil
}

func (r *requestRegistry) setRequests(list []model.Request) {
	r.mu.Lock()
	r.requests = cloneRequests(list)
	r.mu.Unlock()
}

func (r *requestRegistry) Requests() []model.Request {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneRequests(r.requests)
}

func (r *requestRegistry) HasRequests() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.requests) > 0
}

// ── 筛选状态 ──

func (r *requestRegistry) Filters() dto.RequestFilters {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filters
}

func (r *requestRegistry) SetFilters(f dto.RequestFilters) {
	r.mu.Lock()
	r.filters = f
	r.mu.Unlock()
}

func (r *requestRegistry) ResetFilters() {
	r.SetFilters(DefaultRequestFilters())
}

// ────────────────────── GetByID / GetByAccessCode ──────────────────────

func (r *requestRegistry) GetByID(ctx context.Context, id string) (*model.Request, error) {
	req, err := r.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		r.logger.Error("查询申请失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Transport("request.get", err)
	}
	return req, nil
}

func (r *requestRegistry) GetByAccessCode(ctx context.Context, code string) (*model.Request, error) {
	req, err := r.repo.GetByAccessCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		r.logger.Error("按访问码查询申请失败", zap.String("code", code), zap.Error(err))
		return nil, apperrors.Transport("request.lookup", err)
	}
	return req, nil
}

// ────────────────────── Save ──────────────────────

func (r *requestRegistry) Save(ctx context.Context, input *dto.RequestInput, id string) (string, error) {
	// 1. 区分已保存附件与待上传附件，超过上限时不做任何 I/O
	var kept model.Attachments
	var pending []dto.FileInput
	for _, f := range input.Files {
		if f.Kept() {
			kept = append(kept, model.Attachment{Name: f.Name, Path: f.Path, URL: f.URL})
		} else {
			pending = append(pending, f)
		}
	}
	if len(kept)+len(pending) > model.MaxAttachments {
		return "", ErrAttachmentLimit
	}
	if input.Status != nil && !model.ValidStatus(*input.Status) {
		return "", ErrRequestStatusInvalid
	}
	for _, f := range pending {
		if f.Name == "" || f.Content == nil {
			return "", ErrAttachmentEmpty
		}
	}

	var existing *model.Request
	if id != "" {
		var err error
		if existing, err = r.GetByID(ctx, id); err != nil {
			return "", err
		}
		if kept, err = ownedAttachments(existing.Files, kept); err != nil {
			return "", err
		}
	} else {
		// 新申请还没有已保存的附件
		if len(kept) > 0 {
			return "", ErrAttachmentForeign
		}
		if err := validateNewRequest(input); err != nil {
			return "", err
		}
	}

	semester := deref(input.Semester)
	if semester == "" && existing != nil {
		semester = existing.Semester
	}

	// 2. 依次上传新附件
	files := kept
	for _, f := range pending {
		att, err := r.UploadFile(ctx, f, semester)
		if err != nil {
			return "", err
		}
		files = append(files, *att)
	}
	if files == nil {
		files = model.Attachments{}
	}

	if existing != nil {
		return r.update(ctx, existing, input, files)
	}
	return r.create(ctx, input, files)
}

func (r *requestRegistry) create(ctx context.Context, input *dto.RequestInput, files model.Attachments) (string, error) {
	semester := deref(input.Semester)
	code, err := NewAccessCode(semester)
	if err != nil {
		r.logger.Error("生成访问码失败", zap.Error(err))
		return "", err
	}

	req := &model.Request{
		Name:           deref(input.Name),
		Email:          deref(input.Email),
		Register:       deref(input.Register),
		Course:         deref(input.Course),
		Semester:       semester,
		Obs:            deref(input.Obs),
		Opinion:        deref(input.Opinion),
		Status:         deref(input.Status),
		Files:          files,
		Irregularities: toIrregularities(input.Irregularities),
		AccessCode:     code,
	}
	if req.Status == "" {
		req.Status = model.StatusPending
	}

	if err := r.repo.Create(ctx, req); err != nil {
		r.logger.Error("创建申请失败", zap.String("semester", semester), zap.Error(err))
		return "", apperrors.Transport("request.create", err)
	}

	r.cache.invalidate(semester)
	return code, nil
}

func (r *requestRegistry) update(ctx context.Context, existing *model.Request, input *dto.RequestInput, files model.Attachments) (string, error) {
	id := existing.RequestID
	oldSemester := existing.Semester
	fields := map[string]interface{}{}

	set := func(col string, v *string, dst *string) {
		if v != nil {
			*dst = *v
			fields[col] = *v
		}
	}
	set("name", input.Name, &existing.Name)
	set("email", input.Email, &existing.Email)
	set("register", input.Register, &existing.Register)
	set("course", input.Course, &existing.Course)
	set("semester", input.Semester, &existing.Semester)
	set("obs", input.Obs, &existing.Obs)
	set("opinion", input.Opinion, &existing.Opinion)
	set("status", input.Status, &existing.Status)
	if input.Irregularities != nil {
		existing.Irregularities = toIrregularities(input.Irregularities)
		fields["irregularities"] = existing.Irregularities
	}
	if input.Files != nil {
		existing.Files = files
		fields["files"] = files
	}

	if err := r.repo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrRequestNotFound
		}
		r.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
		return "", apperrors.Transport("request.update", err)
	}

	r.mu.Lock()
	for i := range r.requests {
		if r.requests[i].RequestID == id {
			r.requests[i] = *existing
			break
		}
	}
	r.mu.Unlock()

	r.cache.invalidate(oldSemester)
	r.cache.invalidate(existing.Semester)
	return existing.AccessCode, nil
}

// ────────────────────── Remove ──────────────────────

func (r *requestRegistry) Remove(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		r.logger.Error("删除申请失败", zap.String("id", id), zap.Error(err))
		return apperrors.Transport("request.remove", err)
	}

	r.mu.Lock()
	for i := range r.requests {
		if r.requests[i].RequestID == id {
			r.requests = append(r.requests[:i:i], r.requests[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.cache.invalidate(existing.Semester)
	return nil
}

// ────────────────────── 附件 ──────────────────────

// UploadFile 存放到 {folder}/{uuid}_{文件名}，每次调用生成新的 uuid
func (r *requestRegistry) UploadFile(ctx context.Context, file dto.FileInput, folder string) (*model.Attachment, error) {
	if file.Name == "" || file.Content == nil {
		return nil, ErrAttachmentEmpty
	}
	base := path.Base(strings.ReplaceAll(file.Name, "\\", "/"))
	objectPath := path.Join(folder, uuid.NewString()+"_"+base)

	obj, err := r.blobs.Put(ctx, objectPath, file.Content)
	if err != nil {
		r.logger.Error("上传附件失败", zap.String("path", objectPath), zap.Error(err))
		if errors.Is(err, blobstore.ErrInvalidPath) {
			return nil, err
		}
		return nil, apperrors.Transport("request.upload", err)
	}

	return &model.Attachment{
		Name: file.Name,
		Path: obj.Path,
		URL:  r.blobs.URL(obj.Path),
	}, nil
}

// RemoveFile 删除单个附件；错误原样交给调用方决定如何补偿
func (r *requestRegistry) RemoveFile(ctx context.Context, objectPath string) error {
	if err := r.blobs.Delete(ctx, objectPath); err != nil {
		r.logger.Error("删除附件失败", zap.String("path", objectPath), zap.Error(err))
		if errors.Is(err, blobstore.ErrNotFound) {
			return ErrAttachmentNotFound
		}
		if errors.Is(err, blobstore.ErrInvalidPath) {
			return err
		}
		return apperrors.Transport("request.remove_file", err)
	}
	return nil
}

// ── helpers ──

// ownedAttachments 只接受记录中已有的路径，名称和 URL 以存储的为准
func ownedAttachments(stored, kept model.Attachments) (model.Attachments, error) {
	if len(kept) == 0 {
		return kept, nil
	}
	byPath := make(map[string]model.Attachment, len(stored))
	for _, a := range stored {
		byPath[a.Path] = a
	}
	out := make(model.Attachments, 0, len(kept))
	for _, k := range kept {
		a, ok := byPath[k.Path]
		if !ok {
			return nil, ErrAttachmentForeign
		}
		out = append(out, a)
	}
	return out, nil
}

func validateNewRequest(input *dto.RequestInput) error {
	for _, v := range []*string{input.Name, input.Email, input.Register, input.Course, input.Semester} {
		if v == nil || strings.TrimSpace(*v) == "" {
			return ErrRequestFieldRequired
		}
	}
	return nil
}

func toIrregularities(in []dto.IrregularityInput) model.Irregularities {
	out := make(model.Irregularities, 0, len(in))
	for _, it := range in {
		out = append(out, model.Irregularity{Name: it.Name, Description: it.Description, Authorized: it.Authorized})
	}
	return out
}

func cloneRequests(in []model.Request) []model.Request {
	if in == nil {
		return []model.Request{}
	}
	out := make([]model.Request, len(in))
	copy(out, in)
	return out
}
