package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gradff/backend/internal/dto"
	"gradff/backend/internal/model"
	"gradff/backend/internal/repository"
	apperrors "gradff/backend/pkg/errors"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterNotFound     = errors.New("学期不存在")
	ErrSemesterDateInvalid  = errors.New("学期日期格式应为 YYYY-MM-DD，且结束日期不得早于开始日期")
	ErrSemesterNameRequired = errors.New("学期名称不能为空")
)

// recentSemesterLimit 列表只保留最近的学期数
const recentSemesterLimit = 3

// SemesterRegistry 学期注册表：持有最近学期列表及其推导状态
type SemesterRegistry interface {
	Load(ctx context.Context) ([]model.Semester, error)
	Semesters() []model.Semester
	ActiveSemester() *model.Semester
	PredictedSemester() *model.Semester
	GetByID(ctx context.Context, id string) (*model.Semester, error)
	Save(ctx context.Context, input *dto.SemesterInput, id string) (*model.Semester, error)
	Remove(ctx context.Context, id string) error
}

type semesterRegistry struct {
	repo   repository.SemesterRepository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger

	mu        sync.RWMutex
	semesters []model.Semester
}

// NewSemesterRegistry 创建学期注册表；now 为 nil 时使用 time.Now
func NewSemesterRegistry(repo *repository.Repository, loc *time.Location, now func() time.Time, logger *zap.Logger) SemesterRegistry {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &semesterRegistry{
		repo:   repo.Semester,
		loc:    loc,
		now:    now,
		logger: logger,
	}
}

// SemesterStatus 在 loc 时区下判断学期状态：
// [start 00:00:00, end 23:59:59] 内为 ativo，start 之前为 previsto，其余为 encerrado。
// 日期无法解析时视为 encerrado。
func SemesterStatus(s *model.Semester, now time.Time, loc *time.Location) string {
	start, err := time.ParseInLocation(model.DateLayout, s.StartDate, loc)
	if err != nil {
		return model.SemesterClosed
	}
	endDay, err := time.ParseInLocation(model.DateLayout, s.EndDate, loc)
	if err != nil {
		return model.SemesterClosed
	}
	end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, 0, loc)

	switch {
	case now.Before(start):
		return model.SemesterPredicted
	case !now.After(end):
		return model.SemesterActive
	default:
		return model.SemesterClosed
	}
}

// ────────────────────── Load ──────────────────────

func (r *semesterRegistry) Load(ctx context.Context) ([]model.Semester, error) {
	semesters, err := r.repo.ListRecent(ctx, recentSemesterLimit)
	if err != nil {
		r.logger.Error("加载学期列表失败", zap.Error(err))
		return nil, apperrors.Transport("semester.load", err)
	}

	now := r.now()
	for i := range semesters {
		semesters[i].Status = SemesterStatus(&semesters[i], now, r.loc)
	}

	r.mu.Lock()
	r.semesters = semesters
	r.mu.Unlock()

	return cloneSemesters(semesters), nil
}

func (r *semesterRegistry) Semesters() []model.Semester {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSemesters(r.semesters)
}

func (r *semesterRegistry) ActiveSemester() *model.Semester {
	return r.firstWithStatus(model.SemesterActive)
}

func (r *semesterRegistry) PredictedSemester() *model.Semester {
	return r.firstWithStatus(model.SemesterPredicted)
}

func (r *semesterRegistry) firstWithStatus(status string) *model.Semester {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.semesters {
		if r.semesters[i].Status == status {
			s := r.semesters[i]
			return &s
		}
	}
	return nil
}

// ────────────────────── GetByID ──────────────────────

func (r *semesterRegistry) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	semester, err := r.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		r.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Transport("semester.get", err)
	}
	semester.Status = SemesterStatus(semester, r.now(), r.loc)
	return semester, nil
}

// ────────────────────── Save ──────────────────────

// Save 有 id 时合并更新，否则新建
func (r *semesterRegistry) Save(ctx context.Context, input *dto.SemesterInput, id string) (*model.Semester, error) {
	if id == "" {
		return r.create(ctx, input)
	}
	return r.update(ctx, input, id)
}

func (r *semesterRegistry) create(ctx context.Context, input *dto.SemesterInput) (*model.Semester, error) {
	semester := &model.Semester{
		Name:      deref(input.Name),
		Title:     deref(input.Title),
		StartDate: deref(input.StartDate),
		EndDate:   deref(input.EndDate),
	}
	if semester.Name == "" {
		return nil, ErrSemesterNameRequired
	}
	if err := validateSemesterDates(semester.StartDate, semester.EndDate); err != nil {
		return nil, err
	}

	if err := r.repo.Create(ctx, semester); err != nil {
		r.logger.Error("创建学期失败", zap.String("name", semester.Name), zap.Error(err))
		return nil, apperrors.Transport("semester.create", err)
	}
	semester.Status = SemesterStatus(semester, r.now(), r.loc)
	return semester, nil
}

func (r *semesterRegistry) update(ctx context.Context, input *dto.SemesterInput, id string) (*model.Semester, error) {
	semester, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrSemesterNameRequired
		}
		semester.Name = *input.Name
		fields["name"] = *input.Name
	}
	if input.Title != nil {
		semester.Title = *input.Title
		fields["title"] = *input.Title
	}
	if input.StartDate != nil {
		semester.StartDate = *input.StartDate
		fields["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		semester.EndDate = *input.EndDate
		fields["end_date"] = *input.EndDate
	}
	if err := validateSemesterDates(semester.StartDate, semester.EndDate); err != nil {
		return nil, err
	}

	if err := r.repo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		r.logger.Error("更新学期失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Transport("semester.update", err)
	}

	semester.Status = SemesterStatus(semester, r.now(), r.loc)
	return semester, nil
}

// ────────────────────── Remove ──────────────────────

func (r *semesterRegistry) Remove(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemesterNotFound
		}
		r.logger.Error("删除学期失败", zap.String("id", id), zap.Error(err))
		return apperrors.Transport("semester.remove", err)
	}

	r.mu.Lock()
	for i := range r.semesters {
		if r.semesters[i].SemesterID == id {
			r.semesters = append(r.semesters[:i:i], r.semesters[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return nil
}

// ── helpers ──

func validateSemesterDates(start, end string) error {
	s, err := time.Parse(model.DateLayout, start)
	if err != nil {
		return ErrSemesterDateInvalid
	}
	e, err := time.Parse(model.DateLayout, end)
	if err != nil {
		return ErrSemesterDateInvalid
	}
	if e.Before(s) {
		return ErrSemesterDateInvalid
	}
	return nil
}

func cloneSemesters(in []model.Semester) []model.Semester {
	if in == nil {
		return []model.Semester{}
	}
	out := make([]model.Semester, len(in))
	copy(out, in)
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
