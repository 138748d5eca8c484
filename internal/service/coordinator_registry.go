package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gradff/backend/internal/dto"
	"gradff/backend/internal/model"
	"gradff/backend/internal/repository"
	apperrors "gradff/backend/pkg/errors"
)

var (
	ErrCoordinatorNotFound     = errors.New("协调员不存在")
	ErrCoordinatorNameRequired = errors.New("协调员姓名不能为空")
)

// CoordinatorRegistry 协调员注册表
type CoordinatorRegistry interface {
	Load(ctx context.Context) ([]model.Coordinator, error)
	Coordinators() []model.Coordinator
	HasCoordinators() bool
	GetByID(ctx context.Context, id string) (*model.Coordinator, error)
	Save(ctx context.Context, input *dto.CoordinatorInput, id string) (*model.Coordinator, error)
	Remove(ctx context.Context, id string) error
}

type coordinatorRegistry struct {
	repo   repository.CoordinatorRepository
	logger *zap.Logger

	mu           sync.RWMutex
	coordinators []model.Coordinator
}

// NewCoordinatorRegistry 创建协调员注册表
func NewCoordinatorRegistry(repo *repository.Repository, logger *zap.Logger) CoordinatorRegistry {
	return &coordinatorRegistry{repo: repo.Coordinator, logger: logger}
}

func (r *coordinatorRegistry) Load(ctx context.Context) ([]model.Coordinator, error) {
	list, err := r.repo.List(ctx)
	if err != nil {
		r.logger.Error("加载协调员列表失败", zap.Error(err))
		return nil, apperrors.Transport("coordinator.load", err)
	}

	r.mu.Lock()
	r.coordinators = list
	r.mu.Unlock()

	return cloneCoordinators(list), nil
}

func (r *coordinatorRegistry) Coordinators() []model.Coordinator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneCoordinators(r.coordinators)
}

func (r *coordinatorRegistry) HasCoordinators() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.coordinators) > 0
}

func (r *coordinatorRegistry) GetByID(ctx context.Context, id string) (*model.Coordinator, error) {
	c, err := r.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoordinatorNotFound
		}
		r.logger.Error("查询协调员失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Transport("coordinator.get", err)
	}
	return c, nil
}

// Save 有 id 时合并更新（profile 按键合并），否则新建
func (r *coordinatorRegistry) Save(ctx context.Context, input *dto.CoordinatorInput, id string) (*model.Coordinator, error) {
	if id == "" {
		c := &model.Coordinator{Name: deref(input.Name), Profile: model.JSONMap(input.Profile)}
		if c.Name == "" {
			return nil, ErrCoordinatorNameRequired
		}
		if c.Profile == nil {
			c.Profile = model.JSONMap{}
		}
		if err := r.repo.Create(ctx, c); err != nil {
			r.logger.Error("创建协调员失败", zap.String("name", c.Name), zap.Error(err))
			return nil, apperrors.Transport("coordinator.create", err)
		}
		return c, nil
	}

	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrCoordinatorNameRequired
		}
		c.Name = *input.Name
		fields["name"] = c.Name
	}
	if input.Profile != nil {
		if c.Profile == nil {
			c.Profile = model.JSONMap{}
		}
		for k, v := range input.Profile {
			c.Profile[k] = v
		}
		fields["profile"] = c.Profile
	}

	if err := r.repo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoordinatorNotFound
		}
		r.logger.Error("更新协调员失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Transport("coordinator.update", err)
	}

	r.mu.Lock()
	for i := range r.coordinators {
		if r.coordinators[i].CoordinatorID == id {
			r.coordinators[i] = *c
			break
		}
	}
	r.mu.Unlock()
	return c, nil
}

func (r *coordinatorRegistry) Remove(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCoordinatorNotFound
		}
		r.logger.Error("删除协调员失败", zap.String("id", id), zap.Error(err))
		return apperrors.Transport("coordinator.remove", err)
	}

	r.mu.Lock()
	for i := range r.coordinators {
		if r.coordinators[i].CoordinatorID == id {
			r.coordinators = append(r.coordinators[:i:i], r.coordinators[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return nil
}

func cloneCoordinators(in []model.Coordinator) []model.Coordinator {
	if in == nil {
		return []model.Coordinator{}
	}
	out := make([]model.Coordinator, len(in))
	copy(out, in)
	return out
}
