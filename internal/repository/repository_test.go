package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gradff/backend/internal/model"
)

// newTestDB 内存 SQLite；单连接保证所有查询落在同一个库上
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Semester{},
		&model.Coordinator{},
		&model.Request{},
	))
	return db
}

func newRequest(name, semester, code string) *model.Request {
	return &model.Request{
		Name:       name,
		Email:      name + "@example.com",
		Register:   "1200",
		Course:     "Física",
		Semester:   semester,
		AccessCode: code,
		Files:      model.Attachments{},
		Irregularities: model.Irregularities{
			{Name: "Falta", Description: "sem nota", Authorized: false},
		},
	}
}

// ────────────────────── Request ──────────────────────

func TestRequestRepo_CreateAndGet(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	req := newRequest("ana", "2024.1", "AAAAAA/2024.1")
	require.NoError(t, repo.Request.Create(ctx, req))
	assert.NotEmpty(t, req.RequestID)
	assert.Equal(t, model.StatusPending, req.Status)
	assert.False(t, req.CreatedAt.IsZero())

	got, err := repo.Request.GetByID(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA/2024.1", got.AccessCode)
	require.Len(t, got.Irregularities, 1)
	assert.Equal(t, "Falta", got.Irregularities[0].Name)

	byCode, err := repo.Request.GetByAccessCode(ctx, "AAAAAA/2024.1")
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, byCode.RequestID)

	_, err = repo.Request.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRequestRepo_ListOrderAndFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepo(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, r := range []*model.Request{
		newRequest("carla", "2024.1", "C/2024.1"),
		newRequest("bruno", "2024.1", "B/2024.1"),
		newRequest("ana", "2024.1", "A/2024.1"),
		newRequest("davi", "2023.2", "D/2023.2"),
	} {
		// carla 最早；bruno 与 ana 同一时刻，按名字排序
		r.CreatedAt = base.Add(time.Duration(min(i, 1)) * time.Minute)
		require.NoError(t, repo.Create(ctx, r))
	}

	list, err := repo.List(ctx, []Filter{{Field: "semester", Value: "2024.1"}})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"carla", "ana", "bruno"}, []string{list[0].Name, list[1].Name, list[2].Name})

	list, err = repo.List(ctx, []Filter{{Field: "semester", Value: "2024.1"}, {Field: "name", Value: "ana"}})
	require.NoError(t, err)
	require.Len(t, list, 1)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = repo.List(ctx, []Filter{{Field: "access_code", Value: "x"}})
	assert.ErrorIs(t, err, ErrUnknownFilterField)
}

func TestRequestRepo_UpdateNeverTouchesAccessCode(t *testing.T) {
	repo := NewRequestRepo(newTestDB(t))
	ctx := context.Background()

	req := newRequest("ana", "2024.1", "KEEP00/2024.1")
	require.NoError(t, repo.Create(ctx, req))

	err := repo.Update(ctx, req.RequestID, map[string]interface{}{
		"status":      model.StatusApproved,
		"access_code": "HACKED/2024.1",
		"files":       model.Attachments{{Name: "a.pdf", Path: "2024.1/u_a.pdf", URL: "/files/2024.1/u_a.pdf"}},
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, "KEEP00/2024.1", got.AccessCode)
	assert.Equal(t, model.StatusApproved, got.Status)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "a.pdf", got.Files[0].Name)

	err = repo.Update(ctx, "missing", map[string]interface{}{"status": model.StatusRejected})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRequestRepo_Delete(t *testing.T) {
	repo := NewRequestRepo(newTestDB(t))
	ctx := context.Background()

	req := newRequest("ana", "2024.1", "DEL000/2024.1")
	require.NoError(t, repo.Create(ctx, req))
	require.NoError(t, repo.Delete(ctx, req.RequestID))
	assert.ErrorIs(t, repo.Delete(ctx, req.RequestID), gorm.ErrRecordNotFound)
}

// ────────────────────── Semester ──────────────────────

func TestSemesterRepo_ListRecent(t *testing.T) {
	repo := NewSemesterRepo(newTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"2023.1", "2024.2", "2023.2", "2024.1"} {
		require.NoError(t, repo.Create(ctx, &model.Semester{Name: name, StartDate: "2024-01-01", EndDate: "2024-06-30"}))
	}

	list, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024.2", list[0].Name)
	assert.Equal(t, "2024.1", list[1].Name)
	assert.Equal(t, "2023.2", list[2].Name)
}

func TestSemesterRepo_UpdateMerge(t *testing.T) {
	repo := NewSemesterRepo(newTestDB(t))
	ctx := context.Background()

	s := &model.Semester{Name: "2024.1", Title: "Primeiro", StartDate: "2024-03-01", EndDate: "2024-07-15"}
	require.NoError(t, repo.Create(ctx, s))

	require.NoError(t, repo.Update(ctx, s.SemesterID, map[string]interface{}{"end_date": "2024-07-31"}))

	got, err := repo.GetByID(ctx, s.SemesterID)
	require.NoError(t, err)
	assert.Equal(t, "Primeiro", got.Title)
	assert.Equal(t, "2024-07-31", got.EndDate)
}

// ────────────────────── Coordinator / User ──────────────────────

func TestCoordinatorRepo_ListByName(t *testing.T) {
	repo := NewCoordinatorRepo(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Coordinator{Name: "Zeca", Profile: model.JSONMap{"course": "Física"}}))
	require.NoError(t, repo.Create(ctx, &model.Coordinator{Name: "Alice"}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, "Física", list[1].Profile["course"])
}

func TestUserRepo_GetByEmail(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	ctx := context.Background()

	u := &model.User{Name: "Staff", Email: "staff@example.com", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByEmail(ctx, "staff@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)

	assert.Error(t, repo.Create(ctx, &model.User{Name: "Dup", Email: "staff@example.com", PasswordHash: "y"}))
}
