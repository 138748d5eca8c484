//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gradff/backend/internal/model"
	"gradff/backend/internal/repository"
	"gradff/backend/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup：真实 PostgreSQL + 嵌入迁移
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gradff_test"),
		tcpostgres.WithUsername("gradff"),
		tcpostgres.WithPassword("gradff"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "启动 PostgreSQL 容器失败: %v\n", err)
		os.Exit(1)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取连接串失败: %v\n", err)
		os.Exit(1)
	}

	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, _ := testDB.DB()
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = testcontainers.TerminateContainer(container)
	os.Exit(code)
}

func TestIntegration_RequestLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	req := &model.Request{
		Name:       "Ana",
		Email:      "ana@example.com",
		Register:   "120000",
		Course:     "Física",
		Semester:   "2024.1",
		AccessCode: fmt.Sprintf("I%05d/2024.1", time.Now().UnixNano()%100000),
	}
	require.NoError(t, repo.Request.Create(ctx, req))

	require.NoError(t, repo.Request.Update(ctx, req.RequestID, map[string]interface{}{
		"status":      model.StatusApproved,
		"access_code": "CHANGED/2024.1",
	}))

	got, err := repo.Request.GetByID(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, req.AccessCode, got.AccessCode)
	assert.Equal(t, model.StatusApproved, got.Status)

	list, err := repo.Request.List(ctx, []repository.Filter{{Field: "semester", Value: "2024.1"}})
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	require.NoError(t, repo.Request.Delete(ctx, req.RequestID))
}

func TestIntegration_FilesCheckConstraint(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	files := model.Attachments{{Name: "1"}, {Name: "2"}, {Name: "3"}, {Name: "4"}}
	err := repo.Request.Create(ctx, &model.Request{
		Name: "Bia", Email: "bia@example.com", Register: "1", Course: "Física",
		Semester: "2024.1", AccessCode: "CHECK4/2024.1", Files: files,
	})
	assert.Error(t, err, "数据库应拒绝超过 3 个附件")
}

func TestIntegration_SemesterRecent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	for _, name := range []string{"2090.1", "2090.2", "2091.1", "2091.2"} {
		require.NoError(t, repo.Semester.Create(ctx, &model.Semester{Name: name, StartDate: "2090-01-01", EndDate: "2090-06-30"}))
	}

	list, err := repo.Semester.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2091.2", list[0].Name)
}

func TestIntegration_MigrationsRerunAndDirtyGuard(t *testing.T) {
	sqlDB, err := testDB.DB()
	require.NoError(t, err)

	// 重复执行为空操作
	require.NoError(t, database.RunMigrations(sqlDB, zap.NewNop()))

	var version int64
	var dirty bool
	require.NoError(t, sqlDB.QueryRow("SELECT version, dirty FROM "+database.MigrationsTable).Scan(&version, &dirty))
	assert.Equal(t, int64(1), version)
	assert.False(t, dirty)

	_, err = sqlDB.Exec("UPDATE " + database.MigrationsTable + " SET dirty = true")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = sqlDB.Exec("UPDATE " + database.MigrationsTable + " SET dirty = false")
	})

	err = database.RunMigrations(sqlDB, zap.NewNop())
	assert.ErrorIs(t, err, database.ErrDirtyMigration)
}
