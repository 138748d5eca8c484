package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"gradff/backend/internal/model"
	"gradff/backend/internal/repository"
	"gradff/backend/pkg/blobstore"
)

// ── Mock RequestRepository ──

type mockRequestRepo struct {
	mu        sync.Mutex
	requests  map[string]*model.Request
	seq       int
	listCalls int
	err       error // 非 nil 时所有操作返回该错误
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[string]*model.Request)}
}

func (m *mockRequestRepo) Create(_ context.Context, r *model.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.seq++
	if r.RequestID == "" {
		r.RequestID = fmt.Sprintf("req-%d", m.seq)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Date(2024, 3, 1, 0, 0, m.seq, 0, time.UTC)
	}
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.requests[r.RequestID] = &cp
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequestRepo) GetByAccessCode(_ context.Context, code string) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.requests {
		if r.AccessCode == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func requestField(r *model.Request, field string) string {
	switch field {
	case "name":
		return r.Name
	case "semester":
		return r.Semester
	case "course":
		return r.Course
	case "status":
		return r.Status
	case "email":
		return r.Email
	case "register":
		return r.Register
	}
	return ""
}

func (m *mockRequestRepo) List(_ context.Context, filters []repository.Filter) ([]model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Request
	for _, r := range m.requests {
		match := true
		for _, f := range filters {
			if !repository.ValidFilterField(f.Field) {
				return nil, repository.ErrUnknownFilterField
			}
			if requestField(r, f.Field) != f.Value {
				match = false
			}
		}
		if match {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *mockRequestRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	r, ok := m.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			r.Name = v.(string)
		case "email":
			r.Email = v.(string)
		case "register":
			r.Register = v.(string)
		case "course":
			r.Course = v.(string)
		case "semester":
			r.Semester = v.(string)
		case "obs":
			r.Obs = v.(string)
		case "opinion":
			r.Opinion = v.(string)
		case "status":
			r.Status = v.(string)
		case "files":
			r.Files = v.(model.Attachments)
		case "irregularities":
			r.Irregularities = v.(model.Irregularities)
		case "access_code":
			panic("access_code 不应被更新")
		}
	}
	return nil
}

func (m *mockRequestRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.requests[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.requests, id)
	return nil
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
	err       error
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, s *model.Semester) error {
	if m.err != nil {
		return m.err
	}
	if s.SemesterID == "" {
		s.SemesterID = "sem-" + s.Name
	}
	cp := *s
	m.semesters[s.SemesterID] = &cp
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.semesters[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) ListRecent(_ context.Context, limit int) ([]model.Semester, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Semester
	for _, s := range m.semesters {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	if m.err != nil {
		return m.err
	}
	s, ok := m.semesters[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			s.Name = v.(string)
		case "title":
			s.Title = v.(string)
		case "start_date":
			s.StartDate = v.(string)
		case "end_date":
			s.EndDate = v.(string)
		}
	}
	return nil
}

func (m *mockSemesterRepo) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.semesters[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.semesters, id)
	return nil
}

// ── Mock CoordinatorRepository ──

type mockCoordinatorRepo struct {
	coordinators map[string]*model.Coordinator
	err          error
}

func newMockCoordinatorRepo() *mockCoordinatorRepo {
	return &mockCoordinatorRepo{coordinators: make(map[string]*model.Coordinator)}
}

func (m *mockCoordinatorRepo) Create(_ context.Context, c *model.Coordinator) error {
	if m.err != nil {
		return m.err
	}
	if c.CoordinatorID == "" {
		c.CoordinatorID = "coord-" + c.Name
	}
	cp := *c
	m.coordinators[c.CoordinatorID] = &cp
	return nil
}

func (m *mockCoordinatorRepo) GetByID(_ context.Context, id string) (*model.Coordinator, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.coordinators[id]; ok {
		cp := *c
		cp.Profile = model.JSONMap{}
		for k, v := range c.Profile {
			cp.Profile[k] = v
		}
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCoordinatorRepo) List(_ context.Context) ([]model.Coordinator, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Coordinator
	for _, c := range m.coordinators {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCoordinatorRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	if m.err != nil {
		return m.err
	}
	c, ok := m.coordinators[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := fields["profile"]; ok {
		c.Profile = v.(model.JSONMap)
	}
	return nil
}

func (m *mockCoordinatorRepo) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.coordinators[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.coordinators, id)
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id 与 "email:"+email
	err   error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *model.User) error {
	if m.err != nil {
		return m.err
	}
	if u.UserID == "" {
		u.UserID = "user-" + u.Email
	}
	m.users[u.UserID] = u
	m.users["email:"+u.Email] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock blob store ──

type mockBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
	putErr  error
	delErr  error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(_ context.Context, objectPath string, r io.Reader) (*blobstore.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, objectPath)
	if m.putErr != nil {
		return nil, m.putErr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, err
	}
	m.objects[objectPath] = buf.Bytes()
	return &blobstore.Object{Path: objectPath, Size: n}, nil
}

func (m *mockBlobStore) URL(objectPath string) string {
	return "http://blobs.test/files/" + objectPath
}

func (m *mockBlobStore) Delete(_ context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	if _, ok := m.objects[objectPath]; !ok {
		return blobstore.ErrNotFound
	}
	delete(m.objects, objectPath)
	return nil
}

func (m *mockBlobStore) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.puts)
}

// newMockRepository 组装 Repository 聚合
func newMockRepository() (*repository.Repository, *mockRequestRepo, *mockSemesterRepo, *mockCoordinatorRepo, *mockUserRepo) {
	req := newMockRequestRepo()
	sem := newMockSemesterRepo()
	coord := newMockCoordinatorRepo()
	user := newMockUserRepo()
	return &repository.Repository{
		Request:     req,
		Semester:    sem,
		Coordinator: coord,
		User:        user,
	}, req, sem, coord, user
}
