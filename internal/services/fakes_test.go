package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bim-viewer-service/internal/identity"
	"bim-viewer-service/internal/models"
	"bim-viewer-service/internal/queue"
	"bim-viewer-service/internal/repository"
)

// In-memory stand-ins for the GORM repositories and external collaborators,
// mirroring their error contracts (gorm.ErrRecordNotFound for misses).

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[uuid.UUID]models.Project)}
}

func (r *fakeProjectRepo) Create(project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.ID] = *project
	return nil
}

func (r *fakeProjectRepo) GetByID(id uuid.UUID) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return &models.Project{}, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakeProjectRepo) ListByIDs(ids []uuid.UUID) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Project
	for _, id := range ids {
		if p, ok := r.projects[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeProjectRepo) Update(project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.projects[project.ID] = *project
	return nil
}

func (r *fakeProjectRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

type fakePermissionRepo struct {
	mu          sync.Mutex
	permissions []models.Permission
}

func newFakePermissionRepo() *fakePermissionRepo {
	return &fakePermissionRepo{}
}

func (r *fakePermissionRepo) Create(permission *models.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permissions = append(r.permissions, *permission)
	return nil
}

func (r *fakePermissionRepo) Get(projectID uuid.UUID, userID string) (*models.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.permissions {
		if p.ProjectID == projectID && p.UserID == userID {
			perm := p
			return &perm, nil
		}
	}
	return &models.Permission{}, gorm.ErrRecordNotFound
}

func (r *fakePermissionRepo) ListByUser(userID string) ([]models.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Permission
	for _, p := range r.permissions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePermissionRepo) DeleteByProject(projectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.permissions[:0]
	for _, p := range r.permissions {
		if p.ProjectID != projectID {
			kept = append(kept, p)
		}
	}
	r.permissions = kept
	return nil
}

type fakeIssueRepo struct {
	mu     sync.Mutex
	issues map[uuid.UUID]models.Issue
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[uuid.UUID]models.Issue)}
}

func (r *fakeIssueRepo) Create(issue *models.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues[issue.ID] = *issue
	return nil
}

func (r *fakeIssueRepo) GetByID(id uuid.UUID) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.issues[id]
	if !ok {
		return &models.Issue{}, gorm.ErrRecordNotFound
	}
	return &i, nil
}

func (r *fakeIssueRepo) ListByProject(projectID uuid.UUID, filter repository.IssueFilter) ([]models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Issue
	for _, i := range r.issues {
		if i.ProjectID != projectID {
			continue
		}
		if filter.ObjectID != "" && i.ObjectID != filter.ObjectID {
			continue
		}
		if filter.Status != "" && i.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && i.Priority != filter.Priority {
			continue
		}
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *fakeIssueRepo) Update(issue *models.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issues[issue.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.issues[issue.ID] = *issue
	return nil
}

func (r *fakeIssueRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.issues, id)
	return nil
}

func (r *fakeIssueRepo) DeleteByProject(projectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, i := range r.issues {
		if i.ProjectID == projectID {
			delete(r.issues, id)
		}
	}
	return nil
}

// fakeStore keeps objects in memory and counts presign calls.
type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	presigns int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presigns++
	return "https://storage.example/" + key + "?signed", nil
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// fakeCache records lookups so tests can assert cache hits.
type fakeCache struct {
	mu      sync.Mutex
	strings map[string]string
	bytes   map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{strings: make(map[string]string), bytes: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strings[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strings[key] = value
	return nil
}

func (c *fakeCache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes[key], nil
}

func (c *fakeCache) SetBytes(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytes[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.strings, key)
		delete(c.bytes, key)
	}
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []queue.CompressionRequestedMessage
}

func (p *fakePublisher) PublishCompressionRequested(ctx context.Context, msg queue.CompressionRequestedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

// fakeDirectory resolves emails from a fixed map.
type fakeDirectory struct {
	users map[string]identity.User
}

func (d *fakeDirectory) LookupUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	if u, ok := d.users[email]; ok {
		return &u, nil
	}
	return nil, identity.ErrUserNotFound
}
