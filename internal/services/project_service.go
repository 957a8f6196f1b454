package services

import (
	"bytes"
	"context"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bim-viewer-service/internal/extraction"
	"bim-viewer-service/internal/identity"
	"bim-viewer-service/internal/inspector"
	"bim-viewer-service/internal/metrics"
	"bim-viewer-service/internal/models"
	"bim-viewer-service/internal/queue"
	"bim-viewer-service/internal/repository"
	"bim-viewer-service/internal/scene"
	"bim-viewer-service/internal/storage"
)

const (
	modelContentType = "model/gltf-binary"

	presignExpiry = time.Hour
	urlCacheTTL   = 45 * time.Minute
	glbCacheTTL   = 10 * time.Minute
)

// Cache is the subset of the Redis client the service uses. A nil Cache
// disables caching.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CompressionPublisher enqueues compression jobs for the worker.
type CompressionPublisher interface {
	PublishCompressionRequested(ctx context.Context, msg queue.CompressionRequestedMessage) error
}

// UserDirectory resolves invitee emails against the identity provider.
type UserDirectory interface {
	LookupUserByEmail(ctx context.Context, email string) (*identity.User, error)
}

// ProjectService manages projects, their uploaded models and access
// permissions.
type ProjectService struct {
	Projects    repository.ProjectRepository
	Permissions repository.PermissionRepository
	Issues      repository.IssueRepository
	Store       storage.ObjectStore
	Cache       Cache
	Jobs        CompressionPublisher
	Directory   UserDirectory

	MaxUploadBytes int64
}

// NewProjectService wires the project service to its collaborators.
func NewProjectService(
	projects repository.ProjectRepository,
	permissions repository.PermissionRepository,
	issues repository.IssueRepository,
	store storage.ObjectStore,
	cache Cache,
	jobs CompressionPublisher,
	directory UserDirectory,
	maxUploadBytes int64,
) *ProjectService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	return &ProjectService{
		Projects:       projects,
		Permissions:    permissions,
		Issues:         issues,
		Store:          store,
		Cache:          cache,
		Jobs:           jobs,
		Directory:      directory,
		MaxUploadBytes: maxUploadBytes,
	}
}

// CreateProject uploads a model file, stores the project record and the
// owner permission, and queues a compression job. Accepted uploads are a
// bare .glb or a .zip bundle containing exactly one .glb.
func (s *ProjectService) CreateProject(ctx context.Context, ownerID, name string, fileHeader *multipart.FileHeader) (*models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "projectName is required")
	}
	if fileHeader == nil || fileHeader.Filename == "" {
		return nil, errors.Wrap(ErrInvalidInput, "model file is required")
	}
	if fileHeader.Size > s.MaxUploadBytes {
		return nil, errors.Wrapf(ErrInvalidInput, "model file exceeds the %d byte limit", s.MaxUploadBytes)
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".glb" && ext != ".zip" {
		return nil, errors.Wrap(ErrInvalidInput, "only .glb files (optionally zipped) are supported")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, errors.Wrap(err, "could not open uploaded file")
	}
	defer src.Close()

	var modelReader io.Reader = src
	modelSize := fileHeader.Size
	modelFilename := fileHeader.Filename

	if ext == ".zip" {
		glbFile, cleanup, size, glbName, err := unpackBundle(src)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		modelReader = glbFile
		modelSize = size
		modelFilename = glbName
	}

	key := uuid.New().String() + "-" + sanitizeFilename(modelFilename)
	if err := s.Store.Put(ctx, key, modelReader, modelSize, modelContentType); err != nil {
		return nil, errors.Wrap(err, "failed to upload model to storage")
	}

	project := &models.Project{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		ModelKey:  key,
		ModelSize: modelSize,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Projects.Create(project); err != nil {
		// Remove the file from storage to avoid an orphan object.
		_ = s.Store.Remove(ctx, key)
		return nil, errors.Wrap(err, "failed to create project record")
	}
	permission := &models.Permission{
		ID:        uuid.New(),
		ProjectID: project.ID,
		UserID:    ownerID,
		Role:      models.RoleOwner,
	}
	if err := s.Permissions.Create(permission); err != nil {
		_ = s.Projects.Delete(project.ID)
		_ = s.Store.Remove(ctx, key)
		return nil, errors.Wrap(err, "failed to create owner permission")
	}

	// Compression runs out of band; a publish failure is logged, not fatal.
	if s.Jobs != nil {
		job := queue.CompressionRequestedMessage{
			ProjectID: project.ID.String(),
			ModelKey:  key,
			ModelSize: modelSize,
		}
		if err := s.Jobs.PublishCompressionRequested(ctx, job); err != nil {
			log.Printf("Failed to queue compression for project %s: %v", project.ID, err)
		}
	}

	metrics.ModelUploadsTotal.Inc()
	metrics.ModelUploadBytes.Observe(float64(modelSize))

	project.ModelURL, err = s.presign(ctx, key)
	if err != nil {
		log.Printf("Failed to presign model URL for project %s: %v", project.ID, err)
	}
	return project, nil
}

// ListProjects returns every project the caller can access, newest first,
// each carrying a fresh presigned model URL.
func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	permissions, err := s.Permissions.ListByUser(userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list permissions")
	}
	ids := make([]uuid.UUID, 0, len(permissions))
	for _, p := range permissions {
		ids = append(ids, p.ProjectID)
	}
	// ListByIDs already orders newest first.
	projects, err := s.Projects.ListByIDs(ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list projects")
	}
	if projects == nil {
		projects = []models.Project{}
	}
	for i := range projects {
		url, err := s.presign(ctx, projects[i].ModelKey)
		if err != nil {
			log.Printf("Failed to presign model URL for project %s: %v", projects[i].ID, err)
			continue
		}
		projects[i].ModelURL = url
	}
	return projects, nil
}

// GetProject returns one project with a fresh presigned model URL.
func (s *ProjectService) GetProject(ctx context.Context, userID string, id uuid.UUID) (*models.Project, error) {
	if err := s.checkAccess(id, userID); err != nil {
		return nil, err
	}
	project, err := s.Projects.GetByID(id)
	if err != nil {
		return nil, err
	}
	project.ModelURL, err = s.presign(ctx, project.ModelKey)
	if err != nil {
		return nil, errors.Wrap(err, "could not generate access URL for model")
	}
	return project, nil
}

// RenameProject changes a project's display name. Owner only.
func (s *ProjectService) RenameProject(userID string, id uuid.UUID, name string) (*models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "projectName is required")
	}
	project, err := s.ownedProject(id, userID)
	if err != nil {
		return nil, err
	}
	project.Name = strings.TrimSpace(name)
	if err := s.Projects.Update(project); err != nil {
		return nil, errors.Wrap(err, "failed to rename project")
	}
	return project, nil
}

// DeleteProject removes a project, its issues, its permissions and its
// stored model files. Owner only.
func (s *ProjectService) DeleteProject(ctx context.Context, userID string, id uuid.UUID) error {
	project, err := s.ownedProject(id, userID)
	if err != nil {
		return err
	}
	if err := s.Issues.DeleteByProject(id); err != nil {
		return errors.Wrap(err, "failed to delete project issues")
	}
	if err := s.Permissions.DeleteByProject(id); err != nil {
		return errors.Wrap(err, "failed to delete project permissions")
	}
	if err := s.Projects.Delete(id); err != nil {
		return errors.Wrap(err, "failed to delete project")
	}
	_ = s.Store.Remove(ctx, project.ModelKey)
	if project.CompressedKey != "" {
		_ = s.Store.Remove(ctx, project.CompressedKey)
	}
	if s.Cache != nil {
		keys := []string{"url:" + project.ModelKey, "glb:" + project.ModelKey}
		if project.CompressedKey != "" {
			keys = append(keys, "url:"+project.CompressedKey)
		}
		if err := s.Cache.Delete(ctx, keys...); err != nil {
			log.Printf("Failed to evict cache entries for project %s: %v", id, err)
		}
	}
	return nil
}

// InviteUser grants a collaborator permission to the user registered under
// the given email. Owner only; inviting an existing collaborator is a
// no-op.
func (s *ProjectService) InviteUser(ctx context.Context, ownerID string, id uuid.UUID, email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.Wrap(ErrInvalidInput, "email of the user to invite is required")
	}
	if _, err := s.ownedProject(id, ownerID); err != nil {
		return err
	}
	user, err := s.Directory.LookupUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return errors.Wrapf(ErrInvalidInput, "user with email '%s' not found", email)
		}
		return errors.Wrap(err, "identity provider lookup failed")
	}
	if _, err := s.Permissions.Get(id, user.Sub); err == nil {
		return nil // already has access
	}
	permission := &models.Permission{
		ID:        uuid.New(),
		ProjectID: id,
		UserID:    user.Sub,
		Role:      models.RoleCollaborator,
	}
	if err := s.Permissions.Create(permission); err != nil {
		return errors.Wrap(err, "failed to save permission")
	}
	return nil
}

// InspectObject loads the project's model, resolves the addressed scene
// node and produces its Object Record. The GLB payload is cached between
// inspections of the same model.
func (s *ProjectService) InspectObject(ctx context.Context, userID string, id uuid.UUID, nodeIndex int) (inspector.Record, error) {
	if err := s.checkAccess(id, userID); err != nil {
		return nil, err
	}
	project, err := s.Projects.GetByID(id)
	if err != nil {
		return nil, err
	}

	data, err := s.modelBytes(ctx, project.ModelKey)
	if err != nil {
		return nil, errors.Wrap(err, "could not load model")
	}
	sc, err := scene.Load(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "could not parse model")
	}
	node := sc.NodeByIndex(nodeIndex)
	if node == nil {
		return nil, ErrNodeNotFound
	}

	metrics.InspectionsTotal.Inc()
	record := inspector.Inspect(node)
	record["objectId"] = inspector.ObjectID(node)
	return record, nil
}

// modelBytes reads a stored GLB, preferring the cache.
func (s *ProjectService) modelBytes(ctx context.Context, key string) ([]byte, error) {
	cacheKey := "glb:" + key
	if s.Cache != nil {
		if data, err := s.Cache.GetBytes(ctx, cacheKey); err == nil && data != nil {
			return data, nil
		}
	}
	reader, err := s.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetBytes(ctx, cacheKey, data, glbCacheTTL); err != nil {
			log.Printf("Failed to cache model %s: %v", key, err)
		}
	}
	return data, nil
}

// presign returns a time-limited download URL for a stored object, cached
// for slightly less than its validity.
func (s *ProjectService) presign(ctx context.Context, key string) (string, error) {
	cacheKey := "url:" + key
	if s.Cache != nil {
		if url, err := s.Cache.Get(ctx, cacheKey); err == nil && url != "" {
			return url, nil
		}
	}
	url, err := s.Store.PresignedURL(ctx, key, presignExpiry)
	if err != nil {
		return "", err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cacheKey, url, urlCacheTTL); err != nil {
			log.Printf("Failed to cache presigned URL for %s: %v", key, err)
		}
	}
	return url, nil
}

func (s *ProjectService) checkAccess(projectID uuid.UUID, userID string) error {
	if _, err := s.Permissions.Get(projectID, userID); err != nil {
		return ErrAccessDenied
	}
	return nil
}

// ownedProject loads a project and verifies the caller owns it.
func (s *ProjectService) ownedProject(id uuid.UUID, userID string) (*models.Project, error) {
	if err := s.checkAccess(id, userID); err != nil {
		return nil, err
	}
	project, err := s.Projects.GetByID(id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != userID {
		return nil, ErrNotOwner
	}
	return project, nil
}

// unpackBundle writes the uploaded zip to disk, extracts it and opens the
// single GLB inside. cleanup removes all temporary state.
func unpackBundle(src io.Reader) (file *os.File, cleanup func(), size int64, name string, err error) {
	tempArchive, err := os.CreateTemp("", "upload-*.zip")
	if err != nil {
		return nil, nil, 0, "", errors.Wrap(err, "could not create temporary file")
	}
	archivePath := tempArchive.Name()
	_, err = io.Copy(tempArchive, src)
	tempArchive.Close()
	if err != nil {
		os.Remove(archivePath)
		return nil, nil, 0, "", errors.Wrap(err, "failed to write uploaded archive")
	}

	glbPath, destDir, err := extraction.ExtractModelBundle(archivePath)
	os.Remove(archivePath)
	if err != nil {
		return nil, nil, 0, "", errors.Wrap(ErrInvalidInput, err.Error())
	}

	glbFile, err := os.Open(glbPath)
	if err != nil {
		os.RemoveAll(destDir)
		return nil, nil, 0, "", errors.Wrap(err, "could not open extracted model")
	}
	stat, err := glbFile.Stat()
	if err != nil {
		glbFile.Close()
		os.RemoveAll(destDir)
		return nil, nil, 0, "", errors.Wrap(err, "could not stat extracted model")
	}
	cleanup = func() {
		glbFile.Close()
		os.RemoveAll(destDir)
	}
	return glbFile, cleanup, stat.Size(), filepath.Base(glbPath), nil
}

// sanitizeFilename keeps storage keys flat and shell-safe.
func sanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return "model.glb"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "model.glb"
	}
	return b.String()
}

// Ensure the concrete producer satisfies the publisher seam.
var _ CompressionPublisher = (*queue.CompressionProducer)(nil)
