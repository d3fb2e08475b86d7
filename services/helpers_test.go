package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
	"nimbusdrive/store"
	"nimbusdrive/store/memstore"
)

func auditFilterAll() store.AuditFilter {
	return store.AuditFilter{}
}

// fakeContent is an in-memory ContentStore for the service tests.
type fakeContent struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failDelete map[string]bool
	deleted    []string
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		objects:    make(map[string][]byte),
		failDelete: make(map[string]bool),
	}
}

func (f *fakeContent) Write(_ context.Context, locator string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[locator] = data
	return int64(len(data)), nil
}

func (f *fakeContent) Read(_ context.Context, locator string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[locator]
	if !ok {
		return nil, errors.New("object not found: " + locator)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeContent) Delete(_ context.Context, locator string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete[locator] {
		return errors.New("delete failed: " + locator)
	}
	delete(f.objects, locator)
	f.deleted = append(f.deleted, locator)
	return nil
}

func (f *fakeContent) Size(_ context.Context, locator string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[locator]
	if !ok {
		return 0, errors.New("object not found: " + locator)
	}
	return int64(len(data)), nil
}

func (f *fakeContent) SignedURL(_ context.Context, locator string, _ time.Duration) (string, error) {
	return "https://content.test/" + locator, nil
}

func (f *fakeContent) has(locator string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[locator]
	return ok
}

// env wires every service against a fresh memstore.
type env struct {
	store   *memstore.MemStore
	content *fakeContent
	perms   *PermissionService
	audit   *AuditService
	folders *FolderService
	files   *FileService
	trash   *TrashService
	shares  *ShareService
}

func newEnv() *env {
	st := memstore.New()
	content := newFakeContent()
	audit := NewAuditService(st)
	perms := NewPermissionService(st)
	folders := NewFolderService(st, perms, audit)
	return &env{
		store:   st,
		content: content,
		perms:   perms,
		audit:   audit,
		folders: folders,
		files:   NewFileService(st, content, perms, audit),
		trash:   NewTrashService(st, content, folders, audit),
		shares:  NewShareService(st, perms, audit),
	}
}

func (e *env) addUser(t *testing.T, email string, maxStorage int64) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		Email:      email,
		Name:       email,
		MaxStorage: maxStorage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *env) addFolder(t *testing.T, ownerID primitive.ObjectID, parentID *primitive.ObjectID, name string) *models.Folder {
	t.Helper()
	now := time.Now()
	folder := &models.Folder{
		Name:      name,
		ParentID:  parentID,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.store.InsertFolder(context.Background(), folder))
	return folder
}

func (e *env) addFile(t *testing.T, ownerID primitive.ObjectID, parentID *primitive.ObjectID, name string, size int64) *models.File {
	t.Helper()
	now := time.Now()
	file := &models.File{
		Name:      name,
		ParentID:  parentID,
		OwnerID:   ownerID,
		Size:      size,
		Status:    models.FileActive,
		Locator:   "test/" + name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.store.InsertFile(context.Background(), file))
	return file
}

// grant attaches a private share listing the given users.
func (e *env) grant(t *testing.T, target models.Target, perm models.SharePermission, grantees ...primitive.ObjectID) *models.Share {
	t.Helper()
	now := time.Now()
	share := &models.Share{
		Target:     target,
		Token:      primitive.NewObjectID().Hex(),
		Permission: perm,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, e.store.InsertShare(context.Background(), share))
	require.NoError(t, e.store.SetShareAccess(context.Background(), share.ID, grantees))
	return share
}

func (e *env) publicShare(t *testing.T, target models.Target, perm models.SharePermission) *models.Share {
	t.Helper()
	now := time.Now()
	share := &models.Share{
		Target:     target,
		Token:      primitive.NewObjectID().Hex(),
		Permission: perm,
		IsPublic:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, e.store.InsertShare(context.Background(), share))
	return share
}
