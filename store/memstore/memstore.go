// Package memstore is an in-memory implementation of store.Store. It backs
// the test suite and small local runs; the mongo implementation in
// store/mongostore is the production one.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
	"nimbusdrive/store"
)

type MemStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users   map[primitive.ObjectID]models.User
	folders map[primitive.ObjectID]models.Folder
	files   map[primitive.ObjectID]models.File
	shares  map[primitive.ObjectID]models.Share
	access  map[primitive.ObjectID][]primitive.ObjectID // share id -> grantee ids
	audit   []models.AuditEntry
}

var _ store.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{
		users:   make(map[primitive.ObjectID]models.User),
		folders: make(map[primitive.ObjectID]models.Folder),
		files:   make(map[primitive.ObjectID]models.File),
		shares:  make(map[primitive.ObjectID]models.Share),
		access:  make(map[primitive.ObjectID][]primitive.ObjectID),
	}
}

// ---------- users ----------

func (m *MemStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *MemStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemStore) AdjustUsedStorage(_ context.Context, userID primitive.ObjectID, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	u.UsedStorage += delta
	if u.UsedStorage < 0 {
		u.UsedStorage = 0
	}
	u.UpdatedAt = time.Now()
	m.users[userID] = u
	return nil
}

// ---------- folders ----------

func (m *MemStore) InsertFolder(_ context.Context, folder *models.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if folder.ID.IsZero() {
		folder.ID = primitive.NewObjectID()
	}
	m.folders[folder.ID] = *folder
	return nil
}

func (m *MemStore) FolderByID(_ context.Context, id primitive.ObjectID) (*models.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.folders[id]; ok {
		return &f, nil
	}
	return nil, nil
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *MemStore) FolderChildren(_ context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Folder
	for _, f := range m.folders {
		if f.OwnerID == ownerID && sameParent(f.ParentID, parentID) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) FolderNameExists(_ context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.folders {
		if f.OwnerID == ownerID && f.Name == name && sameParent(f.ParentID, parentID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) RenameFolder(_ context.Context, id primitive.ObjectID, name string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.folders[id]; ok {
		f.Name = name
		f.UpdatedAt = at
		m.folders[id] = f
	}
	return nil
}

func (m *MemStore) ReparentFolders(_ context.Context, ids []primitive.ObjectID, parentID *primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if f, ok := m.folders[id]; ok {
			f.ParentID = copyID(parentID)
			f.UpdatedAt = at
			m.folders[id] = f
		}
	}
	return nil
}

func (m *MemStore) DeleteFolders(_ context.Context, ids []primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.folders, id)
	}
	return nil
}

func (m *MemStore) SearchFolders(_ context.Context, ownerID primitive.ObjectID, query string) ([]models.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	var out []models.Folder
	for _, f := range m.folders {
		if f.OwnerID == ownerID && strings.Contains(strings.ToLower(f.Name), q) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---------- files ----------

func (m *MemStore) InsertFile(_ context.Context, file *models.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if file.ID.IsZero() {
		file.ID = primitive.NewObjectID()
	}
	m.files[file.ID] = *file
	return nil
}

func (m *MemStore) FileByID(_ context.Context, id primitive.ObjectID) (*models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.files[id]; ok {
		return &f, nil
	}
	return nil, nil
}

func (m *MemStore) UpdateFile(_ context.Context, file *models.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[file.ID] = *file
	return nil
}

func (m *MemStore) FilesInFolder(_ context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.File
	for _, f := range m.files {
		if f.OwnerID == ownerID && f.Status == models.FileActive && sameParent(f.ParentID, parentID) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) FilesInFolders(_ context.Context, folderIDs []primitive.ObjectID) ([]models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idSet := make(map[primitive.ObjectID]bool, len(folderIDs))
	for _, id := range folderIDs {
		idSet[id] = true
	}
	var out []models.File
	for _, f := range m.files {
		if f.ParentID != nil && idSet[*f.ParentID] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MemStore) FileNameExists(_ context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if f.OwnerID == ownerID && f.Status == models.FileActive && f.Name == name && sameParent(f.ParentID, parentID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) RenameFile(_ context.Context, id primitive.ObjectID, name string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[id]; ok {
		f.Name = name
		f.UpdatedAt = at
		m.files[id] = f
	}
	return nil
}

func (m *MemStore) ReparentFiles(_ context.Context, ids []primitive.ObjectID, parentID *primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if f, ok := m.files[id]; ok {
			f.ParentID = copyID(parentID)
			f.UpdatedAt = at
			m.files[id] = f
		}
	}
	return nil
}

func (m *MemStore) DetachAndMarkDeleted(_ context.Context, ids []primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if f, ok := m.files[id]; ok {
			f.ParentID = nil
			f.Status = models.FileDeleted
			f.UpdatedAt = at
			m.files[id] = f
		}
	}
	return nil
}

func (m *MemStore) RestoreFile(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[id]; ok {
		f.Status = models.FileActive
		f.ParentID = nil
		f.UpdatedAt = at
		m.files[id] = f
	}
	return nil
}

func (m *MemStore) DeleteFiles(_ context.Context, ids []primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.files, id)
	}
	return nil
}

func (m *MemStore) DeletedFiles(_ context.Context, ownerID primitive.ObjectID) ([]models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.File
	for _, f := range m.files {
		if f.OwnerID == ownerID && f.Status == models.FileDeleted {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemStore) DeletedFilesBefore(_ context.Context, cutoff time.Time) ([]models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.File
	for _, f := range m.files {
		if f.Status == models.FileDeleted && f.UpdatedAt.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MemStore) SearchFiles(_ context.Context, ownerID primitive.ObjectID, query string) ([]models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	var out []models.File
	for _, f := range m.files {
		if f.OwnerID == ownerID && f.Status == models.FileActive && strings.Contains(strings.ToLower(f.Name), q) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---------- shares ----------

func (m *MemStore) InsertShare(_ context.Context, share *models.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if share.ID.IsZero() {
		share.ID = primitive.NewObjectID()
	}
	m.shares[share.ID] = *share
	return nil
}

func (m *MemStore) ShareByID(_ context.Context, id primitive.ObjectID) (*models.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.shares[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *MemStore) ShareByToken(_ context.Context, token string) (*models.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shares {
		if s.Token == token {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MemStore) SharesForTarget(_ context.Context, target models.Target) ([]models.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Share
	for _, s := range m.shares {
		if s.Target == target {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) PublicShareForTarget(_ context.Context, target models.Target) (*models.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shares {
		if s.Target == target && s.IsPublic {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MemStore) GrantForTarget(_ context.Context, target models.Target, userID primitive.ObjectID) (*models.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shares {
		if s.Target != target || s.IsPublic {
			continue
		}
		for _, uid := range m.access[s.ID] {
			if uid == userID {
				s := s
				return &s, nil
			}
		}
	}
	return nil, nil
}

func (m *MemStore) UpdateShare(_ context.Context, share *models.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shares[share.ID] = *share
	return nil
}

func (m *MemStore) DeleteShare(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shares, id)
	delete(m.access, id)
	return nil
}

func (m *MemStore) DeleteSharesForTargets(_ context.Context, targets []models.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	targetSet := make(map[models.Target]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}
	for id, s := range m.shares {
		if targetSet[s.Target] {
			delete(m.shares, id)
			delete(m.access, id)
		}
	}
	return nil
}

func (m *MemStore) SetShareAccess(_ context.Context, shareID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[primitive.ObjectID]bool, len(userIDs))
	var unique []primitive.ObjectID
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	m.access[shareID] = unique
	return nil
}

func (m *MemStore) ShareAccessUserIDs(_ context.Context, shareID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.access[shareID]
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out, nil
}

// ---------- audit ----------

func (m *MemStore) AppendAudit(_ context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *MemStore) ListAudit(_ context.Context, ownerID primitive.ObjectID, filter store.AuditFilter) ([]models.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.AuditEntry
	for _, e := range m.audit {
		if e.OwnerID != ownerID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
			continue
		}
		if filter.From != nil && e.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ---------- transactions ----------

// WithTransaction serializes writers and restores a snapshot of every table
// if fn fails, giving the same all-or-nothing behavior the mongo session
// callback provides.
func (m *MemStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(ctx); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users   map[primitive.ObjectID]models.User
	folders map[primitive.ObjectID]models.Folder
	files   map[primitive.ObjectID]models.File
	shares  map[primitive.ObjectID]models.Share
	access  map[primitive.ObjectID][]primitive.ObjectID
	audit   []models.AuditEntry
}

func (m *MemStore) snapshot() snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := snapshot{
		users:   make(map[primitive.ObjectID]models.User, len(m.users)),
		folders: make(map[primitive.ObjectID]models.Folder, len(m.folders)),
		files:   make(map[primitive.ObjectID]models.File, len(m.files)),
		shares:  make(map[primitive.ObjectID]models.Share, len(m.shares)),
		access:  make(map[primitive.ObjectID][]primitive.ObjectID, len(m.access)),
		audit:   make([]models.AuditEntry, len(m.audit)),
	}
	for k, v := range m.users {
		s.users[k] = v
	}
	for k, v := range m.folders {
		s.folders[k] = v
	}
	for k, v := range m.files {
		s.files[k] = v
	}
	for k, v := range m.shares {
		s.shares[k] = v
	}
	for k, v := range m.access {
		ids := make([]primitive.ObjectID, len(v))
		copy(ids, v)
		s.access[k] = ids
	}
	copy(s.audit, m.audit)
	return s
}

func (m *MemStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = s.users
	m.folders = s.folders
	m.files = s.files
	m.shares = s.shares
	m.access = s.access
	m.audit = s.audit
}

func copyID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
