package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/errtypes"
	"nimbusdrive/models"
	"nimbusdrive/store"
	"nimbusdrive/utils"
)

type FileService struct {
	store       store.Store
	content     ContentStore
	permissions *PermissionService
	audit       *AuditService
}

func NewFileService(st store.Store, content ContentStore, permissions *PermissionService, audit *AuditService) *FileService {
	return &FileService{
		store:       st,
		content:     content,
		permissions: permissions,
		audit:       audit,
	}
}

// Upload streams a new file into the content store and inserts its row.
// The uploader becomes the file's owner and pays its quota, even when the
// destination folder belongs to someone else. The declared size is a hard
// cap on the bytes read, so the quota check up front is authoritative; the
// row insert and the storage_used increment commit together.
func (s *FileService) Upload(ctx context.Context, actorID primitive.ObjectID, parentID *primitive.ObjectID, name string, r io.Reader, size int64) (*models.File, error) {
	if !utils.IsValidNodeName(name) {
		return nil, errtypes.InvalidOperation("invalid file name")
	}

	ownerID := actorID
	if parentID != nil {
		parent, err := s.store.FolderByID(ctx, *parentID)
		if err != nil {
			return nil, errtypes.StorageFailure{Msg: "looking up parent folder", Err: err}
		}
		if parent == nil {
			return nil, errtypes.NotFound("parent folder")
		}
		allowed, err := s.permissions.Resolve(ctx, actorID, models.FolderTarget(*parentID), models.OperationEdit)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, errtypes.PermissionDenied("cannot upload into this folder")
		}
	}

	exists, err := s.store.FileNameExists(ctx, ownerID, parentID, name)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "checking file name", Err: err}
	}
	if exists {
		return nil, errtypes.Conflict(fmt.Sprintf("file %q already exists", name))
	}

	if err := s.checkQuota(ctx, ownerID, size); err != nil {
		return nil, err
	}

	id := primitive.NewObjectID()
	locator := fmt.Sprintf("users/%s/%s_%s", ownerID.Hex(), id.Hex(), name)
	written, err := s.content.Write(ctx, locator, io.LimitReader(r, size))
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "writing content", Err: err}
	}

	now := time.Now()
	file := &models.File{
		ID:        id,
		Name:      name,
		ParentID:  parentID,
		OwnerID:   ownerID,
		Size:      written,
		Status:    models.FileActive,
		Locator:   locator,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.InsertFile(ctx, file); err != nil {
			return err
		}
		return s.store.AdjustUsedStorage(ctx, ownerID, written)
	})
	if err != nil {
		// Row never landed; drop the orphaned object.
		if delErr := s.content.Delete(ctx, locator); delErr != nil {
			utils.LogError("failed to remove orphaned content "+locator, delErr)
		}
		return nil, errtypes.StorageFailure{Msg: "inserting file", Err: err}
	}

	s.audit.Record(ctx, actorID, ownerID, "file_uploaded", models.ResourceFile, file.ID, file.Name)
	return file, nil
}

// Replace overwrites a file's content in place (last write wins) and
// adjusts the owner's quota by the size delta. As with Upload, the declared
// size caps the bytes read, so the delta the quota check approved is the
// most that can land.
func (s *FileService) Replace(ctx context.Context, actorID, fileID primitive.ObjectID, r io.Reader, size int64) (*models.File, error) {
	file, err := s.activeFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.permissions.Resolve(ctx, actorID, models.FileTarget(fileID), models.OperationEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errtypes.PermissionDenied("cannot replace this file")
	}

	if err := s.checkQuota(ctx, file.OwnerID, size-file.Size); err != nil {
		return nil, err
	}

	written, err := s.content.Write(ctx, file.Locator, io.LimitReader(r, size))
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "writing content", Err: err}
	}

	delta := written - file.Size
	file.Size = written
	file.UpdatedAt = time.Now()

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateFile(ctx, file); err != nil {
			return err
		}
		return s.store.AdjustUsedStorage(ctx, file.OwnerID, delta)
	})
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "updating file", Err: err}
	}

	s.audit.Record(ctx, actorID, file.OwnerID, "file_replaced", models.ResourceFile, file.ID, file.Name)
	return file, nil
}

func (s *FileService) RenameFile(ctx context.Context, actorID, fileID primitive.ObjectID, newName string) (*models.File, error) {
	if !utils.IsValidNodeName(newName) {
		return nil, errtypes.InvalidOperation("invalid file name")
	}

	file, err := s.activeFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.permissions.Resolve(ctx, actorID, models.FileTarget(fileID), models.OperationEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errtypes.PermissionDenied("cannot rename this file")
	}

	exists, err := s.store.FileNameExists(ctx, file.OwnerID, file.ParentID, newName)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "checking file name", Err: err}
	}
	if exists {
		return nil, errtypes.Conflict(fmt.Sprintf("file %q already exists", newName))
	}

	now := time.Now()
	if err := s.store.RenameFile(ctx, fileID, newName, now); err != nil {
		return nil, errtypes.StorageFailure{Msg: "renaming file", Err: err}
	}
	file.Name = newName
	file.UpdatedAt = now

	s.audit.Record(ctx, actorID, file.OwnerID, "file_renamed", models.ResourceFile, file.ID, newName)
	return file, nil
}

func (s *FileService) MoveFile(ctx context.Context, actorID, fileID primitive.ObjectID, newParentID *primitive.ObjectID) (*models.File, error) {
	file, err := s.activeFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.permissions.Resolve(ctx, actorID, models.FileTarget(fileID), models.OperationEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errtypes.PermissionDenied("cannot move this file")
	}

	if newParentID != nil {
		dest, err := s.store.FolderByID(ctx, *newParentID)
		if err != nil {
			return nil, errtypes.StorageFailure{Msg: "looking up destination folder", Err: err}
		}
		if dest == nil || dest.OwnerID != file.OwnerID {
			return nil, errtypes.NotFound("destination folder")
		}
	}

	now := time.Now()
	if err := s.store.ReparentFiles(ctx, []primitive.ObjectID{fileID}, newParentID, now); err != nil {
		return nil, errtypes.StorageFailure{Msg: "moving file", Err: err}
	}
	file.ParentID = newParentID
	file.UpdatedAt = now

	s.audit.Record(ctx, actorID, file.OwnerID, "file_moved", models.ResourceFile, file.ID, file.Name)
	return file, nil
}

func (s *FileService) Metadata(ctx context.Context, actorID, fileID primitive.ObjectID) (*models.File, error) {
	file, err := s.activeFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.permissions.Resolve(ctx, actorID, models.FileTarget(fileID), models.OperationView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errtypes.PermissionDenied("cannot view this file")
	}
	return file, nil
}

// DownloadURL returns a time-limited content-store URL for the file.
func (s *FileService) DownloadURL(ctx context.Context, actorID, fileID primitive.ObjectID, expiry time.Duration) (string, error) {
	file, err := s.Metadata(ctx, actorID, fileID)
	if err != nil {
		return "", err
	}
	url, err := s.content.SignedURL(ctx, file.Locator, expiry)
	if err != nil {
		return "", errtypes.StorageFailure{Msg: "signing download URL", Err: err}
	}
	return url, nil
}

func (s *FileService) activeFile(ctx context.Context, fileID primitive.ObjectID) (*models.File, error) {
	file, err := s.store.FileByID(ctx, fileID)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "looking up file", Err: err}
	}
	if file == nil {
		return nil, errtypes.NotFound("file")
	}
	if file.Status == models.FileDeleted {
		return nil, errtypes.InvalidOperation("file is in the recycle bin")
	}
	return file, nil
}

// checkQuota rejects a write that would push the owner past their limit.
// A MaxStorage of zero means unlimited.
func (s *FileService) checkQuota(ctx context.Context, ownerID primitive.ObjectID, delta int64) error {
	if delta <= 0 {
		return nil
	}
	owner, err := s.store.UserByID(ctx, ownerID)
	if err != nil {
		return errtypes.StorageFailure{Msg: "looking up owner", Err: err}
	}
	if owner == nil {
		return errtypes.NotFound("owner")
	}
	if owner.MaxStorage > 0 && owner.UsedStorage+delta > owner.MaxStorage {
		return errtypes.QuotaExceeded(fmt.Sprintf("would use %d of %d bytes", owner.UsedStorage+delta, owner.MaxStorage))
	}
	return nil
}
