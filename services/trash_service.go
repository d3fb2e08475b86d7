package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/errtypes"
	"nimbusdrive/models"
	"nimbusdrive/store"
	"nimbusdrive/utils"
)

// TrashService handles the recycle-bin half of the tree lifecycle. Only
// owners may delete, restore or purge; shared access never extends that
// far.
//
// Deleting is asymmetric between the two node kinds: files go to the bin
// (detached, status=deleted, content and quota untouched) and can be
// restored; folder rows are removed outright during the cascade, so a
// restored file always lands back at the root.
type TrashService struct {
	store   store.Store
	content ContentStore
	folders *FolderService
	audit   *AuditService
}

func NewTrashService(st store.Store, content ContentStore, folders *FolderService, audit *AuditService) *TrashService {
	return &TrashService{
		store:   st,
		content: content,
		folders: folders,
		audit:   audit,
	}
}

// SoftDelete sends a file to the recycle bin, or cascades over a folder's
// subtree. The owner keeps paying quota for binned files until they are
// purged.
func (s *TrashService) SoftDelete(ctx context.Context, actorID primitive.ObjectID, target models.Target) error {
	switch target.Type {
	case models.ResourceFile:
		return s.softDeleteFile(ctx, actorID, target.ID)
	case models.ResourceFolder:
		return s.softDeleteFolder(ctx, actorID, target.ID)
	}
	return errtypes.InvalidOperation("unknown resource type")
}

// SoftDeleteMany bins a batch of files and folder subtrees in one call.
// Every id is checked up front, so a single foreign or unknown id rejects
// the whole batch before anything mutates. Files go first; a folder already
// swept away by an earlier folder's cascade is skipped, not an error.
func (s *TrashService) SoftDeleteMany(ctx context.Context, actorID primitive.ObjectID, folderIDs, fileIDs []primitive.ObjectID) error {
	for _, id := range folderIDs {
		folder, err := s.store.FolderByID(ctx, id)
		if err != nil {
			return errtypes.StorageFailure{Msg: "looking up folder", Err: err}
		}
		if folder == nil || folder.OwnerID != actorID {
			return errtypes.NotFound("folder")
		}
	}
	for _, id := range fileIDs {
		file, err := s.store.FileByID(ctx, id)
		if err != nil {
			return errtypes.StorageFailure{Msg: "looking up file", Err: err}
		}
		if file == nil || file.OwnerID != actorID {
			return errtypes.NotFound("file")
		}
		if file.Status == models.FileDeleted {
			return errtypes.InvalidOperation("file is already in the recycle bin")
		}
	}

	for _, id := range fileIDs {
		if err := s.softDeleteFile(ctx, actorID, id); err != nil {
			return err
		}
	}
	for _, id := range folderIDs {
		folder, err := s.store.FolderByID(ctx, id)
		if err != nil {
			return errtypes.StorageFailure{Msg: "looking up folder", Err: err}
		}
		if folder == nil {
			continue
		}
		if err := s.softDeleteFolder(ctx, actorID, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *TrashService) softDeleteFile(ctx context.Context, actorID, fileID primitive.ObjectID) error {
	file, err := s.store.FileByID(ctx, fileID)
	if err != nil {
		return errtypes.StorageFailure{Msg: "looking up file", Err: err}
	}
	if file == nil || file.OwnerID != actorID {
		return errtypes.NotFound("file")
	}
	if file.Status == models.FileDeleted {
		return errtypes.InvalidOperation("file is already in the recycle bin")
	}

	now := time.Now()
	if err := s.store.DetachAndMarkDeleted(ctx, []primitive.ObjectID{fileID}, now); err != nil {
		return errtypes.StorageFailure{Msg: "deleting file", Err: err}
	}

	s.audit.Record(ctx, actorID, file.OwnerID, "file_deleted", models.ResourceFile, fileID, file.Name)
	return nil
}

// softDeleteFolder removes the folder subtree in one transaction: every
// contained file is binned, every folder row in the closure is dropped,
// and shares on the dropped folders are cascaded away.
func (s *TrashService) softDeleteFolder(ctx context.Context, actorID, folderID primitive.ObjectID) error {
	folder, err := s.store.FolderByID(ctx, folderID)
	if err != nil {
		return errtypes.StorageFailure{Msg: "looking up folder", Err: err}
	}
	if folder == nil || folder.OwnerID != actorID {
		return errtypes.NotFound("folder")
	}

	closure, err := s.folders.DescendantClosure(ctx, folder.OwnerID, []primitive.ObjectID{folderID})
	if err != nil {
		return err
	}
	folderIDs := make([]primitive.ObjectID, 0, len(closure))
	shareTargets := make([]models.Target, 0, len(closure))
	for id := range closure {
		folderIDs = append(folderIDs, id)
		shareTargets = append(shareTargets, models.FolderTarget(id))
	}

	files, err := s.store.FilesInFolders(ctx, folderIDs)
	if err != nil {
		return errtypes.StorageFailure{Msg: "listing subtree files", Err: err}
	}
	fileIDs := make([]primitive.ObjectID, 0, len(files))
	for _, f := range files {
		fileIDs = append(fileIDs, f.ID)
	}

	now := time.Now()
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if len(fileIDs) > 0 {
			if err := s.store.DetachAndMarkDeleted(ctx, fileIDs, now); err != nil {
				return err
			}
		}
		if err := s.store.DeleteFolders(ctx, folderIDs); err != nil {
			return err
		}
		return s.store.DeleteSharesForTargets(ctx, shareTargets)
	})
	if err != nil {
		return errtypes.StorageFailure{Msg: "deleting folder subtree", Err: err}
	}

	s.audit.Record(ctx, actorID, folder.OwnerID, "folder_deleted", models.ResourceFolder, folderID, folder.Name)
	return nil
}

// List returns the actor's binned files.
func (s *TrashService) List(ctx context.Context, actorID primitive.ObjectID) ([]models.File, error) {
	files, err := s.store.DeletedFiles(ctx, actorID)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "listing recycle bin", Err: err}
	}
	return files, nil
}

// Restore brings a binned file back as active. Its original folder may no
// longer exist, so it reappears at the root.
func (s *TrashService) Restore(ctx context.Context, actorID, fileID primitive.ObjectID) (*models.File, error) {
	file, err := s.store.FileByID(ctx, fileID)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "looking up file", Err: err}
	}
	if file == nil || file.OwnerID != actorID {
		return nil, errtypes.NotFound("file")
	}
	if file.Status != models.FileDeleted {
		return nil, errtypes.InvalidOperation("file is not in the recycle bin")
	}

	now := time.Now()
	if err := s.store.RestoreFile(ctx, fileID, now); err != nil {
		return nil, errtypes.StorageFailure{Msg: "restoring file", Err: err}
	}
	file.Status = models.FileActive
	file.ParentID = nil
	file.UpdatedAt = now

	s.audit.Record(ctx, actorID, file.OwnerID, "file_restored", models.ResourceFile, fileID, file.Name)
	return file, nil
}

// RestoreMany restores a batch of binned files. All ids are validated
// before the first restore, so a bad id leaves the whole batch in the bin.
func (s *TrashService) RestoreMany(ctx context.Context, actorID primitive.ObjectID, fileIDs []primitive.ObjectID) ([]models.File, error) {
	for _, id := range fileIDs {
		file, err := s.store.FileByID(ctx, id)
		if err != nil {
			return nil, errtypes.StorageFailure{Msg: "looking up file", Err: err}
		}
		if file == nil || file.OwnerID != actorID {
			return nil, errtypes.NotFound("file")
		}
		if file.Status != models.FileDeleted {
			return nil, errtypes.InvalidOperation("file is not in the recycle bin")
		}
	}

	restored := make([]models.File, 0, len(fileIDs))
	for _, id := range fileIDs {
		file, err := s.Restore(ctx, actorID, id)
		if err != nil {
			return restored, err
		}
		restored = append(restored, *file)
	}
	return restored, nil
}

// PermanentDeleteMany purges a batch of files, validating every id before
// the first purge.
func (s *TrashService) PermanentDeleteMany(ctx context.Context, actorID primitive.ObjectID, fileIDs []primitive.ObjectID) error {
	for _, id := range fileIDs {
		file, err := s.store.FileByID(ctx, id)
		if err != nil {
			return errtypes.StorageFailure{Msg: "looking up file", Err: err}
		}
		if file == nil || file.OwnerID != actorID {
			return errtypes.NotFound("file")
		}
	}
	for _, id := range fileIDs {
		if err := s.PermanentDelete(ctx, actorID, id); err != nil {
			return err
		}
	}
	return nil
}

// PermanentDelete purges a file: its content object, its row, its shares,
// and the quota charge. A content-store failure is logged but does not
// keep the row alive; the locator is unreachable either way.
func (s *TrashService) PermanentDelete(ctx context.Context, actorID, fileID primitive.ObjectID) error {
	file, err := s.store.FileByID(ctx, fileID)
	if err != nil {
		return errtypes.StorageFailure{Msg: "looking up file", Err: err}
	}
	if file == nil || file.OwnerID != actorID {
		return errtypes.NotFound("file")
	}

	if err := s.content.Delete(ctx, file.Locator); err != nil {
		utils.LogError("failed to delete content "+file.Locator, err)
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteFiles(ctx, []primitive.ObjectID{fileID}); err != nil {
			return err
		}
		if err := s.store.DeleteSharesForTargets(ctx, []models.Target{models.FileTarget(fileID)}); err != nil {
			return err
		}
		return s.store.AdjustUsedStorage(ctx, file.OwnerID, -file.Size)
	})
	if err != nil {
		return errtypes.StorageFailure{Msg: "purging file", Err: err}
	}

	s.audit.Record(ctx, actorID, file.OwnerID, "file_purged", models.ResourceFile, fileID, file.Name)
	return nil
}
