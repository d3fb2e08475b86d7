package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/errtypes"
	"nimbusdrive/models"
	"nimbusdrive/store"
	"nimbusdrive/utils"
)

// FolderContents is the drive-style single view of one folder: its direct
// subfolders plus its active files.
type FolderContents struct {
	Folder     *models.Folder  `json:"folder,omitempty"`
	Subfolders []models.Folder `json:"subfolders"`
	Files      []models.File   `json:"files"`
}

type SearchResults struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

type FolderService struct {
	store       store.Store
	permissions *PermissionService
	audit       *AuditService
}

func NewFolderService(st store.Store, permissions *PermissionService, audit *AuditService) *FolderService {
	return &FolderService{
		store:       st,
		permissions: permissions,
		audit:       audit,
	}
}

// CreateFolder inserts a folder under parentID (nil means the actor's
// root). Creating inside a shared folder requires edit on the parent; the
// new folder then belongs to the parent's owner so the tree stays a
// single-owner forest.
func (s *FolderService) CreateFolder(ctx context.Context, actorID primitive.ObjectID, parentID *primitive.ObjectID, name string) (*models.Folder, error) {
	if !utils.IsValidNodeName(name) {
		return nil, errtypes.InvalidOperation("invalid folder name")
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
			return nil, errtypes.PermissionDenied("cannot create folder here")
		}
		ownerID = parent.OwnerID
	}

	exists, err := s.store.FolderNameExists(ctx, ownerID, parentID, name)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "checking folder name", Err: err}
	}
	if exists {
		return nil, errtypes.Conflict(fmt.Sprintf("folder %q already exists", name))
	}

	now := time.Now()
	folder := &models.Folder{
		Name:      name,
		ParentID:  parentID,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertFolder(ctx, folder); err != nil {
		return nil, errtypes.StorageFailure{Msg: "inserting folder", Err: err}
	}

	s.audit.Record(ctx, actorID, ownerID, "folder_created", models.ResourceFolder, folder.ID, folder.Name)
	return folder, nil
}

func (s *FolderService) GetFolder(ctx context.Context, actorID, folderID primitive.ObjectID) (*models.Folder, error) {
	folder, err := s.store.FolderByID(ctx, folderID)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "looking up folder", Err: err}
	}
	if folder == nil {
		return nil, errtypes.NotFound("folder")
	}
	allowed, err := s.permissions.Resolve(ctx, actorID, models.FolderTarget(folderID), models.OperationView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errtypes.PermissionDenied("cannot view this folder")
	}
	return folder, nil
}

// Contents lists a folder's direct subfolders and active files.
func (s *FolderService) Contents(ctx context.Context, actorID, folderID primitive.ObjectID) (*FolderContents, error) {
	folder, err := s.GetFolder(ctx, actorID, folderID)
	if err != nil {
		return nil, err
	}

	subfolders, err := s.store.FolderChildren(ctx, folder.OwnerID, &folder.ID)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "listing subfolders", Err: err}
	}
	files, err := s.store.FilesInFolder(ctx, folder.OwnerID, &folder.ID)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "listing files", Err: err}
	}

	return &FolderContents{Folder: folder, Subfolders: subfolders, Files: files}, nil
}

// ListRoot lists the actor's own top-level folders and files.
func (s *FolderService) ListRoot(ctx context.Context, actorID primitive.ObjectID) (*FolderContents, error) {
	subfolders, err := s.store.FolderChildren(ctx, actorID, nil)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "listing root folders", Err: err}
	}
	files, err := s.store.FilesInFolder(ctx, actorID, nil)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "listing root files", Err: err}
	}
	return &FolderContents{Subfolders: subfolders, Files: files}, nil
}

func (s *FolderService) RenameFolder(ctx context.Context, actorID, folderID primitive.ObjectID, newName string) (*models.Folder, error) {
	if !utils.IsValidNodeName(newName) {
		return nil, errtypes.InvalidOperation("invalid folder name")
	}

	folder, err := s.store.FolderByID(ctx, folderID)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "looking up folder", Err: err}
	}
	if folder == nil {
		return nil, errtypes.NotFound("folder")
	}

	allowed, err := s.permissions.Resolve(ctx, actorID, models.FolderTarget(folderID), models.OperationEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errtypes.PermissionDenied("cannot rename this folder")
	}

	// Sibling collision under the current parent.
	exists, err := s.store.FolderNameExists(ctx, folder.OwnerID, folder.ParentID, newName)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "checking folder name", Err: err}
	}
	if exists {
		return nil, errtypes.Conflict(fmt.Sprintf("folder %q already exists", newName))
	}

	now := time.Now()
	if err := s.store.RenameFolder(ctx, folderID, newName, now); err != nil {
		return nil, errtypes.StorageFailure{Msg: "renaming folder", Err: err}
	}
	folder.Name = newName
	folder.UpdatedAt = now

	s.audit.Record(ctx, actorID, folder.OwnerID, "folder_renamed", models.ResourceFolder, folder.ID, newName)
	return folder, nil
}

// MoveFolder re-parents a folder. The destination must not be the folder
// itself or any of its descendants.
func (s *FolderService) MoveFolder(ctx context.Context, actorID, folderID primitive.ObjectID, newParentID *primitive.ObjectID) (*models.Folder, error) {
	folder, err := s.store.FolderByID(ctx, folderID)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "looking up folder", Err: err}
	}
	if folder == nil {
		return nil, errtypes.NotFound("folder")
	}

	allowed, err := s.permissions.Resolve(ctx, actorID, models.FolderTarget(folderID), models.OperationEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errtypes.PermissionDenied("cannot move this folder")
	}

	if err := s.checkDestination(ctx, folder.OwnerID, newParentID, []primitive.ObjectID{folderID}); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.store.ReparentFolders(ctx, []primitive.ObjectID{folderID}, newParentID, now); err != nil {
		return nil, errtypes.StorageFailure{Msg: "moving folder", Err: err}
	}
	folder.ParentID = newParentID
	folder.UpdatedAt = now

	s.audit.Record(ctx, actorID, folder.OwnerID, "folder_moved", models.ResourceFolder, folder.ID, folder.Name)
	return folder, nil
}

// BulkMove re-parents a batch of folders and files in one atomic step.
// Every id must belong to the actor; the whole batch is rejected when the
// destination falls inside the combined subtree of the moved folders.
func (s *FolderService) BulkMove(ctx context.Context, actorID primitive.ObjectID, folderIDs, fileIDs []primitive.ObjectID, newParentID *primitive.ObjectID) error {
	if len(folderIDs) == 0 && len(fileIDs) == 0 {
		return errtypes.InvalidOperation("nothing to move")
	}

	for _, id := range folderIDs {
		folder, err := s.store.FolderByID(ctx, id)
		if err != nil {
			return errtypes.StorageFailure{Msg: "looking up folder", Err: err}
		}
		if folder == nil || folder.OwnerID != actorID {
			return errtypes.NotFound("folder " + id.Hex())
		}
	}
	for _, id := range fileIDs {
		file, err := s.store.FileByID(ctx, id)
		if err != nil {
			return errtypes.StorageFailure{Msg: "looking up file", Err: err}
		}
		if file == nil || file.OwnerID != actorID {
			return errtypes.NotFound("file " + id.Hex())
		}
	}

	if err := s.checkDestination(ctx, actorID, newParentID, folderIDs); err != nil {
		return err
	}

	now := time.Now()
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.ReparentFolders(ctx, folderIDs, newParentID, now); err != nil {
			return err
		}
		return s.store.ReparentFiles(ctx, fileIDs, newParentID, now)
	})
	if err != nil {
		return errtypes.StorageFailure{Msg: "bulk move", Err: err}
	}

	s.audit.Record(ctx, actorID, actorID, "bulk_move", models.ResourceFolder, destinationID(newParentID),
		fmt.Sprintf("%d folders, %d files", len(folderIDs), len(fileIDs)))
	return nil
}

func (s *FolderService) Search(ctx context.Context, actorID primitive.ObjectID, query string) (*SearchResults, error) {
	folders, err := s.store.SearchFolders(ctx, actorID, query)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "searching folders", Err: err}
	}
	files, err := s.store.SearchFiles(ctx, actorID, query)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "searching files", Err: err}
	}
	return &SearchResults{Folders: folders, Files: files}, nil
}

// checkDestination validates a move target: it must be the root or a folder
// of the same owner, and must not lie in the descendant closure of the
// moved folders.
func (s *FolderService) checkDestination(ctx context.Context, ownerID primitive.ObjectID, newParentID *primitive.ObjectID, movedFolderIDs []primitive.ObjectID) error {
	if newParentID == nil {
		return nil
	}
	dest, err := s.store.FolderByID(ctx, *newParentID)
	if err != nil {
		return errtypes.StorageFailure{Msg: "looking up destination folder", Err: err}
	}
	if dest == nil || dest.OwnerID != ownerID {
		return errtypes.NotFound("destination folder")
	}

	closure, err := s.DescendantClosure(ctx, ownerID, movedFolderIDs)
	if err != nil {
		return err
	}
	if closure[*newParentID] {
		return errtypes.InvalidOperation("cannot move a folder into itself or its own subtree")
	}
	return nil
}

// DescendantClosure returns the set of folder ids reachable from roots by
// following parent→child edges, including the roots themselves.
func (s *FolderService) DescendantClosure(ctx context.Context, ownerID primitive.ObjectID, roots []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	closure := make(map[primitive.ObjectID]bool, len(roots))
	queue := make([]primitive.ObjectID, 0, len(roots))
	for _, id := range roots {
		if !closure[id] {
			closure[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		children, err := s.store.FolderChildren(ctx, ownerID, &id)
		if err != nil {
			return nil, errtypes.StorageFailure{Msg: "walking folder tree", Err: err}
		}
		for _, child := range children {
			if !closure[child.ID] {
				closure[child.ID] = true
				queue = append(queue, child.ID)
			}
		}
	}
	return closure, nil
}

func destinationID(parentID *primitive.ObjectID) primitive.ObjectID {
	if parentID == nil {
		return primitive.NilObjectID
	}
	return *parentID
}
