// Package store defines the persistence contract for the drive tree, the
// share grants, the per-user storage counters and the audit log. The mongo
// implementation lives in store/mongostore; store/memstore backs the test
// suite.
//
// Lookup methods return (nil, nil) when the row does not exist; callers
// decide whether that means "deny" or "not found". Any non-nil error is an
// infrastructure failure.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
)

// AuditFilter narrows an audit listing. Zero values mean "no filter".
type AuditFilter struct {
	Action       string
	ResourceType models.ResourceType
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

type Store interface {
	// users
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// AdjustUsedStorage adds delta (which may be negative) to the owner's
	// used_storage, flooring the result at zero.
	AdjustUsedStorage(ctx context.Context, userID primitive.ObjectID, delta int64) error

	// folders
	InsertFolder(ctx context.Context, folder *models.Folder) error
	FolderByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error)
	FolderChildren(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Folder, error)
	FolderNameExists(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, name string) (bool, error)
	RenameFolder(ctx context.Context, id primitive.ObjectID, name string, at time.Time) error
	ReparentFolders(ctx context.Context, ids []primitive.ObjectID, parentID *primitive.ObjectID, at time.Time) error
	DeleteFolders(ctx context.Context, ids []primitive.ObjectID) error
	SearchFolders(ctx context.Context, ownerID primitive.ObjectID, query string) ([]models.Folder, error)

	// files
	InsertFile(ctx context.Context, file *models.File) error
	FileByID(ctx context.Context, id primitive.ObjectID) (*models.File, error)
	UpdateFile(ctx context.Context, file *models.File) error
	FilesInFolder(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.File, error)
	// FilesInFolders returns every file, regardless of status, whose parent
	// is one of the given folders. Used by cascading deletes.
	FilesInFolders(ctx context.Context, folderIDs []primitive.ObjectID) ([]models.File, error)
	FileNameExists(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, name string) (bool, error)
	RenameFile(ctx context.Context, id primitive.ObjectID, name string, at time.Time) error
	ReparentFiles(ctx context.Context, ids []primitive.ObjectID, parentID *primitive.ObjectID, at time.Time) error
	// DetachAndMarkDeleted sends files to the recycle bin: parent becomes
	// nil and status becomes deleted. Quota is untouched.
	DetachAndMarkDeleted(ctx context.Context, ids []primitive.ObjectID, at time.Time) error
	// RestoreFile brings a deleted file back as active at the root.
	RestoreFile(ctx context.Context, id primitive.ObjectID, at time.Time) error
	DeleteFiles(ctx context.Context, ids []primitive.ObjectID) error
	DeletedFiles(ctx context.Context, ownerID primitive.ObjectID) ([]models.File, error)
	DeletedFilesBefore(ctx context.Context, cutoff time.Time) ([]models.File, error)
	SearchFiles(ctx context.Context, ownerID primitive.ObjectID, query string) ([]models.File, error)

	// shares
	InsertShare(ctx context.Context, share *models.Share) error
	ShareByID(ctx context.Context, id primitive.ObjectID) (*models.Share, error)
	ShareByToken(ctx context.Context, token string) (*models.Share, error)
	SharesForTarget(ctx context.Context, target models.Target) ([]models.Share, error)
	// PublicShareForTarget returns a public share on the exact node, if any.
	PublicShareForTarget(ctx context.Context, target models.Target) (*models.Share, error)
	// GrantForTarget returns a share on the exact node that explicitly
	// lists userID as a grantee, if any.
	GrantForTarget(ctx context.Context, target models.Target, userID primitive.ObjectID) (*models.Share, error)
	UpdateShare(ctx context.Context, share *models.Share) error
	DeleteShare(ctx context.Context, id primitive.ObjectID) error
	// DeleteSharesForTargets cascades share (and share_access) removal when
	// nodes are permanently deleted.
	DeleteSharesForTargets(ctx context.Context, targets []models.Target) error
	// SetShareAccess replaces the grantee list wholesale.
	SetShareAccess(ctx context.Context, shareID primitive.ObjectID, userIDs []primitive.ObjectID) error
	ShareAccessUserIDs(ctx context.Context, shareID primitive.ObjectID) ([]primitive.ObjectID, error)

	// audit
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
	ListAudit(ctx context.Context, ownerID primitive.ObjectID, filter AuditFilter) ([]models.AuditEntry, error)

	// WithTransaction runs fn atomically: either every store call made with
	// the callback's context commits, or none do.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
