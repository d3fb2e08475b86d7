package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/errtypes"
	"nimbusdrive/models"
	"nimbusdrive/store"
)

// SharedNode is what a token resolves to: the share and a summary of the
// node behind it.
type SharedNode struct {
	Share      *models.Share          `json:"share"`
	Name       string                 `json:"name"`
	OwnerID    primitive.ObjectID     `json:"owner_id"`
	Size       int64                  `json:"size,omitempty"`
	Permission models.SharePermission `json:"permission"`
}

// ShareDetails is the owner-facing view of one share: the share row plus
// the resolved grantees.
type ShareDetails struct {
	Share    models.Share  `json:"share"`
	Grantees []models.User `json:"grantees"`
}

type ShareService struct {
	store       store.Store
	permissions *PermissionService
	audit       *AuditService
}

func NewShareService(st store.Store, permissions *PermissionService, audit *AuditService) *ShareService {
	return &ShareService{store: st, permissions: permissions, audit: audit}
}

// Create issues a share on a node. Anyone with edit on the node may share
// it; the audit entry still lands on the node owner's feed. Grantee emails
// that match no account are silently skipped, so sharing to a typo'd
// address degrades to a share nobody holds.
func (s *ShareService) Create(ctx context.Context, actorID primitive.ObjectID, target models.Target, permission models.SharePermission, isPublic bool, granteeEmails []string) (*models.Share, error) {
	if permission != models.ShareView && permission != models.ShareEdit {
		return nil, errtypes.InvalidOperation("permission must be view or edit")
	}

	ownerID, name, err := s.ownerOfTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	allowed, err := s.permissions.Resolve(ctx, actorID, target, models.OperationEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errtypes.PermissionDenied("cannot share this resource")
	}

	token, err := newShareToken()
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "generating share token", Err: err}
	}

	granteeIDs, err := s.resolveGrantees(ctx, granteeEmails)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	share := &models.Share{
		Target:     target,
		Token:      token,
		Permission: permission,
		IsPublic:   isPublic,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.InsertShare(ctx, share); err != nil {
			return err
		}
		if isPublic || len(granteeIDs) == 0 {
			return nil
		}
		return s.store.SetShareAccess(ctx, share.ID, granteeIDs)
	})
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "inserting share", Err: err}
	}

	s.audit.Record(ctx, actorID, ownerID, "share_created", target.Type, target.ID,
		fmt.Sprintf("%s (%s)", name, permission))
	return share, nil
}

// Update changes a share's permission, visibility and grantee list. Only
// the owner of the shared node may do this; a collaborator's edit grant
// lets them change content, not widen access. The grantee list is replaced
// wholesale, and turning a share public drops it entirely.
func (s *ShareService) Update(ctx context.Context, actorID, shareID primitive.ObjectID, permission models.SharePermission, isPublic bool, granteeEmails []string) (*models.Share, error) {
	if permission != models.ShareView && permission != models.ShareEdit {
		return nil, errtypes.InvalidOperation("permission must be view or edit")
	}

	share, ownerID, name, err := s.ownedShare(ctx, actorID, shareID)
	if err != nil {
		return nil, err
	}

	granteeIDs, err := s.resolveGrantees(ctx, granteeEmails)
	if err != nil {
		return nil, err
	}

	share.Permission = permission
	share.IsPublic = isPublic
	share.UpdatedAt = time.Now()

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateShare(ctx, share); err != nil {
			return err
		}
		if isPublic {
			return s.store.SetShareAccess(ctx, share.ID, nil)
		}
		return s.store.SetShareAccess(ctx, share.ID, granteeIDs)
	})
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "updating share", Err: err}
	}

	s.audit.Record(ctx, actorID, ownerID, "share_updated", share.Target.Type, share.Target.ID, name)
	return share, nil
}

// Delete revokes a share and its grantee rows. Owner only.
func (s *ShareService) Delete(ctx context.Context, actorID, shareID primitive.ObjectID) error {
	share, ownerID, name, err := s.ownedShare(ctx, actorID, shareID)
	if err != nil {
		return err
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.SetShareAccess(ctx, share.ID, nil); err != nil {
			return err
		}
		return s.store.DeleteShare(ctx, share.ID)
	})
	if err != nil {
		return errtypes.StorageFailure{Msg: "deleting share", Err: err}
	}

	s.audit.Record(ctx, actorID, ownerID, "share_deleted", share.Target.Type, share.Target.ID, name)
	return nil
}

// ResolveToken maps a share token to the node behind it.
func (s *ShareService) ResolveToken(ctx context.Context, token string) (*SharedNode, error) {
	share, err := s.store.ShareByToken(ctx, token)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "looking up share token", Err: err}
	}
	if share == nil {
		return nil, errtypes.NotFound("share")
	}

	node := &SharedNode{Share: share, Permission: share.Permission}
	switch share.Target.Type {
	case models.ResourceFile:
		file, err := s.store.FileByID(ctx, share.Target.ID)
		if err != nil {
			return nil, errtypes.StorageFailure{Msg: "looking up shared file", Err: err}
		}
		if file == nil || file.Status == models.FileDeleted {
			return nil, errtypes.NotFound("shared file")
		}
		node.Name, node.OwnerID, node.Size = file.Name, file.OwnerID, file.Size
	case models.ResourceFolder:
		folder, err := s.store.FolderByID(ctx, share.Target.ID)
		if err != nil {
			return nil, errtypes.StorageFailure{Msg: "looking up shared folder", Err: err}
		}
		if folder == nil {
			return nil, errtypes.NotFound("shared folder")
		}
		node.Name, node.OwnerID = folder.Name, folder.OwnerID
	}
	return node, nil
}

// Details lists every share on a node with its resolved grantees. Owner
// only.
func (s *ShareService) Details(ctx context.Context, actorID primitive.ObjectID, target models.Target) ([]ShareDetails, error) {
	ownerID, _, err := s.ownerOfTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	if ownerID != actorID {
		return nil, errtypes.NotFound(string(target.Type))
	}

	shares, err := s.store.SharesForTarget(ctx, target)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "listing shares", Err: err}
	}

	details := make([]ShareDetails, 0, len(shares))
	for _, share := range shares {
		d := ShareDetails{Share: share, Grantees: []models.User{}}
		if !share.IsPublic {
			userIDs, err := s.store.ShareAccessUserIDs(ctx, share.ID)
			if err != nil {
				return nil, errtypes.StorageFailure{Msg: "listing share grantees", Err: err}
			}
			for _, uid := range userIDs {
				user, err := s.store.UserByID(ctx, uid)
				if err != nil {
					return nil, errtypes.StorageFailure{Msg: "looking up grantee", Err: err}
				}
				if user != nil {
					d.Grantees = append(d.Grantees, *user)
				}
			}
		}
		details = append(details, d)
	}
	return details, nil
}

// ownedShare loads a share and checks that the actor owns the shared node.
// Non-owners get NotFound rather than PermissionDenied so share ids do not
// leak.
func (s *ShareService) ownedShare(ctx context.Context, actorID, shareID primitive.ObjectID) (*models.Share, primitive.ObjectID, string, error) {
	share, err := s.store.ShareByID(ctx, shareID)
	if err != nil {
		return nil, primitive.NilObjectID, "", errtypes.StorageFailure{Msg: "looking up share", Err: err}
	}
	if share == nil {
		return nil, primitive.NilObjectID, "", errtypes.NotFound("share")
	}

	ownerID, name, err := s.ownerOfTarget(ctx, share.Target)
	if err != nil {
		return nil, primitive.NilObjectID, "", err
	}
	if ownerID != actorID {
		return nil, primitive.NilObjectID, "", errtypes.NotFound("share")
	}
	return share, ownerID, name, nil
}

func (s *ShareService) ownerOfTarget(ctx context.Context, target models.Target) (primitive.ObjectID, string, error) {
	switch target.Type {
	case models.ResourceFile:
		file, err := s.store.FileByID(ctx, target.ID)
		if err != nil {
			return primitive.NilObjectID, "", errtypes.StorageFailure{Msg: "looking up file", Err: err}
		}
		if file == nil {
			return primitive.NilObjectID, "", errtypes.NotFound("file")
		}
		return file.OwnerID, file.Name, nil
	case models.ResourceFolder:
		folder, err := s.store.FolderByID(ctx, target.ID)
		if err != nil {
			return primitive.NilObjectID, "", errtypes.StorageFailure{Msg: "looking up folder", Err: err}
		}
		if folder == nil {
			return primitive.NilObjectID, "", errtypes.NotFound("folder")
		}
		return folder.OwnerID, folder.Name, nil
	}
	return primitive.NilObjectID, "", errtypes.InvalidOperation("unknown resource type")
}

// resolveGrantees maps emails to user ids, skipping unknown addresses.
func (s *ShareService) resolveGrantees(ctx context.Context, emails []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(emails))
	seen := make(map[primitive.ObjectID]bool, len(emails))
	for _, email := range emails {
		user, err := s.store.UserByEmail(ctx, email)
		if err != nil {
			return nil, errtypes.StorageFailure{Msg: "looking up grantee email", Err: err}
		}
		if user == nil || seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		ids = append(ids, user.ID)
	}
	return ids, nil
}

// newShareToken returns 16 random bytes in URL-safe base64, giving a 22
// character unguessable token.
func newShareToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
