package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/errtypes"
	"nimbusdrive/models"
	"nimbusdrive/store"
)

// PermissionService decides whether an actor may view or edit a node. It
// walks ownership, then the node's own shares, then the ancestor chain; any
// authorizing ancestor is enough (capability-OR, not AND).
type PermissionService struct {
	store store.Store
}

func NewPermissionService(st store.Store) *PermissionService {
	return &PermissionService{store: st}
}

// Resolve returns (false, nil) for a normal denial, including a missing
// target node. A non-nil error always means the underlying store failed.
//
// Precedence along the ascent, first hit wins:
//  1. actor owns the node
//  2. public share on the node (view only; public never grants edit)
//  3. explicit grant on the node (edit grants satisfy view too)
//  4. repeat at the parent folder; the root terminates with deny
func (s *PermissionService) Resolve(ctx context.Context, actorID primitive.ObjectID, target models.Target, op models.Operation) (bool, error) {
	// Visited guard: the tree invariant should make cycles impossible, but
	// malformed parent pointers must not hang the walk.
	visited := make(map[primitive.ObjectID]bool)

	cur := target
	for {
		var ownerID primitive.ObjectID
		var parentID *primitive.ObjectID

		switch cur.Type {
		case models.ResourceFile:
			file, err := s.store.FileByID(ctx, cur.ID)
			if err != nil {
				return false, errtypes.StorageFailure{Msg: "looking up file", Err: err}
			}
			if file == nil {
				return false, nil
			}
			ownerID, parentID = file.OwnerID, file.ParentID
		case models.ResourceFolder:
			if visited[cur.ID] {
				return false, nil
			}
			visited[cur.ID] = true

			folder, err := s.store.FolderByID(ctx, cur.ID)
			if err != nil {
				return false, errtypes.StorageFailure{Msg: "looking up folder", Err: err}
			}
			if folder == nil {
				return false, nil
			}
			ownerID, parentID = folder.OwnerID, folder.ParentID
		default:
			return false, nil
		}

		if ownerID == actorID {
			return true, nil
		}

		granted, err := s.nodeGrants(ctx, actorID, cur, op)
		if err != nil {
			return false, err
		}
		if granted {
			return true, nil
		}

		if parentID == nil {
			return false, nil
		}
		cur = models.FolderTarget(*parentID)
	}
}

// nodeGrants checks the shares attached to exactly this node.
func (s *PermissionService) nodeGrants(ctx context.Context, actorID primitive.ObjectID, target models.Target, op models.Operation) (bool, error) {
	if op == models.OperationView {
		public, err := s.store.PublicShareForTarget(ctx, target)
		if err != nil {
			return false, errtypes.StorageFailure{Msg: "looking up public share", Err: err}
		}
		if public != nil {
			return true, nil
		}
	}

	grant, err := s.store.GrantForTarget(ctx, target, actorID)
	if err != nil {
		return false, errtypes.StorageFailure{Msg: "looking up share grant", Err: err}
	}
	if grant == nil {
		return false, nil
	}

	switch op {
	case models.OperationView:
		return grant.Permission == models.ShareView || grant.Permission == models.ShareEdit, nil
	case models.OperationEdit:
		return grant.Permission == models.ShareEdit, nil
	}
	return false, nil
}
