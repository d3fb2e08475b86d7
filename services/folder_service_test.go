package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/errtypes"
	"nimbusdrive/models"
)

func TestCreateFolderSiblingConflict(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)

	_, err := e.folders.CreateFolder(context.Background(), owner.ID, nil, "docs")
	require.NoError(t, err)

	_, err = e.folders.CreateFolder(context.Background(), owner.ID, nil, "docs")
	assert.True(t, errtypes.IsConflict(err))

	// Same name under a different parent is fine.
	parent := e.addFolder(t, owner.ID, nil, "other")
	_, err = e.folders.CreateFolder(context.Background(), owner.ID, &parent.ID, "docs")
	assert.NoError(t, err)
}

func TestCreateFolderInSharedParentBelongsToParentOwner(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	collab := e.addUser(t, "collab@example.com", 0)
	parent := e.addFolder(t, owner.ID, nil, "shared")
	e.grant(t, models.FolderTarget(parent.ID), models.ShareEdit, collab.ID)

	folder, err := e.folders.CreateFolder(context.Background(), collab.ID, &parent.ID, "from-collab")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, folder.OwnerID)

	// The audit entry lands on the owner's feed with the collaborator as actor.
	entries, err := e.audit.List(context.Background(), owner.ID, auditFilterAll())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, collab.ID, entries[0].ActorID)
	assert.Equal(t, "folder_created", entries[0].Action)
}

func TestCreateFolderViewGrantInsufficient(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	viewer := e.addUser(t, "viewer@example.com", 0)
	parent := e.addFolder(t, owner.ID, nil, "shared")
	e.grant(t, models.FolderTarget(parent.ID), models.ShareView, viewer.ID)

	_, err := e.folders.CreateFolder(context.Background(), viewer.ID, &parent.ID, "nope")
	assert.True(t, errtypes.IsPermissionDenied(err))
}

func TestRenameFolderConflict(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	e.addFolder(t, owner.ID, nil, "a")
	b := e.addFolder(t, owner.ID, nil, "b")

	_, err := e.folders.RenameFolder(context.Background(), owner.ID, b.ID, "a")
	assert.True(t, errtypes.IsConflict(err))

	renamed, err := e.folders.RenameFolder(context.Background(), owner.ID, b.ID, "c")
	require.NoError(t, err)
	assert.Equal(t, "c", renamed.Name)
}

func TestMoveFolderIntoOwnSubtreeRejected(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	a := e.addFolder(t, owner.ID, nil, "a")
	b := e.addFolder(t, owner.ID, &a.ID, "b")
	c := e.addFolder(t, owner.ID, &b.ID, "c")

	// a -> a/b/c is a cycle.
	_, err := e.folders.MoveFolder(context.Background(), owner.ID, a.ID, &c.ID)
	assert.True(t, errtypes.IsInvalidOperation(err))

	// a -> a is the degenerate cycle.
	_, err = e.folders.MoveFolder(context.Background(), owner.ID, a.ID, &a.ID)
	assert.True(t, errtypes.IsInvalidOperation(err))

	// c -> root is fine.
	moved, err := e.folders.MoveFolder(context.Background(), owner.ID, c.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
}

func TestMoveFolderForeignDestination(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	other := e.addUser(t, "other@example.com", 0)
	mine := e.addFolder(t, owner.ID, nil, "mine")
	theirs := e.addFolder(t, other.ID, nil, "theirs")

	_, err := e.folders.MoveFolder(context.Background(), owner.ID, mine.ID, &theirs.ID)
	assert.True(t, errtypes.IsNotFound(err))
}

func TestBulkMove(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	src := e.addFolder(t, owner.ID, nil, "src")
	dst := e.addFolder(t, owner.ID, nil, "dst")
	sub := e.addFolder(t, owner.ID, &src.ID, "sub")
	file := e.addFile(t, owner.ID, &src.ID, "f.txt", 5)

	err := e.folders.BulkMove(context.Background(), owner.ID,
		[]primitive.ObjectID{sub.ID}, []primitive.ObjectID{file.ID}, &dst.ID)
	require.NoError(t, err)

	movedSub, err := e.store.FolderByID(context.Background(), sub.ID)
	require.NoError(t, err)
	require.NotNil(t, movedSub.ParentID)
	assert.Equal(t, dst.ID, *movedSub.ParentID)

	movedFile, err := e.store.FileByID(context.Background(), file.ID)
	require.NoError(t, err)
	require.NotNil(t, movedFile.ParentID)
	assert.Equal(t, dst.ID, *movedFile.ParentID)
}

func TestBulkMoveCycleLeavesTreeUnchanged(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	a := e.addFolder(t, owner.ID, nil, "a")
	b := e.addFolder(t, owner.ID, &a.ID, "b")
	loose := e.addFolder(t, owner.ID, nil, "loose")

	// Destination b sits inside moved folder a, so the whole batch fails.
	err := e.folders.BulkMove(context.Background(), owner.ID,
		[]primitive.ObjectID{a.ID, loose.ID}, nil, &b.ID)
	assert.True(t, errtypes.IsInvalidOperation(err))

	unmoved, err := e.store.FolderByID(context.Background(), loose.ID)
	require.NoError(t, err)
	assert.Nil(t, unmoved.ParentID, "rejected batch must not move anything")
}

func TestBulkMoveRequiresOwnership(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	other := e.addUser(t, "other@example.com", 0)
	theirs := e.addFolder(t, other.ID, nil, "theirs")

	err := e.folders.BulkMove(context.Background(), owner.ID,
		[]primitive.ObjectID{theirs.ID}, nil, nil)
	assert.True(t, errtypes.IsNotFound(err))
}

func TestFolderContentsListsActiveOnly(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	folder := e.addFolder(t, owner.ID, nil, "docs")
	e.addFile(t, owner.ID, &folder.ID, "active.txt", 5)
	deleted := e.addFile(t, owner.ID, &folder.ID, "gone.txt", 5)
	require.NoError(t, e.store.DetachAndMarkDeleted(context.Background(), []primitive.ObjectID{deleted.ID}, deleted.UpdatedAt))

	contents, err := e.folders.Contents(context.Background(), owner.ID, folder.ID)
	require.NoError(t, err)
	require.Len(t, contents.Files, 1)
	assert.Equal(t, "active.txt", contents.Files[0].Name)
}

func TestSearchScopedToOwner(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	other := e.addUser(t, "other@example.com", 0)
	e.addFolder(t, owner.ID, nil, "report drafts")
	e.addFolder(t, other.ID, nil, "report finals")
	e.addFile(t, owner.ID, nil, "report.pdf", 5)

	results, err := e.folders.Search(context.Background(), owner.ID, "report")
	require.NoError(t, err)
	assert.Len(t, results.Folders, 1)
	assert.Len(t, results.Files, 1)
}
