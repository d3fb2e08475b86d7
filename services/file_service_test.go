package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/errtypes"
	"nimbusdrive/models"
)

func upload(t *testing.T, e *env, actor *models.User, parent *models.Folder, name, body string) *models.File {
	t.Helper()
	var parentID *primitive.ObjectID
	if parent != nil {
		parentID = &parent.ID
	}
	file, err := e.files.Upload(context.Background(), actor.ID, parentID, name, strings.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	return file
}

func TestUploadChargesOwnerQuota(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 1000)

	file := upload(t, e, owner, nil, "notes.txt", strings.Repeat("x", 100))
	assert.Equal(t, int64(100), file.Size)
	assert.True(t, e.content.has(file.Locator))

	u, err := e.store.UserByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.UsedStorage)
}

func TestUploadQuotaExceeded(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 50)

	_, err := e.files.Upload(context.Background(), owner.ID, nil, "big.bin",
		strings.NewReader(strings.Repeat("x", 100)), 100)
	assert.True(t, errtypes.IsQuotaExceeded(err))

	u, err := e.store.UserByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Zero(t, u.UsedStorage, "rejected upload must not charge quota")
}

func TestUploadIntoSharedFolderBelongsToUploader(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 1000)
	collab := e.addUser(t, "collab@example.com", 1000)
	folder := e.addFolder(t, owner.ID, nil, "shared")
	e.grant(t, models.FolderTarget(folder.ID), models.ShareEdit, collab.ID)

	file := upload(t, e, collab, folder, "from-collab.txt", strings.Repeat("x", 50))
	require.Equal(t, collab.ID, file.OwnerID)

	// The uploader pays, not the folder owner.
	collabRow, err := e.store.UserByID(context.Background(), collab.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), collabRow.UsedStorage)

	ownerRow, err := e.store.UserByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Zero(t, ownerRow.UsedStorage)

	// The entry lands in the uploader's own feed.
	entries, err := e.audit.List(context.Background(), collab.ID, auditFilterAll())
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, collab.ID, entries[0].ActorID)
}

func TestUploadCapsAtDeclaredSize(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 50)

	// Stream longer than declared: only the declared bytes may land, so the
	// quota check stays authoritative.
	file, err := e.files.Upload(context.Background(), owner.ID, nil, "long.bin",
		strings.NewReader(strings.Repeat("x", 200)), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), file.Size)

	stored, err := e.content.Size(context.Background(), file.Locator)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored)

	u, err := e.store.UserByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.UsedStorage)
}

func TestReplaceCapsAtDeclaredSize(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 100)
	file := upload(t, e, owner, nil, "doc.txt", strings.Repeat("x", 90))

	// Declared shrink with an oversized stream must not balloon past quota.
	replaced, err := e.files.Replace(context.Background(), owner.ID, file.ID,
		strings.NewReader(strings.Repeat("y", 200)), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), replaced.Size)

	u, err := e.store.UserByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.UsedStorage)
}

func TestUploadNameConflict(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 1000)
	upload(t, e, owner, nil, "dup.txt", "one")

	_, err := e.files.Upload(context.Background(), owner.ID, nil, "dup.txt", strings.NewReader("two"), 3)
	assert.True(t, errtypes.IsConflict(err))
}

func TestUploadMissingParent(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 1000)
	ghost := e.addFolder(t, owner.ID, nil, "ghost")
	require.NoError(t, e.store.DeleteFolders(context.Background(), []primitive.ObjectID{ghost.ID}))

	_, err := e.files.Upload(context.Background(), owner.ID, &ghost.ID, "f.txt", strings.NewReader("x"), 1)
	assert.True(t, errtypes.IsNotFound(err))
}

func TestReplaceAdjustsQuotaByDelta(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 1000)
	file := upload(t, e, owner, nil, "doc.txt", strings.Repeat("x", 40))

	grown, err := e.files.Replace(context.Background(), owner.ID, file.ID,
		strings.NewReader(strings.Repeat("y", 100)), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), grown.Size)

	u, err := e.store.UserByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.UsedStorage)

	shrunk, err := e.files.Replace(context.Background(), owner.ID, file.ID,
		strings.NewReader(strings.Repeat("z", 10)), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), shrunk.Size)

	u, err = e.store.UserByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.UsedStorage)
}

func TestReplaceQuotaChecksDeltaNotTotal(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 100)
	file := upload(t, e, owner, nil, "doc.txt", strings.Repeat("x", 90))

	// 90 -> 95 fits; a fresh 95-byte upload would too, but 90+95 would not.
	_, err := e.files.Replace(context.Background(), owner.ID, file.ID,
		strings.NewReader(strings.Repeat("y", 95)), 95)
	assert.NoError(t, err)

	_, err = e.files.Replace(context.Background(), owner.ID, file.ID,
		strings.NewReader(strings.Repeat("y", 200)), 200)
	assert.True(t, errtypes.IsQuotaExceeded(err))
}

func TestRenameFileInBinRejected(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 1000)
	file := upload(t, e, owner, nil, "doc.txt", "x")
	require.NoError(t, e.trash.SoftDelete(context.Background(), owner.ID, models.FileTarget(file.ID)))

	_, err := e.files.RenameFile(context.Background(), owner.ID, file.ID, "new.txt")
	assert.True(t, errtypes.IsInvalidOperation(err))
}

func TestMoveFileForeignDestination(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 1000)
	other := e.addUser(t, "other@example.com", 1000)
	file := upload(t, e, owner, nil, "doc.txt", "x")
	theirs := e.addFolder(t, other.ID, nil, "theirs")

	_, err := e.files.MoveFile(context.Background(), owner.ID, file.ID, &theirs.ID)
	assert.True(t, errtypes.IsNotFound(err))
}

func TestDownloadURLRequiresView(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 1000)
	stranger := e.addUser(t, "stranger@example.com", 1000)
	file := upload(t, e, owner, nil, "doc.txt", "x")

	url, err := e.files.DownloadURL(context.Background(), owner.ID, file.ID, 0)
	require.NoError(t, err)
	assert.Contains(t, url, file.Locator)

	_, err = e.files.DownloadURL(context.Background(), stranger.ID, file.ID, 0)
	assert.True(t, errtypes.IsPermissionDenied(err))
}
