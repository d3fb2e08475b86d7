package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
)

func TestWithTransactionRollback(t *testing.T) {
	st := New()
	ctx := context.Background()

	user := &models.User{Email: "u@example.com", UsedStorage: 50}
	require.NoError(t, st.CreateUser(ctx, user))

	boom := errors.New("boom")
	err := st.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, st.InsertFolder(ctx, &models.Folder{Name: "f", OwnerID: user.ID}))
		require.NoError(t, st.AdjustUsedStorage(ctx, user.ID, 100))
		return boom
	})
	require.ErrorIs(t, err, boom)

	folders, err := st.FolderChildren(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, folders, "rolled-back insert must not survive")

	u, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), u.UsedStorage, "rolled-back quota change must not survive")
}

func TestWithTransactionCommit(t *testing.T) {
	st := New()
	ctx := context.Background()

	user := &models.User{Email: "u@example.com"}
	require.NoError(t, st.CreateUser(ctx, user))

	err := st.WithTransaction(ctx, func(ctx context.Context) error {
		return st.InsertFolder(ctx, &models.Folder{Name: "f", OwnerID: user.ID})
	})
	require.NoError(t, err)

	folders, err := st.FolderChildren(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Len(t, folders, 1)
}

func TestAdjustUsedStorageFloorsAtZero(t *testing.T) {
	st := New()
	ctx := context.Background()

	user := &models.User{Email: "u@example.com", UsedStorage: 50}
	require.NoError(t, st.CreateUser(ctx, user))

	require.NoError(t, st.AdjustUsedStorage(ctx, user.ID, -200))

	u, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, u.UsedStorage)
}

func TestLookupsReturnNilNilWhenMissing(t *testing.T) {
	st := New()
	ctx := context.Background()
	id := primitive.NewObjectID()

	folder, err := st.FolderByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, folder)

	file, err := st.FileByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, file)

	share, err := st.ShareByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, share)
}

func TestDeleteSharesForTargetsClearsAccess(t *testing.T) {
	st := New()
	ctx := context.Background()

	target := models.FileTarget(primitive.NewObjectID())
	share := &models.Share{Target: target, Token: "tok", Permission: models.ShareEdit}
	require.NoError(t, st.InsertShare(ctx, share))
	grantee := primitive.NewObjectID()
	require.NoError(t, st.SetShareAccess(ctx, share.ID, []primitive.ObjectID{grantee}))

	require.NoError(t, st.DeleteSharesForTargets(ctx, []models.Target{target}))

	got, err := st.GrantForTarget(ctx, target, grantee)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDetachAndMarkDeleted(t *testing.T) {
	st := New()
	ctx := context.Background()

	owner := primitive.NewObjectID()
	parent := &models.Folder{Name: "p", OwnerID: owner}
	require.NoError(t, st.InsertFolder(ctx, parent))
	file := &models.File{Name: "f", OwnerID: owner, ParentID: &parent.ID, Status: models.FileActive}
	require.NoError(t, st.InsertFile(ctx, file))

	now := time.Now()
	require.NoError(t, st.DetachAndMarkDeleted(ctx, []primitive.ObjectID{file.ID}, now))

	row, err := st.FileByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FileDeleted, row.Status)
	assert.Nil(t, row.ParentID)

	// Gone from the active listing, present in the bin.
	active, err := st.FilesInFolder(ctx, owner, &parent.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	binned, err := st.DeletedFiles(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, binned, 1)
}
