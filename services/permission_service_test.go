package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
)

func TestResolveOwnerAlwaysAllowed(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	file := e.addFile(t, owner.ID, nil, "notes.txt", 10)

	for _, op := range []models.Operation{models.OperationView, models.OperationEdit} {
		ok, err := e.perms.Resolve(context.Background(), owner.ID, models.FileTarget(file.ID), op)
		require.NoError(t, err)
		assert.True(t, ok, "owner should have %s", op)
	}
}

func TestResolveMissingNodeDenies(t *testing.T) {
	e := newEnv()
	user := e.addUser(t, "user@example.com", 0)

	ok, err := e.perms.Resolve(context.Background(), user.ID, models.FileTarget(primitive.NewObjectID()), models.OperationView)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveNoGrantDenies(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	stranger := e.addUser(t, "stranger@example.com", 0)
	file := e.addFile(t, owner.ID, nil, "private.txt", 10)

	ok, err := e.perms.Resolve(context.Background(), stranger.ID, models.FileTarget(file.ID), models.OperationView)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolvePublicShareGrantsViewOnly(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	stranger := e.addUser(t, "stranger@example.com", 0)
	file := e.addFile(t, owner.ID, nil, "public.txt", 10)

	// Even a public share marked "edit" must not grant edit to strangers.
	e.publicShare(t, models.FileTarget(file.ID), models.ShareEdit)

	view, err := e.perms.Resolve(context.Background(), stranger.ID, models.FileTarget(file.ID), models.OperationView)
	require.NoError(t, err)
	assert.True(t, view)

	edit, err := e.perms.Resolve(context.Background(), stranger.ID, models.FileTarget(file.ID), models.OperationEdit)
	require.NoError(t, err)
	assert.False(t, edit)
}

func TestResolveExplicitGrants(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	viewer := e.addUser(t, "viewer@example.com", 0)
	editor := e.addUser(t, "editor@example.com", 0)
	file := e.addFile(t, owner.ID, nil, "doc.txt", 10)
	target := models.FileTarget(file.ID)

	e.grant(t, target, models.ShareView, viewer.ID)
	e.grant(t, target, models.ShareEdit, editor.ID)

	tests := []struct {
		name  string
		actor primitive.ObjectID
		op    models.Operation
		want  bool
	}{
		{"viewer can view", viewer.ID, models.OperationView, true},
		{"viewer cannot edit", viewer.ID, models.OperationEdit, false},
		{"editor can view", editor.ID, models.OperationView, true},
		{"editor can edit", editor.ID, models.OperationEdit, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.perms.Resolve(context.Background(), tt.actor, target, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveInheritsFromAncestor(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	collab := e.addUser(t, "collab@example.com", 0)
	stranger := e.addUser(t, "stranger@example.com", 0)

	// owner's tree: /projects/reports/q3.pdf, share on the top folder.
	projects := e.addFolder(t, owner.ID, nil, "projects")
	reports := e.addFolder(t, owner.ID, &projects.ID, "reports")
	file := e.addFile(t, owner.ID, &reports.ID, "q3.pdf", 10)

	e.grant(t, models.FolderTarget(projects.ID), models.ShareEdit, collab.ID)

	edit, err := e.perms.Resolve(context.Background(), collab.ID, models.FileTarget(file.ID), models.OperationEdit)
	require.NoError(t, err)
	assert.True(t, edit, "grant on grandparent folder should reach the file")

	denied, err := e.perms.Resolve(context.Background(), stranger.ID, models.FileTarget(file.ID), models.OperationView)
	require.NoError(t, err)
	assert.False(t, denied)
}

func TestResolveSurvivesParentCycle(t *testing.T) {
	e := newEnv()
	owner := e.addUser(t, "owner@example.com", 0)
	stranger := e.addUser(t, "stranger@example.com", 0)

	a := e.addFolder(t, owner.ID, nil, "a")
	b := e.addFolder(t, owner.ID, &a.ID, "b")

	// Corrupt the parent pointers into a cycle; the walk must terminate
	// with a denial instead of hanging.
	a.ParentID = &b.ID
	require.NoError(t, e.store.ReparentFolders(context.Background(), []primitive.ObjectID{a.ID}, &b.ID, a.UpdatedAt))

	ok, err := e.perms.Resolve(context.Background(), stranger.ID, models.FolderTarget(b.ID), models.OperationView)
	require.NoError(t, err)
	assert.False(t, ok)
}
