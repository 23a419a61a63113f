package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	services "dotfile/internal/domain/services/vfs"
	"dotfile/internal/repository/memory"
)

func TestSoftDelete_StampsNodeAndDecrementsParent(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	file := env.mustCreateFile(t, "notes.txt", &docs.ID)

	trashed, err := env.trash.SoftDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)
	assert.True(t, trashed.Base().IsTrashed())

	reloaded, err := env.folders.GetByID(env.ctx, docs.ID, testOwner)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Items)
}

func TestSoftDelete_AlreadyTrashedFails(t *testing.T) {
	env := newTestEnv(t)
	file := env.mustCreateFile(t, "notes.txt", nil)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)

	_, err = env.trash.SoftDelete(env.ctx, models.KindFile, file.ID, testOwner)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// Trashing a folder stamps only the folder itself. Its children keep a
// nil deleted_at and are hidden purely by ancestry.
func TestSoftDelete_ChildrenAreNotStamped(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	file := env.mustCreateFile(t, "notes.txt", &docs.ID)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)

	child, err := env.files.GetByID(env.ctx, file.ID, testOwner)
	require.NoError(t, err)
	assert.False(t, child.IsTrashed())

	listing, err := env.trash.ListTrash(env.ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, listing.Folders, 1)
	assert.Empty(t, listing.Files)
}

func TestRestore_ReturnsNodeToParent(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	file := env.mustCreateFile(t, "notes.txt", &docs.ID)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)

	restored, err := env.trash.Restore(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)
	assert.False(t, restored.Base().IsTrashed())
	assert.Equal(t, "/docs/notes", restored.Base().Path)

	reloaded, err := env.folders.GetByID(env.ctx, docs.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Items)
}

func TestRestore_LiveNodeFails(t *testing.T) {
	env := newTestEnv(t)
	file := env.mustCreateFile(t, "notes.txt", nil)

	_, err := env.trash.Restore(env.ctx, models.KindFile, file.ID, testOwner)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// A living sibling can claim the name while a node sits in trash; the
// restore falls back to the counter suffix instead of failing.
func TestRestore_NameTakenKeepsBoth(t *testing.T) {
	env := newTestEnv(t)
	file := env.mustCreateFile(t, "report.pdf", nil)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)

	env.mustCreateFile(t, "report.pdf", nil)

	restored, err := env.trash.Restore(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "report (2)", restored.Base().Name)
	assert.Equal(t, "/report-2", restored.Base().Path)
}

func TestRestore_TrashedParentIsUnavailable(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	file := env.mustCreateFile(t, "notes.txt", &docs.ID)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)
	_, err = env.trash.SoftDelete(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)

	_, err = env.trash.Restore(env.ctx, models.KindFile, file.ID, testOwner)
	assert.ErrorIs(t, err, domain.ErrLocationUnavailable)

	// Restoring the parent first unblocks the child
	_, err = env.trash.Restore(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)
	restored, err := env.trash.Restore(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "/docs/notes", restored.Base().Path)
}

// Only a genuinely missing or trashed parent maps to the unavailable-
// location error; a failing parent lookup surfaces as what it is.
func TestRestore_ParentLookupFailurePropagates(t *testing.T) {
	store := memory.NewStore()
	folders := &failingFolderRepo{FolderRepository: memory.NewFolderRepository(store)}
	env := newTestEnvWithRepos(t, folders, memory.NewFileRepository(store))

	docs := env.mustCreateFolder(t, "Docs", nil)
	file := env.mustCreateFile(t, "notes.txt", &docs.ID)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)

	folders.failID = docs.ID
	_, err = env.trash.Restore(env.ctx, models.KindFile, file.ID, testOwner)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, domain.ErrLocationUnavailable)
}

func TestRestore_FolderCascadesPathsToLiveChildren(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	file := env.mustCreateFile(t, "notes.txt", &docs.ID)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)

	// The original name is taken while the folder sits in trash
	env.mustCreateFolder(t, "Docs", nil)

	restored, err := env.trash.Restore(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "Docs (2)", restored.Base().Name)
	assert.Equal(t, "/docs-2", restored.Base().Path)

	child, err := env.files.GetByID(env.ctx, file.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "/docs-2/notes", child.Path)
	assert.Equal(t, "Docs (2)", child.PathSegments[0].Name)
}

func TestPermanentDelete_RemovesSubtreeAndBytes(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	sub := env.mustCreateFolder(t, "Sub", &docs.ID)
	inner := env.mustCreateFile(t, "deep.txt", &sub.ID)
	outer := env.mustCreateFile(t, "top.txt", &docs.ID)

	err := env.trash.PermanentDelete(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)

	for _, id := range []string{docs.ID, sub.ID} {
		_, err := env.folders.GetByID(env.ctx, id, testOwner)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	for _, f := range []*models.File{inner, outer} {
		_, err := env.files.GetByID(env.ctx, f.ID, testOwner)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, env.storage.deleted, f.StorageKey)
	}
}

func TestPermanentDelete_GoneNodeIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	file := env.mustCreateFile(t, "notes.txt", nil)

	require.NoError(t, env.trash.PermanentDelete(env.ctx, models.KindFile, file.ID, testOwner))
	require.NoError(t, env.trash.PermanentDelete(env.ctx, models.KindFile, file.ID, testOwner))
}

func TestPermanentDelete_LiveTopNodeDecrementsParent(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	file := env.mustCreateFile(t, "notes.txt", &docs.ID)

	err := env.trash.PermanentDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)

	reloaded, err := env.folders.GetByID(env.ctx, docs.ID, testOwner)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Items)
}

// Storage failures are logged and skipped; the metadata purge must
// complete regardless.
func TestPermanentDelete_StorageFailureDoesNotBlock(t *testing.T) {
	env := newTestEnv(t)
	file := env.mustCreateFile(t, "notes.txt", nil)
	env.storage.fail = true

	err := env.trash.PermanentDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)

	_, err = env.files.GetByID(env.ctx, file.ID, testOwner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// A trashed node nested under another trashed node folds into its
// ancestor's trash entry instead of appearing twice.
func TestListTrash_FoldsNestedTrashedNodes(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	file := env.mustCreateFile(t, "notes.txt", &docs.ID)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)
	_, err = env.trash.SoftDelete(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)

	listing, err := env.trash.ListTrash(env.ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, listing.Folders, 1)
	assert.Equal(t, docs.ID, listing.Folders[0].ID)
	assert.Empty(t, listing.Files)
}

func TestEmptyTrash_PurgesTopLevelEntriesWithSubtrees(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	env.mustCreateFile(t, "inside.txt", &docs.ID)
	loose := env.mustCreateFile(t, "loose.txt", nil)
	survivor := env.mustCreateFile(t, "keep.txt", nil)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)
	_, err = env.trash.SoftDelete(env.ctx, models.KindFile, loose.ID, testOwner)
	require.NoError(t, err)

	result, err := env.trash.EmptyTrash(env.ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Folders)
	assert.Equal(t, 2, result.Files)

	listing, err := env.trash.ListTrash(env.ctx, testOwner)
	require.NoError(t, err)
	assert.Empty(t, listing.Folders)
	assert.Empty(t, listing.Files)

	_, err = env.files.GetByID(env.ctx, survivor.ID, testOwner)
	assert.NoError(t, err)
}

func TestEmptyTrash_EmptyIsZero(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.trash.EmptyTrash(env.ctx, testOwner)
	require.NoError(t, err)
	assert.Zero(t, result.Folders)
	assert.Zero(t, result.Files)
}

// Soft-deleting via the service boundary and listing through the
// hierarchy service agree on what is visible.
func TestTrashAndListing_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	env.mustCreateFile(t, "notes.txt", &docs.ID)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)

	rootListing, err := env.service.ListChildren(env.ctx, &services.ListRequest{OwnerID: testOwner})
	require.NoError(t, err)
	assert.Empty(t, rootListing.Folders)

	withDeleted, err := env.service.ListChildren(env.ctx, &services.ListRequest{
		OwnerID: testOwner, IncludeDeleted: true,
	})
	require.NoError(t, err)
	require.Len(t, withDeleted.Folders, 1)
	assert.True(t, withDeleted.Folders[0].HasDeletedAncestor)
}
