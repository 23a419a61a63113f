package vfs

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotfile/internal/config"
	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	repos "dotfile/internal/domain/repositories/vfs"
	services "dotfile/internal/domain/services/vfs"
	"dotfile/internal/filetypes"
	"dotfile/internal/repository/memory"
)

const testOwner = "owner-1"

// fakeStorage records deleted storage keys and can be told to fail.
type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	fail    bool
}

func (s *fakeStorage) DeleteBytes(ctx context.Context, storageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return assert.AnError
	}
	s.deleted = append(s.deleted, storageKey)
	return nil
}

// lockingFolderRepo records which folder rows were fetched with a row
// lock.
type lockingFolderRepo struct {
	repos.FolderRepository
	mu     sync.Mutex
	locked []string
}

func (r *lockingFolderRepo) GetByIDForUpdate(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	r.mu.Lock()
	r.locked = append(r.locked, id)
	r.mu.Unlock()
	return r.FolderRepository.GetByIDForUpdate(ctx, id, ownerID)
}

// failingFolderRepo fails GetByID for one folder id, standing in for a
// transient store error.
type failingFolderRepo struct {
	repos.FolderRepository
	failID string
}

func (r *failingFolderRepo) GetByID(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	if id == r.failID {
		return nil, assert.AnError
	}
	return r.FolderRepository.GetByID(ctx, id, ownerID)
}

type testEnv struct {
	ctx     context.Context
	folders repos.FolderRepository
	files   repos.FileRepository
	service services.HierarchyService
	trash   *TrashEngine
	storage *fakeStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	return newTestEnvWithRepos(t, memory.NewFolderRepository(store), memory.NewFileRepository(store))
}

func newTestEnvWithRepos(t *testing.T, folders repos.FolderRepository, files repos.FileRepository) *testEnv {
	t.Helper()

	txManager := memory.NewTransactionManager()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	resolver := NewNameResolver(folders, files)
	paths := NewPathMaterializer(folders, files, logger)
	counts := NewCountTracker(folders)
	validator := NewResourceValidator(folders)
	blobStore := &fakeStorage{}
	trash := NewTrashEngine(folders, files, counts, resolver, paths, validator, txManager, blobStore, logger)

	classifier, err := filetypes.NewRegistry()
	require.NoError(t, err)

	service := NewHierarchyService(
		folders, files, resolver, paths, counts, validator, trash,
		txManager, NewOwnerOnlyPermissions(), classifier, logger,
	)

	return &testEnv{
		ctx:     context.Background(),
		folders: folders,
		files:   files,
		service: service,
		trash:   trash,
		storage: blobStore,
	}
}

func (e *testEnv) mustCreateFolder(t *testing.T, name string, parentID *string) *models.Folder {
	t.Helper()
	folder, err := e.service.CreateFolder(e.ctx, &services.CreateFolderRequest{
		OwnerID: testOwner, Name: name, ParentID: parentID,
	})
	require.NoError(t, err)
	return folder
}

func (e *testEnv) mustCreateFile(t *testing.T, name string, parentID *string) *models.File {
	t.Helper()
	file, err := e.service.CreateFile(e.ctx, &services.CreateFileRequest{
		OwnerID: testOwner, Name: name, ParentID: parentID,
	})
	require.NoError(t, err)
	return file
}

func TestCreateFolder_Root(t *testing.T) {
	env := newTestEnv(t)

	folder := env.mustCreateFolder(t, "My Docs", nil)

	assert.NotEmpty(t, folder.ID)
	assert.Equal(t, "My Docs", folder.Name)
	assert.Equal(t, "/my-docs", folder.Path)
	assert.Empty(t, folder.PathSegments)
	assert.False(t, folder.IsTrashed())
	assert.Zero(t, folder.Items)
}

func TestCreateFolder_NestedIncrementsParentCount(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustCreateFolder(t, "Docs", nil)

	child := env.mustCreateFolder(t, "Reports", &parent.ID)

	assert.Equal(t, "/docs/reports", child.Path)
	require.Len(t, child.PathSegments, 1)
	assert.Equal(t, "Docs", child.PathSegments[0].Name)

	reloaded, err := env.folders.GetByID(env.ctx, parent.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Items)
}

func TestCreateFolder_DuplicateWithoutActionConflicts(t *testing.T) {
	env := newTestEnv(t)
	existing := env.mustCreateFolder(t, "Docs", nil)

	_, err := env.service.CreateFolder(env.ctx, &services.CreateFolderRequest{
		OwnerID: testOwner, Name: "Docs",
	})

	var conflictErr *domain.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, existing.ID, conflictErr.ResourceID)
}

func TestCreateFolder_KeepBothSuffixes(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateFolder(t, "Report", nil)

	folder, err := env.service.CreateFolder(env.ctx, &services.CreateFolderRequest{
		OwnerID: testOwner, Name: "Report", DuplicateAction: models.DuplicateKeepBoth,
	})
	require.NoError(t, err)

	assert.Equal(t, "Report (2)", folder.Name)
	assert.Equal(t, "/report-2", folder.Path)
}

func TestCreateFolder_ReplacePurgesExistingSubtree(t *testing.T) {
	env := newTestEnv(t)
	old := env.mustCreateFolder(t, "Docs", nil)
	inside := env.mustCreateFile(t, "notes.txt", &old.ID)

	replacement, err := env.service.CreateFolder(env.ctx, &services.CreateFolderRequest{
		OwnerID: testOwner, Name: "Docs", DuplicateAction: models.DuplicateReplace,
	})
	require.NoError(t, err)

	assert.Equal(t, "Docs", replacement.Name)
	assert.NotEqual(t, old.ID, replacement.ID)

	_, err = env.folders.GetByID(env.ctx, old.ID, testOwner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.files.GetByID(env.ctx, inside.ID, testOwner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, env.storage.deleted, inside.StorageKey)
}

// Two maximum-length names nested under each other push the
// materialized path over the cap.
func TestCreateFolder_PathTooLongIsRejected(t *testing.T) {
	env := newTestEnv(t)
	longName := strings.Repeat("a", config.MaxNodeNameLength)
	parent := env.mustCreateFolder(t, longName, nil)

	_, err := env.service.CreateFolder(env.ctx, &services.CreateFolderRequest{
		OwnerID: testOwner, Name: longName, ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateFile_SplitsNameAndCategorizes(t *testing.T) {
	env := newTestEnv(t)

	file := env.mustCreateFile(t, "Quarterly Report.pdf", nil)

	assert.Equal(t, "Quarterly Report", file.Name)
	assert.Equal(t, "pdf", file.Extension)
	assert.Equal(t, "/quarterly-report", file.Path)
	assert.Equal(t, "pdf", file.Category)
	assert.NotEmpty(t, file.StorageKey)
}

func TestCreateFile_RejectsSlashes(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.CreateFile(env.ctx, &services.CreateFileRequest{
		OwnerID: testOwner, Name: "a/b.txt",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGet_CrossOwnerIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	folder := env.mustCreateFolder(t, "Docs", nil)

	_, err := env.service.Get(env.ctx, models.KindFolder, folder.ID, "someone-else", "someone-else")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_NonOwnerActorIsDenied(t *testing.T) {
	env := newTestEnv(t)
	folder := env.mustCreateFolder(t, "Docs", nil)

	_, err := env.service.Get(env.ctx, models.KindFolder, folder.ID, testOwner, "intruder")
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestRename_FolderCascadesToSubtree(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	sub := env.mustCreateFolder(t, "Sub", &docs.ID)
	file := env.mustCreateFile(t, "notes.txt", &sub.ID)

	renamed, err := env.service.Rename(env.ctx, &services.RenameRequest{
		OwnerID: testOwner, Kind: models.KindFolder, NodeID: docs.ID, NewName: "Work",
	})
	require.NoError(t, err)
	assert.Equal(t, "/work", renamed.Base().Path)

	gotSub, err := env.folders.GetByID(env.ctx, sub.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "/work/sub", gotSub.Path)
	assert.Equal(t, "Work", gotSub.PathSegments[0].Name)

	gotFile, err := env.files.GetByID(env.ctx, file.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "/work/sub/notes", gotFile.Path)
}

func TestRename_FileCanChangeExtension(t *testing.T) {
	env := newTestEnv(t)
	file := env.mustCreateFile(t, "notes.txt", nil)

	renamed, err := env.service.Rename(env.ctx, &services.RenameRequest{
		OwnerID: testOwner, Kind: models.KindFile, NodeID: file.ID, NewName: "summary.md",
	})
	require.NoError(t, err)

	got := renamed.(*models.File)
	assert.Equal(t, "summary", got.Name)
	assert.Equal(t, "md", got.Extension)
	assert.Equal(t, "document", got.Category)
}

func TestRename_SameNameIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	folder := env.mustCreateFolder(t, "Docs", nil)

	renamed, err := env.service.Rename(env.ctx, &services.RenameRequest{
		OwnerID: testOwner, Kind: models.KindFolder, NodeID: folder.ID, NewName: "Docs",
	})
	require.NoError(t, err)
	assert.Equal(t, "Docs", renamed.Base().Name)
	assert.Equal(t, "/docs", renamed.Base().Path)
}

func TestMove_IntoOwnDescendantFails(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	sub := env.mustCreateFolder(t, "Sub", &docs.ID)
	deep := env.mustCreateFolder(t, "Deep", &sub.ID)

	_, err := env.service.Move(env.ctx, &services.MoveRequest{
		OwnerID: testOwner, Kind: models.KindFolder, NodeID: docs.ID, NewParentID: &deep.ID,
	})
	assert.ErrorIs(t, err, domain.ErrCycle)

	_, err = env.service.Move(env.ctx, &services.MoveRequest{
		OwnerID: testOwner, Kind: models.KindFolder, NodeID: docs.ID, NewParentID: &docs.ID,
	})
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestMove_UpdatesCountsAndPaths(t *testing.T) {
	env := newTestEnv(t)
	src := env.mustCreateFolder(t, "Src", nil)
	dst := env.mustCreateFolder(t, "Dst", nil)
	file := env.mustCreateFile(t, "notes.txt", &src.ID)

	moved, err := env.service.Move(env.ctx, &services.MoveRequest{
		OwnerID: testOwner, Kind: models.KindFile, NodeID: file.ID, NewParentID: &dst.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "/dst/notes", moved.Base().Path)

	gotSrc, err := env.folders.GetByID(env.ctx, src.ID, testOwner)
	require.NoError(t, err)
	assert.Zero(t, gotSrc.Items)

	gotDst, err := env.folders.GetByID(env.ctx, dst.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 1, gotDst.Items)
}

func TestMove_FolderCarriesSubtree(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	sub := env.mustCreateFolder(t, "Sub", &docs.ID)
	file := env.mustCreateFile(t, "notes.txt", &sub.ID)
	archive := env.mustCreateFolder(t, "Archive", nil)

	_, err := env.service.Move(env.ctx, &services.MoveRequest{
		OwnerID: testOwner, Kind: models.KindFolder, NodeID: sub.ID, NewParentID: &archive.ID,
	})
	require.NoError(t, err)

	gotFile, err := env.files.GetByID(env.ctx, file.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "/archive/sub/notes", gotFile.Path)
	require.Len(t, gotFile.PathSegments, 2)
	assert.Equal(t, "Archive", gotFile.PathSegments[0].Name)
	assert.Equal(t, "Sub", gotFile.PathSegments[1].Name)
}

func TestMove_TrashedNodeFails(t *testing.T) {
	env := newTestEnv(t)
	file := env.mustCreateFile(t, "notes.txt", nil)
	dst := env.mustCreateFolder(t, "Dst", nil)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFile, file.ID, testOwner)
	require.NoError(t, err)

	_, err = env.service.Move(env.ctx, &services.MoveRequest{
		OwnerID: testOwner, Kind: models.KindFile, NodeID: file.ID, NewParentID: &dst.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMove_ToTrashedParentFails(t *testing.T) {
	env := newTestEnv(t)
	file := env.mustCreateFile(t, "notes.txt", nil)
	dst := env.mustCreateFolder(t, "Dst", nil)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFolder, dst.ID, testOwner)
	require.NoError(t, err)

	_, err = env.service.Move(env.ctx, &services.MoveRequest{
		OwnerID: testOwner, Kind: models.KindFile, NodeID: file.ID, NewParentID: &dst.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// A move must fetch the node with a row lock so two racing moves of
// the same node serialize; without it both read the old parent and the
// loser's count adjustments land on the wrong folders.
func TestMove_LocksNodeRow(t *testing.T) {
	store := memory.NewStore()
	folders := &lockingFolderRepo{FolderRepository: memory.NewFolderRepository(store)}
	env := newTestEnvWithRepos(t, folders, memory.NewFileRepository(store))

	docs := env.mustCreateFolder(t, "Docs", nil)
	dst := env.mustCreateFolder(t, "Dst", nil)

	_, err := env.service.Move(env.ctx, &services.MoveRequest{
		OwnerID: testOwner, Kind: models.KindFolder, NodeID: docs.ID, NewParentID: &dst.ID,
	})
	require.NoError(t, err)
	assert.Contains(t, folders.locked, docs.ID)
}

func TestUpdate_PinAndColor(t *testing.T) {
	env := newTestEnv(t)
	folder := env.mustCreateFolder(t, "Docs", nil)

	pinned := true
	color := "teal"
	updated, err := env.service.Update(env.ctx, &services.UpdateRequest{
		OwnerID: testOwner, Kind: models.KindFolder, NodeID: folder.ID,
		IsPinned: &pinned, Color: &color,
	})
	require.NoError(t, err)
	assert.True(t, updated.Base().IsPinned)
	assert.Equal(t, "teal", updated.(*models.Folder).Color)

	file := env.mustCreateFile(t, "notes.txt", nil)
	_, err = env.service.Update(env.ctx, &services.UpdateRequest{
		OwnerID: testOwner, Kind: models.KindFile, NodeID: file.ID, Color: &color,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListChildren_Breadcrumbs(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	sub := env.mustCreateFolder(t, "Sub", &docs.ID)
	env.mustCreateFile(t, "notes.txt", &sub.ID)

	listing, err := env.service.ListChildren(env.ctx, &services.ListRequest{
		OwnerID: testOwner, ParentID: &sub.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RootLabelDefault, listing.RootLabel)
	require.Len(t, listing.Breadcrumbs, 2)
	assert.Equal(t, "Docs", listing.Breadcrumbs[0].Name)
	assert.Equal(t, "Sub", listing.Breadcrumbs[1].Name)
	assert.Empty(t, listing.Folders)
	require.Len(t, listing.Files, 1)
	assert.False(t, listing.Files[0].HasDeletedAncestor)
}

func TestListChildren_RootListing(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateFolder(t, "Docs", nil)
	env.mustCreateFile(t, "notes.txt", nil)

	listing, err := env.service.ListChildren(env.ctx, &services.ListRequest{OwnerID: testOwner})
	require.NoError(t, err)

	assert.Nil(t, listing.Folder)
	assert.Equal(t, models.RootLabelDefault, listing.RootLabel)
	assert.Empty(t, listing.Breadcrumbs)
	assert.Len(t, listing.Folders, 1)
	assert.Len(t, listing.Files, 1)
}

// The root is not a shareable node; only the owner may list it, no
// matter what owner id the caller names.
func TestListChildren_RootOfOtherOwnerIsDenied(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateFolder(t, "Docs", nil)
	env.mustCreateFile(t, "notes.txt", nil)

	_, err := env.service.ListChildren(env.ctx, &services.ListRequest{
		OwnerID: testOwner, ActorID: "intruder",
	})
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

// Browsing into a trashed folder flips the effective root to Trash and
// flags every child as sitting under a deleted ancestor, even though
// the children themselves are live.
func TestListChildren_InsideTrashedFolder(t *testing.T) {
	env := newTestEnv(t)
	docs := env.mustCreateFolder(t, "Docs", nil)
	env.mustCreateFile(t, "notes.txt", &docs.ID)

	_, err := env.trash.SoftDelete(env.ctx, models.KindFolder, docs.ID, testOwner)
	require.NoError(t, err)

	listing, err := env.service.ListChildren(env.ctx, &services.ListRequest{
		OwnerID: testOwner, ParentID: &docs.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RootLabelTrash, listing.RootLabel)
	require.Len(t, listing.Files, 1)
	assert.True(t, listing.Files[0].HasDeletedAncestor)
	assert.False(t, listing.Files[0].IsTrashed())
}
