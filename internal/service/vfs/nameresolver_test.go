package vfs

import (
	"context"
	"errors"
	"testing"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	"dotfile/internal/repository/memory"
)

func newTestResolver(t *testing.T) (*NameResolver, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewNameResolver(memory.NewFolderRepository(store), memory.NewFileRepository(store)), store
}

func seedFolder(t *testing.T, store *memory.Store, id, owner, name string, parentID *string) {
	t.Helper()
	folder := &models.Folder{Node: models.Node{ID: id, OwnerID: owner, ParentID: parentID, Name: name}}
	if err := memory.NewFolderRepository(store).Create(context.Background(), folder); err != nil {
		t.Fatalf("seed folder %s: %v", name, err)
	}
}

func TestResolve_NoConflict(t *testing.T) {
	resolver, _ := newTestResolver(t)

	res, err := resolver.Resolve(context.Background(), &ResolveRequest{
		Kind: models.KindFolder, Name: "Docs", OwnerID: "u1",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Name != "Docs" || res.ReplaceTarget != nil {
		t.Errorf("got (%q, %v), want (Docs, nil)", res.Name, res.ReplaceTarget)
	}
}

func TestResolve_ConflictWithoutAction(t *testing.T) {
	resolver, store := newTestResolver(t)
	seedFolder(t, store, "f1", "u1", "Docs", nil)

	_, err := resolver.Resolve(context.Background(), &ResolveRequest{
		Kind: models.KindFolder, Name: "Docs", OwnerID: "u1",
	})

	var conflictErr *domain.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("want ConflictError, got %v", err)
	}
	if conflictErr.ResourceID != "f1" {
		t.Errorf("conflict resource id = %q, want f1", conflictErr.ResourceID)
	}
}

func TestResolve_KeepBothFindsFreeSuffix(t *testing.T) {
	resolver, store := newTestResolver(t)
	seedFolder(t, store, "f1", "u1", "Docs", nil)
	seedFolder(t, store, "f2", "u1", "Docs (2)", nil)

	res, err := resolver.Resolve(context.Background(), &ResolveRequest{
		Kind: models.KindFolder, Name: "Docs", OwnerID: "u1", Action: models.DuplicateKeepBoth,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Name != "Docs (3)" {
		t.Errorf("name = %q, want Docs (3)", res.Name)
	}
}

func TestResolve_ReplaceReturnsTarget(t *testing.T) {
	resolver, store := newTestResolver(t)
	seedFolder(t, store, "f1", "u1", "Docs", nil)

	res, err := resolver.Resolve(context.Background(), &ResolveRequest{
		Kind: models.KindFolder, Name: "Docs", OwnerID: "u1", Action: models.DuplicateReplace,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Name != "Docs" {
		t.Errorf("name = %q, want Docs", res.Name)
	}
	if res.ReplaceTarget == nil || res.ReplaceTarget.Base().ID != "f1" {
		t.Errorf("replace target = %v, want folder f1", res.ReplaceTarget)
	}
}

// A node never conflicts with itself during rename or move.
func TestResolve_ExcludesSelf(t *testing.T) {
	resolver, store := newTestResolver(t)
	seedFolder(t, store, "f1", "u1", "Docs", nil)

	res, err := resolver.Resolve(context.Background(), &ResolveRequest{
		Kind: models.KindFolder, Name: "Docs", OwnerID: "u1", ExcludeID: "f1",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Name != "Docs" {
		t.Errorf("name = %q, want Docs", res.Name)
	}
}

// Files conflict per (name, extension): report.pdf and report.txt
// coexist.
func TestResolve_FileExtensionScopesConflict(t *testing.T) {
	resolver, store := newTestResolver(t)
	file := &models.File{
		Node:      models.Node{ID: "fl1", OwnerID: "u1", Name: "report"},
		Extension: "pdf",
	}
	if err := memory.NewFileRepository(store).Create(context.Background(), file); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	res, err := resolver.Resolve(context.Background(), &ResolveRequest{
		Kind: models.KindFile, Name: "report", Extension: "txt", OwnerID: "u1",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Name != "report" {
		t.Errorf("name = %q, want report", res.Name)
	}

	_, err = resolver.Resolve(context.Background(), &ResolveRequest{
		Kind: models.KindFile, Name: "report", Extension: "pdf", OwnerID: "u1",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("same extension should conflict, got %v", err)
	}
}
