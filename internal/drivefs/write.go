package drivefs

import (
	"context"
	"fmt"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/logging"
	"github.com/teemow/drivepath/internal/resolver"
)

// ChangeResult is the outcome of a move or rename.
type ChangeResult struct {
	File CanonicalFile `json:"file"`

	// Changed is false when the object was already in the requested state
	// and no update was issued.
	Changed bool `json:"changed"`
}

// MoveFile makes newParentID the only parent of the object. Moving into a
// folder the object already belongs to is a no-op.
func (a *Adapter) MoveFile(ctx context.Context, id, newParentID string) (*ChangeResult, error) {
	if id == "" {
		return nil, fmt.Errorf("fileId is required")
	}
	if newParentID == "" {
		return nil, fmt.Errorf("newParentId is required")
	}

	obj, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.move(ctx, obj, newParentID)
}

// MoveFolder is MoveFile restricted to folders.
func (a *Adapter) MoveFolder(ctx context.Context, id, newParentID string) (*ChangeResult, error) {
	if id == "" {
		return nil, fmt.Errorf("folderId is required")
	}
	if newParentID == "" {
		return nil, fmt.Errorf("newParentId is required")
	}

	obj, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !obj.IsFolder() {
		return nil, fmt.Errorf("%s is not a folder", obj.Name)
	}
	return a.move(ctx, obj, newParentID)
}

func (a *Adapter) move(ctx context.Context, obj *drive.RemoteObject, newParentID string) (*ChangeResult, error) {
	for _, p := range obj.Parents {
		if a.sameFolder(ctx, p, newParentID) {
			a.logger.Debug("object already in target folder",
				logging.FileID(obj.ID), logging.ParentID(newParentID))
			return &ChangeResult{File: a.canonical(ctx, obj)}, nil
		}
	}

	updated, err := a.store.Update(ctx, obj.ID, drive.UpdateRequest{
		AddParents:    []string{newParentID},
		RemoveParents: obj.Parents,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move %s: %w", obj.Name, err)
	}

	a.resolver.Invalidate(obj.ID)
	a.logger.Info("moved object", logging.FileID(obj.ID), logging.ParentID(newParentID))
	return &ChangeResult{File: a.canonical(ctx, updated), Changed: true}, nil
}

func (a *Adapter) sameFolder(ctx context.Context, x, y string) bool {
	if x == y {
		return true
	}
	return a.resolver.IsRoot(ctx, x) && a.resolver.IsRoot(ctx, y)
}

// RenameFile changes the name of a file.
func (a *Adapter) RenameFile(ctx context.Context, id, newName string) (*ChangeResult, error) {
	if id == "" {
		return nil, fmt.Errorf("fileId is required")
	}
	return a.rename(ctx, id, newName)
}

// RenameFolder changes the name of a folder. Drive makes no distinction
// from renaming a file.
func (a *Adapter) RenameFolder(ctx context.Context, id, newName string) (*ChangeResult, error) {
	if id == "" {
		return nil, fmt.Errorf("folderId is required")
	}
	return a.rename(ctx, id, newName)
}

func (a *Adapter) rename(ctx context.Context, id, newName string) (*ChangeResult, error) {
	if newName == "" {
		return nil, fmt.Errorf("newName is required")
	}

	updated, err := a.store.Update(ctx, id, drive.UpdateRequest{Name: newName})
	if err != nil {
		return nil, fmt.Errorf("failed to rename %s: %w", id, err)
	}

	a.resolver.Invalidate(id)
	a.logger.Info("renamed object", logging.FileID(id))
	return &ChangeResult{File: a.canonical(ctx, updated), Changed: true}, nil
}

// CreateFolder creates a folder named name in parentID. Existing siblings
// with the same name are not checked.
func (a *Adapter) CreateFolder(ctx context.Context, name, parentID string) (*CanonicalFile, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if parentID == "" {
		parentID = drive.RootID
	}

	obj, err := a.store.Create(ctx, drive.CreateRequest{
		Name:     name,
		MimeType: drive.FolderMimeType,
		Parents:  []string{parentID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", name, err)
	}

	if parentPath, ok := a.resolver.CachedPath(parentID); ok {
		a.resolver.Remember(resolver.Join(parentPath, name), obj.ID)
	}

	f := a.canonical(ctx, obj)
	a.logger.Info("created folder", logging.Path(f.Path), logging.FileID(obj.ID))
	return &f, nil
}
