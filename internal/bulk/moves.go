package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/resolver"
)

// MovePair asks for the object at From to end up at To.
type MovePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// MoveKind is the change a MovePair needs.
type MoveKind string

const (
	MoveNone      MoveKind = "none"
	MoveRename    MoveKind = "rename"
	MoveOnly      MoveKind = "move"
	MoveAndRename MoveKind = "move_and_rename"
)

// moveItemOperation labels pairs that fail before they can be classified.
const moveItemOperation = "move_path"

// ClassifyMove compares the directory and name parts of from and to.
func ClassifyMove(from, to string) MoveKind {
	fromDir, fromName := resolver.Split(from)
	toDir, toName := resolver.Split(to)

	switch {
	case fromDir == toDir && fromName == toName:
		return MoveNone
	case fromDir == toDir:
		return MoveRename
	case fromName == toName:
		return MoveOnly
	default:
		return MoveAndRename
	}
}

// MoveFiles applies each pair in order. A pair whose paths are equal is
// skipped; a pair that fails is recorded and the batch continues.
func (e *Executor) MoveFiles(ctx context.Context, pairs []MovePair) (*Result, error) {
	if len(pairs) == 0 {
		return nil, &ValidationError{Field: "moves", Reason: "cannot be empty"}
	}

	r := e.begin("move_files", len(pairs))
	for i, pair := range pairs {
		item := Item{Index: i, Target: pair.From}

		if pair.From == "" || pair.To == "" {
			field := "from"
			if pair.From != "" {
				field = "to"
			}
			r.fail(ctx, item, moveItemOperation, pair, &ValidationError{Field: field, Reason: "is required"})
			continue
		}

		from := resolver.NormalizePath(pair.From)
		to := resolver.NormalizePath(pair.To)
		kind := ClassifyMove(from, to)
		if kind == MoveNone {
			r.skip(ctx, item, string(kind), "source and destination are the same")
			continue
		}

		id, changed, err := e.movePath(ctx, from, to, kind)
		item.ID = id
		item.Path = to
		switch {
		case err != nil:
			r.fail(ctx, item, string(kind), pair, err)
		case !changed:
			r.skip(ctx, item, string(kind), "already in requested state")
		default:
			r.succeed(ctx, item, string(kind))
		}
	}
	return r.finish(ctx), nil
}

func (e *Executor) movePath(ctx context.Context, from, to string, kind MoveKind) (string, bool, error) {
	fromDir, _ := resolver.Split(from)
	toDir, toName := resolver.Split(to)

	sourceID, err := e.adapter.ResolvePath(ctx, from)
	if err != nil {
		if resolver.IsNotFound(err) {
			return "", false, fmt.Errorf("source file/folder not found: %s", from)
		}
		return "", false, err
	}

	var destID string
	if kind != MoveRename {
		destID, err = e.adapter.ResolvePath(ctx, toDir)
		if err != nil {
			if resolver.IsNotFound(err) {
				return sourceID, false, fmt.Errorf("destination folder not found: %s", toDir)
			}
			return sourceID, false, err
		}
	}

	isFolder, err := e.lookupIsFolder(ctx, fromDir, sourceID)
	if err != nil {
		return sourceID, false, err
	}

	changed := false
	if kind == MoveOnly || kind == MoveAndRename {
		move := e.adapter.MoveFile
		if isFolder {
			move = e.adapter.MoveFolder
		}
		res, err := move(ctx, sourceID, destID)
		if err != nil {
			return sourceID, false, err
		}
		changed = res.Changed
	}

	if kind == MoveRename || kind == MoveAndRename {
		rename := e.adapter.RenameFile
		if isFolder {
			rename = e.adapter.RenameFolder
		}
		if _, err := rename(ctx, sourceID, toName); err != nil {
			return sourceID, changed, err
		}
		changed = true
	}

	return sourceID, changed, nil
}

// errSourceMissing is returned when the source is not among the children
// of its own directory listing.
var errSourceMissing = errors.New("source file/folder not found")

// lookupIsFolder finds id among the children of dir to learn its type.
func (e *Executor) lookupIsFolder(ctx context.Context, dir, id string) (bool, error) {
	dirID, err := e.adapter.ResolvePath(ctx, dir)
	if err != nil {
		return false, err
	}
	children, err := e.adapter.Children(ctx, dirID)
	if err != nil {
		return false, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, c := range children {
		if c.ID == id {
			return c.IsFolder, nil
		}
	}
	return false, fmt.Errorf("%w: %s", errSourceMissing, id)
}

// CreateFolders creates every requested path, creating missing parents on
// the way. Only the leaf of each path counts: a new leaf succeeds and an
// existing one is skipped.
func (e *Executor) CreateFolders(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, &ValidationError{Field: "paths", Reason: "cannot be empty"}
	}

	r := e.begin("create_folders", len(paths))
	for i, raw := range paths {
		p := resolver.NormalizePath(raw)
		item := Item{Index: i, Target: p, Path: p}

		if p == resolver.Root {
			r.fail(ctx, item, string(OpCreateFolder), raw, fmt.Errorf("cannot create the root folder"))
			continue
		}

		id, created, err := e.ensureFolder(ctx, p)
		item.ID = id
		switch {
		case err != nil:
			r.fail(ctx, item, string(OpCreateFolder), raw, err)
		case !created:
			r.skip(ctx, item, string(OpCreateFolder), "folder already exists")
		default:
			r.succeed(ctx, item, string(OpCreateFolder))
		}
	}
	return r.finish(ctx), nil
}

// ensureFolder walks p from the root, creating each missing segment.
// It reports whether the leaf was created.
func (e *Executor) ensureFolder(ctx context.Context, p string) (string, bool, error) {
	parentID := drive.RootID
	current := resolver.Root
	created := false

	for _, seg := range resolver.Segments(p) {
		current = resolver.Join(current, seg)

		id, err := e.adapter.ResolvePath(ctx, current)
		if err == nil {
			parentID = id
			created = false
			continue
		}
		if !resolver.IsNotFound(err) {
			return "", false, err
		}

		f, err := e.adapter.CreateFolder(ctx, seg, parentID)
		if err != nil {
			return "", false, err
		}
		parentID = f.ID
		created = true
	}
	return parentID, created, nil
}
