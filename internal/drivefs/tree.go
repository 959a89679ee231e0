package drivefs

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/logging"
	"github.com/teemow/drivepath/internal/query"
	"github.com/teemow/drivepath/internal/resolver"
)

const (
	// DefaultTreeDepth is the traversal depth when TreeOptions.MaxDepth is unset.
	DefaultTreeDepth = 3

	// treeBatchSize is the number of folders listed concurrently.
	treeBatchSize = 5
)

// TreeOptions selects the root and depth of a traversal.
type TreeOptions struct {
	RootPath string
	MaxDepth int
}

// TreeNode is one object in a tree.
type TreeNode struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Path         string      `json:"path"`
	MimeType     string      `json:"mimeType"`
	IsFolder     bool        `json:"isFolder"`
	Size         *int64      `json:"size,omitempty"`
	ModifiedTime time.Time   `json:"modifiedTime,omitzero"`
	Children     []*TreeNode `json:"children,omitempty"`
}

// TraversalStep is the outcome of listing one folder. Err is empty on success.
type TraversalStep struct {
	FolderID string `json:"folderId"`
	Path     string `json:"path"`
	Depth    int    `json:"depth"`
	Children int    `json:"children"`
	Err      string `json:"error,omitempty"`
}

// TraversalReport collects every step of a traversal in completion order
// per level.
type TraversalReport struct {
	Steps []TraversalStep `json:"steps"`
}

// Failed returns the steps whose listing failed.
func (r TraversalReport) Failed() []TraversalStep {
	var failed []TraversalStep
	for _, s := range r.Steps {
		if s.Err != "" {
			failed = append(failed, s)
		}
	}
	return failed
}

// Complete reports whether every listing succeeded.
func (r TraversalReport) Complete() bool {
	return len(r.Failed()) == 0
}

// Tree is the result of a traversal.
type Tree struct {
	Root    *TreeNode       `json:"root"`
	Folders int             `json:"folders"`
	Files   int             `json:"files"`
	Report  TraversalReport `json:"report"`
}

// BuildDirectoryTree returns the folders below opts.RootPath.
func (a *Adapter) BuildDirectoryTree(ctx context.Context, opts TreeOptions) (*Tree, error) {
	return a.buildTree(ctx, opts, true)
}

// BuildFileTree returns the folders and files below opts.RootPath.
func (a *Adapter) BuildFileTree(ctx context.Context, opts TreeOptions) (*Tree, error) {
	return a.buildTree(ctx, opts, false)
}

// buildTree walks breadth-first, listing each level's folders in batches of
// treeBatchSize concurrent calls. A folder that fails to list is recorded
// in the report and the traversal continues.
func (a *Adapter) buildTree(ctx context.Context, opts TreeOptions, foldersOnly bool) (*Tree, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultTreeDepth
	}

	root, err := a.treeRoot(ctx, opts.RootPath)
	if err != nil {
		return nil, err
	}

	tree := &Tree{Root: root}
	frontier := []*TreeNode{root}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []*TreeNode
		for start := 0; start < len(frontier); start += treeBatchSize {
			batch := frontier[start:min(start+treeBatchSize, len(frontier))]
			steps := a.listBatch(ctx, batch, depth, foldersOnly)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tree.Report.Steps = append(tree.Report.Steps, steps...)
			for _, node := range batch {
				for _, child := range node.Children {
					if child.IsFolder {
						next = append(next, child)
					}
				}
			}
		}
		frontier = next
	}

	countNodes(root, tree)
	if failed := tree.Report.Failed(); len(failed) > 0 {
		a.logger.Warn("tree traversal incomplete",
			logging.Path(root.Path), logging.Count(len(failed)))
	}
	return tree, nil
}

func (a *Adapter) treeRoot(ctx context.Context, rootPath string) (*TreeNode, error) {
	p := resolver.NormalizePath(rootPath)
	if p == resolver.Root {
		return &TreeNode{ID: drive.RootID, Name: resolver.Root, Path: p, MimeType: drive.FolderMimeType, IsFolder: true}, nil
	}

	id, err := a.resolver.ResolvePathToID(ctx, p)
	if err != nil {
		return nil, err
	}
	obj, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !obj.IsFolder() {
		return nil, fmt.Errorf("%s is not a folder", p)
	}
	return newTreeNode(obj, p), nil
}

// listBatch lists the children of every node in batch concurrently and
// attaches them. A child is attached only under its first parent, so an
// object with several parents appears once and its subtree is listed once.
// Each node and step slot is written by one goroutine only.
func (a *Adapter) listBatch(ctx context.Context, batch []*TreeNode, depth int, foldersOnly bool) []TraversalStep {
	steps := make([]TraversalStep, len(batch))
	var g errgroup.Group

	for i, node := range batch {
		g.Go(func() error {
			step := TraversalStep{FolderID: node.ID, Path: node.Path, Depth: depth}

			q := query.New().InParents(node.ID).Trashed(false)
			if foldersOnly {
				q.MimeTypeEquals(drive.FolderMimeType)
			}
			objs, err := a.listAll(ctx, q.Build())
			if err != nil {
				step.Err = err.Error()
				a.logger.Debug("skipping folder in traversal", logging.Path(node.Path), logging.Err(err))
			} else {
				node.Children = make([]*TreeNode, 0, len(objs))
				for _, obj := range objs {
					if !a.isFirstParent(ctx, obj, node.ID) {
						continue
					}
					childPath := resolver.Join(node.Path, obj.Name)
					a.resolver.Remember(childPath, obj.ID)
					node.Children = append(node.Children, newTreeNode(obj, childPath))
				}
				step.Children = len(node.Children)
			}

			steps[i] = step
			return nil
		})
	}
	_ = g.Wait()
	return steps
}

// isFirstParent reports whether folderID is the parent that defines obj's path.
func (a *Adapter) isFirstParent(ctx context.Context, obj *drive.RemoteObject, folderID string) bool {
	first := obj.FirstParent()
	if first == folderID {
		return true
	}
	return a.resolver.IsRoot(ctx, first) && a.resolver.IsRoot(ctx, folderID)
}

func newTreeNode(obj *drive.RemoteObject, path string) *TreeNode {
	return &TreeNode{
		ID:           obj.ID,
		Name:         obj.Name,
		Path:         path,
		MimeType:     obj.MimeType,
		IsFolder:     obj.IsFolder(),
		Size:         obj.Size,
		ModifiedTime: obj.ModifiedTime,
	}
}

func countNodes(node *TreeNode, tree *Tree) {
	for _, child := range node.Children {
		if child.IsFolder {
			tree.Folders++
		} else {
			tree.Files++
		}
		countNodes(child, tree)
	}
}
