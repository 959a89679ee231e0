package drivefs

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/logging"
	"github.com/teemow/drivepath/internal/query"
)

const (
	defaultListPageSize   = 100
	maxListPageSize       = 1000
	defaultSearchResults  = 50
	listOrderFoldersFirst = "folder,name"
)

// Conditions a raw filter may already carry. Quoted literals are removed
// before matching, so `name contains 'trashed'` is not a trashed condition.
var (
	quotedLiteral = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)
	parentsTerm   = regexp.MustCompile(`\bin\s+parents\b`)
	trashedTerm   = regexp.MustCompile(`\btrashed\s*!?=`)
	mimeTypeTerm  = regexp.MustCompile(`\bmimeType\s*(?:!?=|contains\b)`)
)

// ListOptions selects a folder and filters its children.
type ListOptions struct {
	// FolderID takes precedence over FolderPath. Neither means the root.
	FolderID   string
	FolderPath string

	// Query is a raw filter merged with the folder and trashed constraints.
	Query string

	IncludeShared   bool
	OnlyDirectories bool
	PageSize        int
	PageToken       string
}

// ListResult is one page of a directory listing.
type ListResult struct {
	FolderID      string          `json:"folderId"`
	FolderPath    string          `json:"folderPath"`
	Files         []CanonicalFile `json:"files"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

// ListDirectory returns one page of the children of a folder.
func (a *Adapter) ListDirectory(ctx context.Context, opts ListOptions) (*ListResult, error) {
	folderID, folderPath, err := a.folderTarget(ctx, opts.FolderID, opts.FolderPath)
	if err != nil {
		return nil, err
	}

	res, err := a.store.List(ctx, drive.ListRequest{
		Query:     directoryQuery(folderID, opts),
		PageSize:  clampPageSize(opts.PageSize, defaultListPageSize),
		PageToken: opts.PageToken,
		OrderBy:   listOrderFoldersFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folderPath, err)
	}

	out := &ListResult{
		FolderID:      folderID,
		FolderPath:    folderPath,
		Files:         make([]CanonicalFile, 0, len(res.Objects)),
		NextPageToken: res.NextPageToken,
	}
	for _, obj := range res.Objects {
		out.Files = append(out.Files, a.canonical(ctx, obj))
	}

	a.logger.Debug("listed directory", logging.Path(folderPath), logging.Count(len(out.Files)))
	return out, nil
}

// directoryQuery builds the filter for a listing. A caller-supplied filter
// keeps its own parent and trashed conditions when it has them.
func directoryQuery(folderID string, opts ListOptions) string {
	b := query.New()
	raw := strings.TrimSpace(opts.Query)
	terms := quotedLiteral.ReplaceAllString(raw, "''")

	if !parentsTerm.MatchString(terms) {
		b.InParents(folderID)
	}
	if !trashedTerm.MatchString(terms) {
		b.Trashed(false)
	}
	if raw == "" {
		if !opts.IncludeShared {
			b.OwnedByMe()
		}
		if opts.OnlyDirectories {
			b.MimeTypeEquals(drive.FolderMimeType)
		}
		return b.Build()
	}

	if opts.OnlyDirectories && !mimeTypeTerm.MatchString(terms) {
		b.MimeTypeEquals(drive.FolderMimeType)
	}
	return b.Raw(raw).Build()
}

func clampPageSize(n, def int) int {
	switch {
	case n <= 0:
		return def
	case n > maxListPageSize:
		return maxListPageSize
	default:
		return n
	}
}

// listAll follows pagination until all results of q are collected.
func (a *Adapter) listAll(ctx context.Context, q string) ([]*drive.RemoteObject, error) {
	var all []*drive.RemoteObject
	token := ""
	for {
		res, err := a.store.List(ctx, drive.ListRequest{
			Query:     q,
			PageSize:  maxListPageSize,
			PageToken: token,
			OrderBy:   listOrderFoldersFirst,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, res.Objects...)
		if res.NextPageToken == "" {
			return all, nil
		}
		token = res.NextPageToken
	}
}

// Children returns every untrashed child of folderID, following pagination.
func (a *Adapter) Children(ctx context.Context, folderID string) ([]CanonicalFile, error) {
	objs, err := a.listAll(ctx, query.New().InParents(folderID).Trashed(false).Build())
	if err != nil {
		return nil, err
	}
	files := make([]CanonicalFile, 0, len(objs))
	for _, obj := range objs {
		files = append(files, a.canonical(ctx, obj))
	}
	return files, nil
}

// SearchOptions describes a search across the drive or within one folder.
type SearchOptions struct {
	Query       string
	FolderID    string
	MimeType    string
	NamePattern string
	MaxResults  int
}

// PatternFilterStatus tells what happened to the optional name pattern.
type PatternFilterStatus string

const (
	PatternFilterNone    PatternFilterStatus = "none"
	PatternFilterApplied PatternFilterStatus = "applied"
	PatternFilterSkipped PatternFilterStatus = "skipped"
)

// PatternFilterOutcome reports how the client-side name pattern was applied.
// An invalid pattern is skipped, not treated as an error.
type PatternFilterOutcome struct {
	Status  PatternFilterStatus `json:"status"`
	Reason  string              `json:"reason,omitempty"`
	Removed int                 `json:"removed,omitempty"`
}

// SearchResult holds matching files and the name-pattern outcome.
type SearchResult struct {
	Files         []CanonicalFile      `json:"files"`
	PatternFilter PatternFilterOutcome `json:"patternFilter"`
}

// SearchFiles matches the query against names and full text, then filters
// names client-side by NamePattern when it is a valid regular expression.
func (a *Adapter) SearchFiles(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	b := query.New().NameOrFullTextContains(opts.Query)
	if opts.FolderID != "" {
		b.InParents(opts.FolderID)
	}
	if opts.MimeType != "" {
		b.MimeTypeEquals(opts.MimeType)
	}
	b.Trashed(false)

	res, err := a.store.List(ctx, drive.ListRequest{
		Query:    b.Build(),
		PageSize: clampPageSize(opts.MaxResults, defaultSearchResults),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}

	objs, outcome := filterByPattern(res.Objects, opts.NamePattern)
	if outcome.Status == PatternFilterSkipped {
		a.logger.Warn("ignoring invalid name pattern",
			slog.String("pattern", opts.NamePattern),
			slog.String("reason", outcome.Reason))
	}

	out := &SearchResult{
		Files:         make([]CanonicalFile, 0, len(objs)),
		PatternFilter: outcome,
	}
	for _, obj := range objs {
		out.Files = append(out.Files, a.canonical(ctx, obj))
	}
	return out, nil
}

func filterByPattern(objs []*drive.RemoteObject, pattern string) ([]*drive.RemoteObject, PatternFilterOutcome) {
	if pattern == "" {
		return objs, PatternFilterOutcome{Status: PatternFilterNone}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return objs, PatternFilterOutcome{
			Status: PatternFilterSkipped,
			Reason: fmt.Sprintf("invalid pattern: %v", err),
		}
	}

	kept := make([]*drive.RemoteObject, 0, len(objs))
	for _, obj := range objs {
		if re.MatchString(obj.Name) {
			kept = append(kept, obj)
		}
	}
	return kept, PatternFilterOutcome{
		Status:  PatternFilterApplied,
		Removed: len(objs) - len(kept),
	}
}
