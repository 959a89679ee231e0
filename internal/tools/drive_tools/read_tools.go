package drive_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivepath/internal/drivefs"
	"github.com/teemow/drivepath/internal/server"
	"github.com/teemow/drivepath/internal/tools/common"
)

// registerReadTools registers the listing, search, read and resolve tools
func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listDirectoryTool := mcp.NewTool("drive_list_directory",
		mcp.WithDescription("List the files and folders in a Google Drive folder, addressed by path or ID. Every entry carries its absolute path."),
		mcp.WithReadOnlyHintAnnotation(true),
		idOption("folderId", "folder to list"),
		pathOption("folderPath", "folder to list (default: '/')"),
		mcp.WithString("query",
			mcp.Description("Additional Drive query, e.g. \"name contains 'report'\". Parent and trashed constraints are added when missing."),
		),
		mcp.WithBoolean("includeShared",
			mcp.Description("Include items not owned by you (default: true)"),
		),
		mcp.WithBoolean("onlyDirectories",
			mcp.Description("Only return folders (default: false)"),
		),
		mcp.WithNumber("pageSize",
			mcp.Description("Maximum number of entries to return (default: 100, max: 1000)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Page token from a previous call"),
		),
	)
	s.AddTool(listDirectoryTool, common.InstrumentedToolHandler("drive_list_directory", common.OperationList, sc, handleListDirectory(sc)))

	searchFilesTool := mcp.NewTool("drive_search_files",
		mcp.WithDescription("Search Google Drive by file name and content. Results can be narrowed by folder, MIME type and a regular expression on the name."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text matched against file names and full text"),
		),
		idOption("folderId", "folder to search in (direct children only)"),
		pathOption("folderPath", "folder to search in (direct children only)"),
		mcp.WithString("mimeType",
			mcp.Description("Only return files of this MIME type, e.g. 'application/pdf'"),
		),
		mcp.WithString("namePattern",
			mcp.Description("Regular expression applied to file names after the search. An invalid pattern is ignored and reported."),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results (default: 50, max: 1000)"),
		),
	)
	s.AddTool(searchFilesTool, common.InstrumentedToolHandler("drive_search_files", common.OperationSearch, sc, handleSearchFiles(sc)))

	readFileTool := mcp.NewTool("drive_read_file",
		mcp.WithDescription("Read the content of a file. Google Docs, Sheets, Slides and Drawings are exported; text is returned as UTF-8, other content as base64."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("fileId",
			mcp.Description("ID of the file (takes precedence over the path)"),
		),
		mcp.WithString("path",
			mcp.Description("Absolute path of the file"),
		),
		mcp.WithNumber("maxSize",
			mcp.Description("Maximum number of bytes to return (default: 1048576)"),
		),
		mcp.WithNumber("startOffset",
			mcp.Description("First byte of the range to read (inclusive)"),
		),
		mcp.WithNumber("endOffset",
			mcp.Description("End of the range to read (exclusive)"),
		),
	)
	s.AddTool(readFileTool, common.InstrumentedToolHandler("drive_read_file", common.OperationRead, sc, handleReadFile(sc)))

	resolvePathTool := mcp.NewTool("drive_resolve_path",
		mcp.WithDescription("Translate an absolute path to a file ID, or a file ID to its absolute path, and return the file's metadata."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("path",
			mcp.Description("Absolute path to resolve"),
		),
		mcp.WithString("fileId",
			mcp.Description("File ID to resolve"),
		),
	)
	s.AddTool(resolvePathTool, common.InstrumentedToolHandler("drive_resolve_path", common.OperationResolve, sc, handleResolvePath(sc)))

	return nil
}

func handleListDirectory(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		pageSize, err := common.OptionalInt(args, "pageSize", 0)
		if err != nil {
			return common.ErrorResult(err)
		}

		result, err := sc.Adapter().ListDirectory(ctx, drivefs.ListOptions{
			FolderID:        stringArg(args, "folderId"),
			FolderPath:      stringArg(args, "folderPath"),
			Query:           stringArg(args, "query"),
			IncludeShared:   boolArg(args, "includeShared", true),
			OnlyDirectories: boolArg(args, "onlyDirectories", false),
			PageSize:        pageSize,
			PageToken:       stringArg(args, "pageToken"),
		})
		if err != nil {
			return common.ErrorResult(err)
		}
		return common.JSONResult(result)
	}
}

func handleSearchFiles(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		maxResults, err := common.OptionalInt(args, "maxResults", 0)
		if err != nil {
			return common.ErrorResult(err)
		}
		folder, err := folderID(ctx, sc, args, "folderId", "folderPath")
		if err != nil {
			return common.ErrorResult(err)
		}

		result, err := sc.Adapter().SearchFiles(ctx, drivefs.SearchOptions{
			Query:       stringArg(args, "query"),
			FolderID:    folder,
			MimeType:    stringArg(args, "mimeType"),
			NamePattern: stringArg(args, "namePattern"),
			MaxResults:  maxResults,
		})
		if err != nil {
			return common.ErrorResult(err)
		}
		return common.JSONResult(result)
	}
}

func handleReadFile(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		id, err := objectID(ctx, sc, args, "fileId", "path")
		if err != nil {
			return common.ErrorResult(err)
		}

		opts := drivefs.ReadOptions{FileID: id}
		maxSize, err := common.OptionalInt64(args, "maxSize")
		if err != nil {
			return common.ErrorResult(err)
		}
		if maxSize != nil {
			opts.MaxSize = int(*maxSize)
		}
		if opts.StartOffset, err = common.OptionalInt64(args, "startOffset"); err != nil {
			return common.ErrorResult(err)
		}
		if opts.EndOffset, err = common.OptionalInt64(args, "endOffset"); err != nil {
			return common.ErrorResult(err)
		}

		result, err := sc.Adapter().ReadFile(ctx, opts)
		if err != nil {
			return common.ErrorResult(err)
		}
		return common.JSONResult(result)
	}
}

// ResolveResult is the output of drive_resolve_path.
type ResolveResult struct {
	ID   string                 `json:"id"`
	Path string                 `json:"path"`
	File *drivefs.CanonicalFile `json:"file"`
}

func handleResolvePath(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		path, fileID := stringArg(args, "path"), stringArg(args, "fileId")

		var (
			file *drivefs.CanonicalFile
			err  error
		)
		switch {
		case path != "":
			file, err = sc.Adapter().StatPath(ctx, path)
		case fileID != "":
			file, err = sc.Adapter().Stat(ctx, fileID)
		default:
			err = fmt.Errorf("path or fileId is required")
		}
		if err != nil {
			return common.ErrorResult(err)
		}
		return common.JSONResult(ResolveResult{ID: file.ID, Path: file.Path, File: file})
	}
}
