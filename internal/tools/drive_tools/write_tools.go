package drive_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivepath/internal/drivefs"
	"github.com/teemow/drivepath/internal/server"
	"github.com/teemow/drivepath/internal/tools/common"
)

// registerWriteTools registers the single-object move, rename and create tools
func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	adapter := sc.Adapter()

	moveFileTool := mcp.NewTool("drive_move_file",
		mcp.WithDescription("Move a file into another folder. Moving into the current folder is a no-op."),
		mcp.WithIdempotentHintAnnotation(true),
		idOption("fileId", "file to move"),
		pathOption("path", "file to move"),
		idOption("newParentId", "destination folder"),
		pathOption("newParentPath", "destination folder"),
	)
	s.AddTool(moveFileTool, common.InstrumentedToolHandler("drive_move_file", common.OperationMove, sc,
		handleMove(sc, "fileId", adapter.MoveFile)))

	moveFolderTool := mcp.NewTool("drive_move_folder",
		mcp.WithDescription("Move a folder, with everything in it, into another folder."),
		mcp.WithIdempotentHintAnnotation(true),
		idOption("folderId", "folder to move"),
		pathOption("path", "folder to move"),
		idOption("newParentId", "destination folder"),
		pathOption("newParentPath", "destination folder"),
	)
	s.AddTool(moveFolderTool, common.InstrumentedToolHandler("drive_move_folder", common.OperationMove, sc,
		handleMove(sc, "folderId", adapter.MoveFolder)))

	renameFileTool := mcp.NewTool("drive_rename_file",
		mcp.WithDescription("Rename a file in place."),
		mcp.WithIdempotentHintAnnotation(true),
		idOption("fileId", "file to rename"),
		pathOption("path", "file to rename"),
		mcp.WithString("newName", mcp.Required(), mcp.Description("The new name")),
	)
	s.AddTool(renameFileTool, common.InstrumentedToolHandler("drive_rename_file", common.OperationRename, sc,
		handleRename(sc, "fileId", adapter.RenameFile)))

	renameFolderTool := mcp.NewTool("drive_rename_folder",
		mcp.WithDescription("Rename a folder in place. Paths below it change accordingly."),
		mcp.WithIdempotentHintAnnotation(true),
		idOption("folderId", "folder to rename"),
		pathOption("path", "folder to rename"),
		mcp.WithString("newName", mcp.Required(), mcp.Description("The new name")),
	)
	s.AddTool(renameFolderTool, common.InstrumentedToolHandler("drive_rename_folder", common.OperationRename, sc,
		handleRename(sc, "folderId", adapter.RenameFolder)))

	createFolderTool := mcp.NewTool("drive_create_folder",
		mcp.WithDescription("Create a folder. Drive allows duplicate names; use drive_create_folders to reuse existing folders."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the new folder")),
		idOption("parentId", "parent folder"),
		pathOption("parentPath", "parent folder (default: '/')"),
	)
	s.AddTool(createFolderTool, common.InstrumentedToolHandler("drive_create_folder", common.OperationCreate, sc,
		handleCreateFolder(sc)))

	return nil
}

type changeFunc func(ctx context.Context, id, arg string) (*drivefs.ChangeResult, error)

func handleMove(sc *server.ServerContext, idKey string, move changeFunc) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		id, err := objectID(ctx, sc, args, idKey, "path")
		if err != nil {
			return common.ErrorResult(err)
		}
		parent, err := requiredFolderID(ctx, sc, args, "newParentId", "newParentPath")
		if err != nil {
			return common.ErrorResult(err)
		}

		result, err := move(ctx, id, parent)
		if err != nil {
			return common.ErrorResult(err)
		}
		return common.JSONResult(result)
	}
}

func handleRename(sc *server.ServerContext, idKey string, rename changeFunc) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		id, err := objectID(ctx, sc, args, idKey, "path")
		if err != nil {
			return common.ErrorResult(err)
		}

		result, err := rename(ctx, id, stringArg(args, "newName"))
		if err != nil {
			return common.ErrorResult(err)
		}
		return common.JSONResult(result)
	}
}

func handleCreateFolder(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		parent, err := folderID(ctx, sc, args, "parentId", "parentPath")
		if err != nil {
			return common.ErrorResult(err)
		}

		folder, err := sc.Adapter().CreateFolder(ctx, stringArg(args, "name"), parent)
		if err != nil {
			return common.ErrorResult(err)
		}
		return common.JSONResult(folder)
	}
}
