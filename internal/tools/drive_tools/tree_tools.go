package drive_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivepath/internal/drivefs"
	"github.com/teemow/drivepath/internal/server"
	"github.com/teemow/drivepath/internal/tools/common"
)

// registerTreeTools registers the hierarchy traversal tools
func registerTreeTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	treeOptions := []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("rootPath",
			mcp.Description("Absolute path of the folder to start from (default: '/')"),
		),
		mcp.WithNumber("maxDepth",
			mcp.Description("Number of folder levels to descend (default: 3)"),
		),
	}

	directoryTreeTool := mcp.NewTool("drive_directory_tree",
		append([]mcp.ToolOption{
			mcp.WithDescription("Return the folder hierarchy below a path. Folders that cannot be listed are reported and skipped."),
		}, treeOptions...)...,
	)
	s.AddTool(directoryTreeTool, common.InstrumentedToolHandler("drive_directory_tree", common.OperationTree, sc,
		handleTree(sc.Adapter().BuildDirectoryTree)))

	fileTreeTool := mcp.NewTool("drive_file_tree",
		append([]mcp.ToolOption{
			mcp.WithDescription("Return the folders and files below a path. Folders that cannot be listed are reported and skipped."),
		}, treeOptions...)...,
	)
	s.AddTool(fileTreeTool, common.InstrumentedToolHandler("drive_file_tree", common.OperationTree, sc,
		handleTree(sc.Adapter().BuildFileTree)))

	return nil
}

func handleTree(build func(context.Context, drivefs.TreeOptions) (*drivefs.Tree, error)) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		maxDepth, err := common.OptionalInt(args, "maxDepth", 0)
		if err != nil {
			return common.ErrorResult(err)
		}

		tree, err := build(ctx, drivefs.TreeOptions{
			RootPath: stringArg(args, "rootPath"),
			MaxDepth: maxDepth,
		})
		if err != nil {
			return common.ErrorResult(err)
		}
		return common.JSONResult(tree)
	}
}
