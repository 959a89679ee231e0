package drive_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivepath/internal/server"
	"github.com/teemow/drivepath/internal/tools/batch"
	"github.com/teemow/drivepath/internal/tools/common"
)

// registerBulkTools registers the multi-item tools. Each item succeeds or
// fails on its own; the result lists every item and summarizes the run.
func registerBulkTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createFoldersTool := mcp.NewTool("drive_create_folders",
		mcp.WithDescription("Create folders by absolute path, like 'mkdir -p'. Existing folders along each path are reused."),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Absolute folder paths, e.g. ['/Projects/2024/Q1', '/Archive']"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(createFoldersTool, common.InstrumentedToolHandler("drive_create_folders", common.OperationBulk, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			paths, err := batch.ParseStringOrArray(request.GetArguments()["paths"], "paths")
			if err != nil {
				return common.ErrorResult(err)
			}
			result, err := sc.Executor().CreateFolders(ctx, paths)
			if err != nil {
				return common.ErrorResult(err)
			}
			return common.JSONResult(result)
		}))

	moveFilesTool := mcp.NewTool("drive_move_files",
		mcp.WithDescription("Move and rename files and folders by path. Each move is a {from, to} pair of absolute paths; a different directory moves, a different name renames."),
		mcp.WithArray("moves",
			mcp.Required(),
			mcp.Description("List of {from, to} path pairs"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from": map[string]any{"type": "string", "description": "Current absolute path"},
					"to":   map[string]any{"type": "string", "description": "New absolute path"},
				},
				"required": []string{"from", "to"},
			}),
		),
	)
	s.AddTool(moveFilesTool, common.InstrumentedToolHandler("drive_move_files", common.OperationBulk, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			pairs, err := batch.ParseMovePairs(request.GetArguments()["moves"], "moves")
			if err != nil {
				return common.ErrorResult(err)
			}
			result, err := sc.Executor().MoveFiles(ctx, pairs)
			if err != nil {
				return common.ErrorResult(err)
			}
			return common.JSONResult(result)
		}))

	bulkOperationsTool := mcp.NewTool("drive_bulk_operations",
		mcp.WithDescription("Run an ordered list of typed operations by ID. A failed operation is reported and the rest still run."),
		mcp.WithArray("operations",
			mcp.Required(),
			mcp.Description("Operations to run in order"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type": map[string]any{
						"type": "string",
						"enum": []string{"move_file", "move_folder", "create_folder", "rename_file", "rename_folder"},
					},
					"sourceId":            map[string]any{"type": "string", "description": "Object to move or rename"},
					"destinationParentId": map[string]any{"type": "string", "description": "Target folder for moves and creates"},
					"newName":             map[string]any{"type": "string", "description": "Name for renames and creates"},
				},
				"required": []string{"type"},
			}),
		),
	)
	s.AddTool(bulkOperationsTool, common.InstrumentedToolHandler("drive_bulk_operations", common.OperationBulk, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ops, err := batch.ParseOperations(request.GetArguments()["operations"], "operations")
			if err != nil {
				return common.ErrorResult(err)
			}
			result, err := sc.Executor().Execute(ctx, ops)
			if err != nil {
				return common.ErrorResult(err)
			}
			return common.JSONResult(result)
		}))

	return nil
}
