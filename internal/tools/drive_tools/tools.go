package drive_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivepath/internal/server"
)

// RegisterDriveTools registers all Google Drive tools with the MCP server.
// Write tools are only registered when sc allows writes.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerReadTools(s, sc); err != nil {
		return fmt.Errorf("failed to register read tools: %w", err)
	}

	if err := registerTreeTools(s, sc); err != nil {
		return fmt.Errorf("failed to register tree tools: %w", err)
	}

	if !sc.Yolo() {
		return nil
	}

	if err := registerWriteTools(s, sc); err != nil {
		return fmt.Errorf("failed to register write tools: %w", err)
	}

	if err := registerBulkTools(s, sc); err != nil {
		return fmt.Errorf("failed to register bulk tools: %w", err)
	}

	return nil
}

// stringArg returns a string argument, or "" when missing.
func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

// boolArg returns a boolean argument, or def when missing.
func boolArg(args map[string]any, name string, def bool) bool {
	if b, ok := args[name].(bool); ok {
		return b
	}
	return def
}

// folderID picks the folder named by idKey, or resolves pathKey.
// Neither yields "", which callers treat as the root.
func folderID(ctx context.Context, sc *server.ServerContext, args map[string]any, idKey, pathKey string) (string, error) {
	if id := stringArg(args, idKey); id != "" {
		return id, nil
	}
	if p := stringArg(args, pathKey); p != "" {
		return sc.Adapter().ResolvePath(ctx, p)
	}
	return "", nil
}

// requiredFolderID is folderID for arguments that must be present.
func requiredFolderID(ctx context.Context, sc *server.ServerContext, args map[string]any, idKey, pathKey string) (string, error) {
	id, err := folderID(ctx, sc, args, idKey, pathKey)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%s or %s is required", idKey, pathKey)
	}
	return id, nil
}

// objectID picks the object named by idKey, or resolves pathKey.
func objectID(ctx context.Context, sc *server.ServerContext, args map[string]any, idKey, pathKey string) (string, error) {
	if id := stringArg(args, idKey); id != "" {
		return id, nil
	}
	if p := stringArg(args, pathKey); p != "" {
		return sc.Adapter().ResolvePath(ctx, p)
	}
	return "", fmt.Errorf("%s or %s is required", idKey, pathKey)
}

func idOption(name, what string) mcp.ToolOption {
	return mcp.WithString(name, mcp.Description("ID of the "+what+" (takes precedence over the path)"))
}

func pathOption(name, what string) mcp.ToolOption {
	return mcp.WithString(name, mcp.Description("Absolute path of the "+what+", e.g. '/Projects/2024'"))
}
