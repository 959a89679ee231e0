package drive_tools

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/drive/drivetest"
	"github.com/teemow/drivepath/internal/server"
)

type harness struct {
	store *drivetest.Store
	mcp   *mcpserver.MCPServer
	docs  *drive.RemoteObject
	notes *drive.RemoteObject
}

// newHarness builds:
//
//	/Documents/notes.txt
//	/Documents/Reports/
//	/Archive/
func newHarness(t *testing.T, yolo bool) *harness {
	t.Helper()

	store := drivetest.New()
	docs := store.AddFolder("Documents", drive.RootID)
	notes := store.AddFile("notes.txt", docs.ID, "text/plain", []byte("hello drive"))
	store.AddFolder("Reports", docs.ID)
	store.AddFolder("Archive", drive.RootID)

	sc, err := server.NewServerContext(context.Background(), server.Config{Store: store, Yolo: yolo})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("drivepath-test", "test", mcpserver.WithToolCapabilities(false))
	require.NoError(t, RegisterDriveTools(s, sc))

	return &harness{store: store, mcp: s, docs: docs, notes: notes}
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (h *harness) rpc(t *testing.T, method string, params any) json.RawMessage {
	t.Helper()

	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	raw, err := json.Marshal(h.mcp.HandleMessage(context.Background(), msg))
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Nil(t, resp.Error, "unexpected JSON-RPC error")
	return resp.Result
}

type toolResult struct {
	Text    string
	IsError bool
}

func (h *harness) call(t *testing.T, name string, args map[string]any) toolResult {
	t.Helper()

	raw := h.rpc(t, "tools/call", map[string]any{"name": name, "arguments": args})
	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))

	var texts []string
	for _, c := range result.Content {
		texts = append(texts, c.Text)
	}
	return toolResult{Text: strings.Join(texts, "\n"), IsError: result.IsError}
}

// callJSON calls a tool that must succeed and decodes its JSON output.
func (h *harness) callJSON(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	res := h.call(t, name, args)
	require.False(t, res.IsError, "tool error: %s", res.Text)
	require.NoError(t, json.Unmarshal([]byte(res.Text), out))
}

func (h *harness) toolNames(t *testing.T) []string {
	t.Helper()
	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(h.rpc(t, "tools/list", map[string]any{}), &list))

	names := make([]string, 0, len(list.Tools))
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}

func TestRegisterDriveTools(t *testing.T) {
	readTools := []string{
		"drive_directory_tree",
		"drive_file_tree",
		"drive_list_directory",
		"drive_read_file",
		"drive_resolve_path",
		"drive_search_files",
	}

	t.Run("read-only", func(t *testing.T) {
		h := newHarness(t, false)
		assert.Equal(t, readTools, h.toolNames(t))
	})

	t.Run("yolo", func(t *testing.T) {
		h := newHarness(t, true)
		want := append([]string{
			"drive_bulk_operations",
			"drive_create_folder",
			"drive_create_folders",
			"drive_move_file",
			"drive_move_files",
			"drive_move_folder",
			"drive_rename_file",
			"drive_rename_folder",
		}, readTools...)
		sort.Strings(want)
		assert.Equal(t, want, h.toolNames(t))
	})
}

type listOutput struct {
	FolderID   string `json:"folderId"`
	FolderPath string `json:"folderPath"`
	Files      []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Path     string `json:"path"`
		IsFolder bool   `json:"isFolder"`
	} `json:"files"`
}

func (l listOutput) paths() []string {
	var paths []string
	for _, f := range l.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

func TestListDirectory(t *testing.T) {
	h := newHarness(t, false)

	tests := []struct {
		name      string
		args      map[string]any
		wantPaths []string
		wantErr   string
	}{
		{
			name:      "by path",
			args:      map[string]any{"folderPath": "/Documents"},
			wantPaths: []string{"/Documents/Reports", "/Documents/notes.txt"},
		},
		{
			name:      "by id",
			args:      map[string]any{"folderId": h.docs.ID},
			wantPaths: []string{"/Documents/Reports", "/Documents/notes.txt"},
		},
		{
			name:      "root by default, folders only",
			args:      map[string]any{"onlyDirectories": true},
			wantPaths: []string{"/Archive", "/Documents"},
		},
		{
			name:      "raw query",
			args:      map[string]any{"folderPath": "/Documents", "query": "name contains 'notes'"},
			wantPaths: []string{"/Documents/notes.txt"},
		},
		{
			name:    "missing folder",
			args:    map[string]any{"folderPath": "/Missing"},
			wantErr: "path not found: /Missing",
		},
		{
			name:    "bad page size",
			args:    map[string]any{"pageSize": 1.5},
			wantErr: "pageSize must be an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr != "" {
				res := h.call(t, "drive_list_directory", tt.args)
				assert.True(t, res.IsError)
				assert.Contains(t, res.Text, tt.wantErr)
				return
			}
			var out listOutput
			h.callJSON(t, "drive_list_directory", tt.args, &out)
			assert.Equal(t, tt.wantPaths, out.paths())
		})
	}
}

func TestSearchFiles(t *testing.T) {
	h := newHarness(t, false)
	h.store.AddFile("notes-2024.md", h.docs.ID, "text/markdown", []byte("# notes"))

	var out struct {
		Files []struct {
			Name string `json:"name"`
		} `json:"files"`
		PatternFilter struct {
			Status string `json:"status"`
			Reason string `json:"reason"`
		} `json:"patternFilter"`
	}
	h.callJSON(t, "drive_search_files", map[string]any{
		"query":       "notes",
		"folderPath":  "/Documents",
		"namePattern": `\.md$`,
	}, &out)
	require.Len(t, out.Files, 1)
	assert.Equal(t, "notes-2024.md", out.Files[0].Name)
	assert.Equal(t, "applied", out.PatternFilter.Status)

	h.callJSON(t, "drive_search_files", map[string]any{"query": "notes", "namePattern": "("}, &out)
	assert.Len(t, out.Files, 2)
	assert.Equal(t, "skipped", out.PatternFilter.Status)
	assert.Contains(t, out.PatternFilter.Reason, "invalid pattern")

	res := h.call(t, "drive_search_files", map[string]any{})
	assert.True(t, res.IsError)
	assert.Equal(t, "query is required", res.Text)
}

func TestReadFile(t *testing.T) {
	h := newHarness(t, false)

	type readOutput struct {
		Path      string `json:"path"`
		Content   string `json:"content"`
		Encoding  string `json:"encoding"`
		Truncated bool   `json:"truncated"`
	}

	var out readOutput
	h.callJSON(t, "drive_read_file", map[string]any{"path": "/Documents/notes.txt"}, &out)
	assert.Equal(t, "/Documents/notes.txt", out.Path)
	assert.Equal(t, "hello drive", out.Content)
	assert.Equal(t, "utf-8", out.Encoding)
	assert.False(t, out.Truncated)

	out = readOutput{}
	h.callJSON(t, "drive_read_file", map[string]any{
		"fileId":      h.notes.ID,
		"startOffset": 6,
		"endOffset":   11,
	}, &out)
	assert.Equal(t, "drive", out.Content)

	out = readOutput{}
	h.callJSON(t, "drive_read_file", map[string]any{"fileId": h.notes.ID, "maxSize": 5}, &out)
	assert.Equal(t, "hello", out.Content)
	assert.True(t, out.Truncated)

	res := h.call(t, "drive_read_file", map[string]any{"path": "/Documents"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "is a folder")

	res = h.call(t, "drive_read_file", map[string]any{})
	assert.True(t, res.IsError)
	assert.Equal(t, "fileId or path is required", res.Text)
}

func TestResolvePath(t *testing.T) {
	h := newHarness(t, false)

	var out ResolveResult
	h.callJSON(t, "drive_resolve_path", map[string]any{"path": "/Documents/notes.txt/"}, &out)
	assert.Equal(t, h.notes.ID, out.ID)
	assert.Equal(t, "/Documents/notes.txt", out.Path)
	assert.Equal(t, "notes.txt", out.File.Name)

	out = ResolveResult{}
	h.callJSON(t, "drive_resolve_path", map[string]any{"fileId": h.docs.ID}, &out)
	assert.Equal(t, "/Documents", out.Path)
	assert.True(t, out.File.IsFolder)

	res := h.call(t, "drive_resolve_path", map[string]any{"path": "/Documents/Nope"})
	assert.True(t, res.IsError)
	assert.Equal(t, "path not found: /Documents/Nope", res.Text)

	res = h.call(t, "drive_resolve_path", map[string]any{})
	assert.True(t, res.IsError)
	assert.Equal(t, "path or fileId is required", res.Text)
}

func TestTreeTools(t *testing.T) {
	h := newHarness(t, false)

	var tree struct {
		Root struct {
			Path     string `json:"path"`
			Children []struct {
				Path string `json:"path"`
			} `json:"children"`
		} `json:"root"`
		Folders int `json:"folders"`
		Files   int `json:"files"`
	}
	h.callJSON(t, "drive_file_tree", map[string]any{"rootPath": "/Documents"}, &tree)
	assert.Equal(t, "/Documents", tree.Root.Path)
	assert.Len(t, tree.Root.Children, 2)
	assert.Equal(t, 1, tree.Files)

	h.callJSON(t, "drive_directory_tree", map[string]any{"maxDepth": 1}, &tree)
	assert.Equal(t, "/", tree.Root.Path)
	assert.Equal(t, 0, tree.Files)

	res := h.call(t, "drive_directory_tree", map[string]any{"rootPath": "/Documents/notes.txt"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "is not a folder")
}

func TestMoveAndRename(t *testing.T) {
	h := newHarness(t, true)

	var change struct {
		File struct {
			Path string `json:"path"`
		} `json:"file"`
		Changed bool `json:"changed"`
	}
	h.callJSON(t, "drive_move_file", map[string]any{
		"path":          "/Documents/notes.txt",
		"newParentPath": "/Archive",
	}, &change)
	assert.True(t, change.Changed)
	assert.Equal(t, "/Archive/notes.txt", change.File.Path)

	h.callJSON(t, "drive_move_file", map[string]any{
		"fileId":        h.notes.ID,
		"newParentPath": "/Archive",
	}, &change)
	assert.False(t, change.Changed)

	h.callJSON(t, "drive_rename_folder", map[string]any{"path": "/Archive", "newName": "Old"}, &change)
	assert.Equal(t, "/Old", change.File.Path)

	var out ResolveResult
	h.callJSON(t, "drive_resolve_path", map[string]any{"fileId": h.notes.ID}, &out)
	assert.Equal(t, "/Old/notes.txt", out.Path)

	res := h.call(t, "drive_rename_file", map[string]any{"fileId": h.notes.ID})
	assert.True(t, res.IsError)
	assert.Equal(t, "newName is required", res.Text)

	res = h.call(t, "drive_move_file", map[string]any{"fileId": h.notes.ID})
	assert.True(t, res.IsError)
	assert.Equal(t, "newParentId or newParentPath is required", res.Text)

	res = h.call(t, "drive_move_folder", map[string]any{"folderId": h.notes.ID, "newParentId": drive.RootID})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "is not a folder")
}

func TestCreateFolder(t *testing.T) {
	h := newHarness(t, true)

	var folder struct {
		Name     string `json:"name"`
		Path     string `json:"path"`
		IsFolder bool   `json:"isFolder"`
	}
	h.callJSON(t, "drive_create_folder", map[string]any{"name": "Q1", "parentPath": "/Documents/Reports"}, &folder)
	assert.Equal(t, "/Documents/Reports/Q1", folder.Path)
	assert.True(t, folder.IsFolder)

	res := h.call(t, "drive_create_folder", map[string]any{"parentPath": "/Documents"})
	assert.True(t, res.IsError)
	assert.Equal(t, "name is required", res.Text)
}

type bulkOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Summary struct {
		Total     int `json:"total"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
		Skipped   int `json:"skipped"`
	} `json:"summary"`
	Failures []struct {
		Index int    `json:"index"`
		Error string `json:"error"`
	} `json:"failures"`
}

func TestCreateFolders(t *testing.T) {
	h := newHarness(t, true)

	var out bulkOutput
	h.callJSON(t, "drive_create_folders", map[string]any{
		"paths": []any{"/Projects/2024/Q1", "/Documents/Reports"},
	}, &out)
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Succeeded)
	assert.Equal(t, 1, out.Summary.Skipped)

	var resolved ResolveResult
	h.callJSON(t, "drive_resolve_path", map[string]any{"path": "/Projects/2024/Q1"}, &resolved)
	assert.True(t, resolved.File.IsFolder)

	res := h.call(t, "drive_create_folders", map[string]any{"paths": []any{}})
	assert.True(t, res.IsError)
	assert.Equal(t, "paths cannot be empty", res.Text)
}

func TestMoveFiles(t *testing.T) {
	h := newHarness(t, true)

	var out bulkOutput
	h.callJSON(t, "drive_move_files", map[string]any{
		"moves": []any{
			map[string]any{"from": "/Documents/notes.txt", "to": "/Archive/notes-old.txt"},
			map[string]any{"from": "/Documents/missing.txt", "to": "/Archive/missing.txt"},
			map[string]any{"from": "/Documents/Reports", "to": "/Nowhere/Reports"},
		},
	}, &out)

	assert.False(t, out.Success)
	assert.Equal(t, "Completed with 2 failures out of 3 operations", out.Message)
	assert.Equal(t, 1, out.Summary.Succeeded)
	require.Len(t, out.Failures, 2)
	assert.Equal(t, "source file/folder not found: /Documents/missing.txt", out.Failures[0].Error)
	assert.Equal(t, "destination folder not found: /Nowhere", out.Failures[1].Error)

	moved := h.store.Object(h.notes.ID)
	assert.Equal(t, "notes-old.txt", moved.Name)

	res := h.call(t, "drive_move_files", map[string]any{"moves": "not a list"})
	assert.True(t, res.IsError)
	assert.Equal(t, "moves must be an array of objects", res.Text)
}

func TestBulkOperations(t *testing.T) {
	h := newHarness(t, true)

	var out bulkOutput
	h.callJSON(t, "drive_bulk_operations", map[string]any{
		"operations": []any{
			map[string]any{"type": "create_folder", "destinationParentId": drive.RootID, "newName": "Inbox"},
			map[string]any{"type": "rename_file", "sourceId": h.notes.ID},
			map[string]any{"type": "rename_file", "sourceId": h.notes.ID, "newName": "todo.txt"},
		},
	}, &out)

	assert.False(t, out.Success)
	assert.Equal(t, 3, out.Summary.Total)
	assert.Equal(t, 2, out.Summary.Succeeded)
	assert.Equal(t, 1, out.Summary.Failed)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, 1, out.Failures[0].Index)
	assert.Equal(t, "newName is required for rename_file", out.Failures[0].Error)
	assert.Equal(t, "todo.txt", h.store.Object(h.notes.ID).Name)

	res := h.call(t, "drive_bulk_operations", map[string]any{})
	assert.True(t, res.IsError)
	assert.Equal(t, "operations is required", res.Text)
}
