// Package drive_tools provides the MCP tools that expose Google Drive as a
// path-addressed filesystem.
//
// Read tools are always registered:
//   - drive_list_directory: list one page of a folder's children
//   - drive_search_files: name and full-text search with an optional regex filter
//   - drive_read_file: read or export file content, optionally a byte range
//   - drive_resolve_path: translate between a path and a file ID
//   - drive_directory_tree: folder hierarchy below a path
//   - drive_file_tree: folders and files below a path
//
// Write tools are registered only when writes are enabled (--yolo):
//   - drive_move_file, drive_move_folder
//   - drive_rename_file, drive_rename_folder
//   - drive_create_folder, drive_create_folders
//   - drive_move_files: move and rename by {from, to} path pairs
//   - drive_bulk_operations: run typed operations with per-item failure isolation
//
// Folder arguments accept either an ID or an absolute path; the ID wins.
//
// Example tool usage:
//
//	drive_list_directory({
//	  folderPath: "/Projects/2024",
//	  onlyDirectories: true
//	})
//
//	drive_move_files({
//	  moves: [{from: "/Inbox/report.pdf", to: "/Archive/2024-report.pdf"}]
//	})
package drive_tools
