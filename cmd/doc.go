// Package cmd implements the command-line interface for drivepath.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide Drive tools for AI assistants
//   - ls: List a folder by path
//   - tree: Print the folder hierarchy below a path
//   - resolve: Translate between paths and file IDs
//   - mkdir: Create folders by path, reusing existing ones
//   - mv: Move or rename files and folders by path
//   - read: Print the content of a file
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Configuration is read from flags, DRIVEPATH_* and GOOGLE_* environment
// variables and an optional YAML file; see internal/config.
package cmd
