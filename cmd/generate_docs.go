package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/drivepath/internal/drive/drivetest"
	"github.com/teemow/drivepath/internal/server"
	"github.com/teemow/drivepath/internal/tools/drive_tools"
)

// Tool categories in the order they appear in the generated reference.
const (
	categoryRead  = "Read Tools"
	categoryTree  = "Tree Tools"
	categoryWrite = "Write Tools"
	categoryBulk  = "Bulk Tools"
)

var categoryOrder = []string{categoryRead, categoryTree, categoryWrite, categoryBulk}

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, so the reference always matches the tool definitions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outputFile == "" {
				return runGenerateDocs(cmd.OutOrStdout())
			}

			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := runGenerateDocs(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			cmd.PrintErrf("Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// runGenerateDocs registers every tool, including write tools, against an
// empty in-memory store and writes their reference to w.
func runGenerateDocs(w io.Writer) error {
	serverContext, err := server.NewServerContext(context.Background(), server.Config{
		Store: drivetest.New(),
		Yolo:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("drivepath", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := drive_tools.RegisterDriveTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register Drive tools: %w", err)
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	_, err = io.WriteString(w, generateToolsMarkdown(tools))
	return err
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document lists every tool available when running drivepath as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := groupToolsByCategory(tools)

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categoryOrder {
		if _, ok := toolsByCategory[category]; !ok {
			continue
		}
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, anchor)
	}
	sb.WriteString("\n")

	sb.WriteString("## Addressing\n\n")
	sb.WriteString("Files and folders can be addressed by absolute path (`/Projects/2024/report.pdf`) or by Drive file ID. ")
	sb.WriteString("When both are given the ID wins. Write and bulk tools are only available when the server runs with `--yolo`.\n\n")

	for _, category := range categoryOrder {
		categoryTools, ok := toolsByCategory[category]
		if !ok {
			continue
		}
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := getCategoryFromTool(tool)
		categories[category] = append(categories[category], tool)
	}
	return categories
}

func getCategoryFromTool(tool mcp.Tool) string {
	switch {
	case strings.HasSuffix(tool.Name, "_tree"):
		return categoryTree
	case tool.Name == "drive_create_folders" || tool.Name == "drive_move_files" || tool.Name == "drive_bulk_operations":
		return categoryBulk
	case tool.Annotations.ReadOnlyHint != nil && *tool.Annotations.ReadOnlyHint:
		return categoryRead
	default:
		return categoryWrite
	}
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]any)
			if !ok {
				continue
			}

			requiredStr := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			fmt.Fprintf(&sb, "- `%s` (%s, %s): ", name, getPropertyType(propMap), requiredStr)
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				fmt.Fprintf(&sb, "%s parameter", getPropertyType(propMap))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
