package cmd

import (
	"fmt"
	"io"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/teemow/drivepath/internal/bulk"
	"github.com/teemow/drivepath/internal/drivefs"
	"github.com/teemow/drivepath/internal/resolver"
)

func newLsCmd() *cobra.Command {
	var (
		jsonOut  bool
		dirsOnly bool
		ownOnly  bool
		query    string
	)

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List the contents of a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, _, _, err := openAdapter(cmd)
			if err != nil {
				return err
			}

			opts := drivefs.ListOptions{
				FolderPath:      "/",
				Query:           query,
				IncludeShared:   !ownOnly,
				OnlyDirectories: dirsOnly,
			}
			if len(args) == 1 {
				opts.FolderPath = args[0]
			}

			var files []drivefs.CanonicalFile
			for {
				page, err := adapter.ListDirectory(cmd.Context(), opts)
				if err != nil {
					return err
				}
				files = append(files, page.Files...)
				if page.NextPageToken == "" {
					break
				}
				opts.PageToken = page.NextPageToken
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), files)
			}
			return printListing(cmd.OutOrStdout(), files)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVarP(&dirsOnly, "directories", "d", false, "List folders only")
	cmd.Flags().BoolVar(&ownOnly, "own", false, "Hide items owned by others")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Additional Drive query filter")

	return cmd
}

func printListing(w io.Writer, files []drivefs.CanonicalFile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range files {
		size := "-"
		if f.Size != nil {
			size = humanize.IBytes(uint64(*f.Size))
		}
		name := f.Name
		if f.IsFolder {
			name += "/"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", size, humanize.Time(f.ModifiedTime), f.SharingStatus, name)
	}
	return tw.Flush()
}

func newTreeCmd() *cobra.Command {
	var (
		jsonOut  bool
		files    bool
		maxDepth int
	)

	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print the folder hierarchy below a path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, _, logger, err := openAdapter(cmd)
			if err != nil {
				return err
			}

			opts := drivefs.TreeOptions{RootPath: "/", MaxDepth: maxDepth}
			if len(args) == 1 {
				opts.RootPath = args[0]
			}

			build := adapter.BuildDirectoryTree
			if files {
				build = adapter.BuildFileTree
			}
			tree, err := build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for _, step := range tree.Report.Failed() {
				logger.Warn("folder could not be listed", "path", step.Path, "error", step.Err)
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), tree)
			}
			printTree(cmd.OutOrStdout(), tree.Root, "")
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d folders, %d files\n", tree.Folders, tree.Files)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a tree")
	cmd.Flags().BoolVarP(&files, "files", "f", false, "Include files, not only folders")
	cmd.Flags().IntVarP(&maxDepth, "max-depth", "L", 0, "Maximum depth (0 uses the default)")

	return cmd
}

func printTree(w io.Writer, node *drivefs.TreeNode, indent string) {
	if indent == "" {
		fmt.Fprintln(w, node.Path)
	}
	for i, child := range node.Children {
		branch, next := "├── ", "│   "
		if i == len(node.Children)-1 {
			branch, next = "└── ", "    "
		}
		name := child.Name
		if child.IsFolder {
			name += "/"
		}
		fmt.Fprintf(w, "%s%s%s\n", indent, branch, name)
		printTree(w, child, indent+next)
	}
}

func newResolveCmd() *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "resolve <path|id>",
		Short: "Translate a path to a file ID or an ID to its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, _, _, err := openAdapter(cmd)
			if err != nil {
				return err
			}

			if byID || !strings.HasPrefix(args[0], "/") {
				p, err := adapter.ResolveID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), p)
				return nil
			}

			id, err := adapter.ResolvePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&byID, "id", false, "Treat the argument as a file ID")

	return cmd
}

func newMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <path>...",
		Short: "Create folders, including missing parents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, cfg, logger, err := openAdapter(cmd)
			if err != nil {
				return err
			}
			if err := requireYolo(cfg, "mkdir"); err != nil {
				return err
			}

			result, err := bulk.New(adapter, bulk.WithLogger(logger)).CreateFolders(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), result)
		},
	}
	return cmd
}

func newMvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <from> <to>",
		Short: "Move or rename a file or folder",
		Long: `Move or rename a file or folder by path.

A destination ending in "/" names the target folder and keeps the name.
Otherwise the last segment of the destination is the new name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, cfg, logger, err := openAdapter(cmd)
			if err != nil {
				return err
			}
			if err := requireYolo(cfg, "mv"); err != nil {
				return err
			}

			from, to := args[0], args[1]
			if strings.HasSuffix(to, "/") {
				_, name := resolver.Split(resolver.NormalizePath(from))
				to = path.Join(to, name)
			}

			pairs := []bulk.MovePair{{From: from, To: to}}
			result, err := bulk.New(adapter, bulk.WithLogger(logger)).MoveFiles(cmd.Context(), pairs)
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), result)
		},
	}
	return cmd
}

// printBatch prints one line per item and fails when any item failed.
func printBatch(w io.Writer, result *bulk.Result) error {
	for _, item := range result.Items {
		line := fmt.Sprintf("%-9s %s", item.Status, item.Target)
		if item.Path != "" && item.Path != item.Target {
			line += " -> " + item.Path
		}
		if item.Message != "" {
			line += " (" + item.Message + ")"
		}
		fmt.Fprintln(w, line)
	}
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}
	return nil
}

func newReadCmd() *cobra.Command {
	var (
		maxSize int
		start   int64
		end     int64
	)

	cmd := &cobra.Command{
		Use:   "read <path|id>",
		Short: "Print the content of a file",
		Long: `Print the content of a file. Google Workspace documents are exported
to a text format. Binary content is printed base64 encoded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, _, logger, err := openAdapter(cmd)
			if err != nil {
				return err
			}

			id := args[0]
			if strings.HasPrefix(id, "/") {
				id, err = adapter.ResolvePath(cmd.Context(), id)
				if err != nil {
					return err
				}
			}

			opts := drivefs.ReadOptions{FileID: id, MaxSize: maxSize}
			if cmd.Flags().Changed("start") {
				opts.StartOffset = &start
			}
			if cmd.Flags().Changed("end") {
				opts.EndOffset = &end
			}

			result, err := adapter.ReadFile(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if result.Truncated {
				logger.Warn("content truncated",
					"returned", humanize.IBytes(uint64(result.ReturnedSize)),
					"size", humanize.IBytes(uint64(result.FullSize)))
			}
			_, err = io.WriteString(cmd.OutOrStdout(), result.Content)
			return err
		},
	}

	cmd.Flags().IntVar(&maxSize, "max-size", 0, "Maximum bytes to return (0 uses the default)")
	cmd.Flags().Int64Var(&start, "start", 0, "First byte to return")
	cmd.Flags().Int64Var(&end, "end", 0, "Byte offset to stop at (exclusive)")

	return cmd
}
