package main

import (
	"fmt"

	"github.com/dbxkit/dropbox"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLsCmd())
}

func newLsCmd() *cobra.Command {
	var recursive bool
	var long bool

	cmd := &cobra.Command{
		Use:   "ls [PATH]",
		Short: "List a Dropbox folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}

			c, err := newClient()
			if err != nil {
				return err
			}

			res, err := c.Files.ListFolder(cmd.Context(), &dropbox.ListFolderArg{
				Path:      dropbox.NormalizePath(path),
				Recursive: recursive,
			})
			for {
				if err != nil {
					return err
				}
				for _, e := range res.Entries {
					printEntry(e, long)
				}
				if !res.HasMore {
					return nil
				}
				res, err = c.Files.ListFolderContinue(cmd.Context(), res.Cursor)
			}
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subfolders")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show size, revision and modification time")

	return cmd
}

func printEntry(e *dropbox.Metadata, long bool) {
	name := e.PathDisplay
	if name == "" {
		name = e.Name
	}
	if e.IsFolder() {
		name = cyan(name + "/")
	} else if e.IsDeleted() {
		name = gray(name)
	}

	if !long {
		fmt.Println(name)
		return
	}

	size := "-"
	mod := "-"
	if e.IsFile() {
		size = humanize.IBytes(e.Size)
		mod = e.ServerModified.Format("2006-01-02 15:04")
	}
	fmt.Printf("%10s  %16s  %-12s %s\n", size, mod, e.Rev, name)
}
