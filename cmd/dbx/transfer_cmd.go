package main

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dbxkit/dropbox"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newDownloadCmd())
}

func newUploadCmd() *cobra.Command {
	var destDir string
	var overwrite bool
	var autoRename bool
	var parallel int
	var chunkSize string
	var chunkRetries int

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload local files to Dropbox",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseChunkSize(chunkSize)
			if err != nil {
				return err
			}
			c, err := newTunedClient(size, chunkRetries)
			if err != nil {
				return err
			}

			mode := dropbox.WriteModeAdd
			if overwrite {
				mode = dropbox.WriteModeOverwrite
			}

			var uploaded atomic.Int64
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(parallel)
			for _, local := range args {
				local := local
				g.Go(func() error {
					src, err := dropbox.OpenFileSource(local)
					if err != nil {
						return err
					}
					defer src.Close()

					dest := path.Join(destDir, filepath.Base(local))
					md, err := c.Files.Upload(ctx, dest, src, &dropbox.UploadOptions{
						Mode:       mode,
						AutoRename: autoRename,
					})
					if err != nil {
						return fmt.Errorf("upload %s: %w", local, err)
					}
					uploaded.Add(1)
					fmt.Printf("%s %s (%s, rev %s)\n", green("uploaded"), md.PathDisplay, humanize.IBytes(md.Size), md.Rev)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			fmt.Printf("%d file(s) uploaded\n", uploaded.Load())
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&destDir, "dest", "d", "/", "destination folder in Dropbox")
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "f", false, "overwrite existing files")
	cmd.Flags().BoolVar(&autoRename, "autorename", false, "rename on conflict instead of failing")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "concurrent uploads")
	cmd.Flags().StringVar(&chunkSize, "chunk-size", "", "upload session chunk size, e.g. 8MiB")
	cmd.Flags().IntVar(&chunkRetries, "chunk-retries", 0, "retries per failed chunk on seekable sources")

	return cmd
}

func newDownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "download PATH [PATH...]",
		Aliases: []string{"get"},
		Short:   "Download files from Dropbox",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return fmt.Errorf("--output is only valid with a single PATH")
			}

			c, err := newClient()
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(4)
			for _, remote := range args {
				remote := remote
				g.Go(func() error {
					dest := output
					if dest == "" {
						dest = filepath.Base(dropbox.NormalizePath(remote))
					}
					md, err := c.Files.DownloadToFile(ctx, remote, dest, nil)
					if err != nil {
						return fmt.Errorf("download %s: %w", remote, err)
					}
					fmt.Printf("%s %s -> %s (%s)\n", green("downloaded"), md.PathDisplay, dest, humanize.IBytes(md.Size))
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&output, "output", "o", "", "local destination path")

	return cmd
}

func parseChunkSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid chunk size %q: %w", s, err)
	}
	return int64(n), nil
}
