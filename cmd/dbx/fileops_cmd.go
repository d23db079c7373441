package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newMkdirCmd())
	rootCmd.AddCommand(newMvCmd())
	rootCmd.AddCommand(newCpCmd())
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm PATH",
		Short: "Delete a file or folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			md, err := c.Files.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", green("deleted"), md.PathDisplay)
			return nil
		},
	}
}

func newMkdirCmd() *cobra.Command {
	var autoRename bool

	cmd := &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			md, err := c.Files.CreateFolder(cmd.Context(), args[0], autoRename)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", green("created"), md.PathDisplay)
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoRename, "autorename", false, "rename on conflict instead of failing")
	return cmd
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv FROM TO",
		Short: "Move or rename a file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			md, err := c.Files.Move(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", green("moved to"), md.PathDisplay)
			return nil
		},
	}
}

func newCpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp FROM TO",
		Short: "Copy a file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			md, err := c.Files.Copy(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", green("copied to"), md.PathDisplay)
			return nil
		},
	}
}
