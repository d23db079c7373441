package main

import (
	"fmt"
	"time"

	"github.com/dbxkit/dropbox"
	"github.com/spf13/cobra"
)

func init() {
	linkCmd := &cobra.Command{
		Use:   "link",
		Short: "Manage shared links",
	}
	linkCmd.AddCommand(newLinkCreateCmd())
	linkCmd.AddCommand(newLinkListCmd())
	linkCmd.AddCommand(newLinkRevokeCmd())
	rootCmd.AddCommand(linkCmd)
}

func newLinkCreateCmd() *cobra.Command {
	var password string
	var expiresIn time.Duration

	cmd := &cobra.Command{
		Use:   "create PATH",
		Short: "Create a shared link for a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			settings := &dropbox.SharedLinkSettings{}
			if password != "" {
				settings.RequestedVisibility = "password"
				settings.LinkPassword = password
			}
			if expiresIn > 0 {
				t := time.Now().Add(expiresIn).UTC().Truncate(time.Second)
				settings.Expires = &t
			}

			link, err := c.Sharing.CreateSharedLink(cmd.Context(), args[0], settings)
			if err != nil {
				return err
			}
			fmt.Println(link.URL)
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&password, "password", "", "protect the link with a password")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "expire the link after this duration")

	return cmd
}

func newLinkListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [PATH]",
		Short: "List shared links, optionally scoped to a path",
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

			res, err := c.Sharing.ListSharedLinks(cmd.Context(), path)
			for {
				if err != nil {
					return err
				}
				for _, l := range res.Links {
					expires := ""
					if l.Expires != nil {
						expires = gray(" expires " + l.Expires.Format("2006-01-02"))
					}
					fmt.Printf("%s  %s%s\n", l.URL, cyan(l.PathLower), expires)
				}
				if !res.HasMore {
					return nil
				}
				res, err = c.Sharing.ListSharedLinksContinue(cmd.Context(), res.Cursor)
			}
		},
	}
}

func newLinkRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke URL",
		Short: "Revoke a shared link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.Sharing.RevokeSharedLink(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(green("link revoked"))
			return nil
		},
	}
}
