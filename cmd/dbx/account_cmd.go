package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newTeamCmd())
}

func newAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "account",
		Aliases: []string{"whoami"},
		Short:   "Show the authenticated account and its space usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			acct, err := c.Users.GetCurrentAccount(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("%s %s <%s>\n", cyan(acct.Name.DisplayName), gray(acct.AccountID), acct.Email)
			fmt.Printf("  type: %s  country: %s  verified: %v\n", acct.AccountType.Tag, acct.Country, acct.EmailVerified)
			if acct.TeamMemberID != "" {
				fmt.Printf("  team member: %s\n", acct.TeamMemberID)
			}

			usage, err := c.Users.GetSpaceUsage(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("  space: %s of %s used\n",
				humanize.IBytes(usage.Used), humanize.IBytes(usage.Allocation.Allocated))
			return nil
		},
	}
}

func newTeamCmd() *cobra.Command {
	var members bool
	var limit uint32

	cmd := &cobra.Command{
		Use:   "team",
		Short: "Show team information (team tokens only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			info, err := c.Team.GetInfo(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", cyan(info.Name), gray(info.TeamID))
			fmt.Printf("  licensed: %d  provisioned: %d\n", info.NumLicensedUsers, info.NumProvisionedUsers)

			if !members {
				return nil
			}

			page, err := c.Team.MembersList(cmd.Context(), limit, false)
			for {
				if err != nil {
					return err
				}
				for _, m := range page.Members {
					role := ""
					if m.Role != nil {
						role = m.Role.Tag
					}
					fmt.Printf("  %-30s %-12s %s\n", m.Profile.Email, m.Profile.Status.Tag, role)
				}
				if !page.HasMore {
					return nil
				}
				page, err = c.Team.MembersListContinue(cmd.Context(), page.Cursor)
			}
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().BoolVarP(&members, "members", "m", false, "list team members")
	cmd.Flags().Uint32Var(&limit, "limit", 100, "members per page")

	return cmd
}
