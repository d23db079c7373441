package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/dbxkit/dropbox"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Dropbox credentials",
	}
	authCmd.AddCommand(newAuthLoginCmd())
	authCmd.AddCommand(newAuthRefreshCmd())
	authCmd.AddCommand(newAuthRevokeCmd())
	rootCmd.AddCommand(authCmd)
}

func newAuthLoginCmd() *cobra.Command {
	var scopes []string
	var redirectURI string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize dbx against a Dropbox app via PKCE",
		RunE: func(cmd *cobra.Command, args []string) error {
			appKey := viper.GetString("app_key")
			if appKey == "" {
				return fmt.Errorf("no app key, pass --app-key or set DBX_APP_KEY")
			}

			session := dropbox.NewSession(&dropbox.Config{
				AppKey:       appKey,
				AppSecret:    viper.GetString("app_secret"),
				AuthorizeURL: viper.GetString("authorize_url"),
				TokenURL:     viper.GetString("token_url"),
			})

			pkce, err := dropbox.NewPKCE()
			if err != nil {
				return err
			}
			state := dropbox.GenerateState()

			authURL, err := session.AuthURL(&dropbox.AuthURLOptions{
				RedirectURI:     redirectURI,
				State:           state,
				Scopes:          scopes,
				TokenAccessType: dropbox.TokenAccessTypeOffline,
				PKCE:            pkce,
			})
			if err != nil {
				return err
			}

			fmt.Println("Open this URL in your browser and approve the app:")
			fmt.Println()
			fmt.Printf("  %s\n", cyan(authURL))
			fmt.Println()
			fmt.Print("Paste the authorization code here: ")

			code, err := readLine(cmd)
			if err != nil {
				return err
			}
			if code == "" {
				return fmt.Errorf("no authorization code entered")
			}

			tok, err := session.ExchangeCode(cmd.Context(), code, redirectURI, pkce)
			if err != nil {
				return err
			}

			viper.Set("app_key", appKey)
			if err := persistToken(tok); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}

			fmt.Printf("%s account %s\n", green("Logged in:"), tok.AccountID)
			if claims, err := tok.IDTokenClaims(); err == nil && claims.Email != "" {
				fmt.Printf("%s %s\n", gray("email:"), claims.Email)
			}
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "scopes to request, empty for all the app allows")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "registered redirect URI, empty shows the code in the browser")

	return cmd
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a token refresh and persist the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			tok, err := c.Session.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if err := persistToken(tok); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}
			fmt.Printf("%s expires %s\n", green("Token refreshed,"), tok.Expiry.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newAuthRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke",
		Short: "Revoke the stored token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.RevokeToken(cmd.Context()); err != nil {
				return err
			}
			viper.Set("access_token", "")
			viper.Set("refresh_token", "")
			viper.Set("token_expiry", "")
			if path := viper.ConfigFileUsed(); path != "" {
				if err := viper.WriteConfigAs(path); err != nil {
					return fmt.Errorf("clear credentials: %w", err)
				}
			}
			fmt.Println(green("Token revoked"))
			return nil
		},
	}
}

func readLine(cmd *cobra.Command) (string, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
