package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/chukul/fedctl/internal"
	"github.com/chukul/fedctl/internal/ui"
	"github.com/spf13/cobra"
)

const ssoURLPrefix = "https://sso.jumpcloud.com/saml2/"

var (
	addChainRole  string
	addExternalID string
)

func init() {
	addCmd.Flags().StringVar(&addChainRole, "chain-role", "", "Second-hop role to assume after federation (role ARN or bare role name)")
	addCmd.Flags().StringVar(&addExternalID, "external-id", "", "External id to present when assuming the chained role")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <profile>",
	Short: "Add a new profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]

		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		existing, err := store.Profile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read store: %v\n", err)
			os.Exit(1)
		}
		if existing != nil {
			fmt.Fprintf(os.Stderr, "❌ Profile %s already exists.\n", name)
			fmt.Fprintln(os.Stderr, "   Remove it and add it again to change its settings.")
			os.Exit(1)
		}

		ssoURL, err := ui.GetInput(fmt.Sprintf("SSO URL for %s", name), ssoURLPrefix+"...", false)
		if err != nil {
			fmt.Fprintln(os.Stderr, "❌ Cancelled.")
			os.Exit(1)
		}
		ssoURL = strings.TrimSpace(ssoURL)
		if !strings.HasPrefix(ssoURL, ssoURLPrefix) {
			fmt.Fprintf(os.Stderr, "❌ That's not a valid SSO URL. SSO URLs must start with %s\n", ssoURLPrefix)
			os.Exit(1)
		}

		profile := &internal.Profile{Name: name, SSOURL: ssoURL}
		if addChainRole != "" {
			chained, err := internal.ParseChainedRole(addChainRole, addExternalID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "❌ %v\n", err)
				os.Exit(1)
			}
			profile.ChainedRole = chained
		} else if addExternalID != "" {
			fmt.Fprintln(os.Stderr, "❌ --external-id requires --chain-role.")
			os.Exit(1)
		}

		if err := store.PutProfile(profile); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to save profile: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Profile %s added.\n", name)
	},
}
