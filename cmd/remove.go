package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var removeAll bool

func init() {
	removeCmd.Flags().BoolVar(&removeAll, "all", false, "Remove every profile, session and the stored IdP login")
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:     "remove [profile]",
	Aliases: []string{"rm"},
	Short:   "Remove a profile and its cached session",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		if removeAll {
			fmt.Print("⚠️  This removes all profiles, sessions and your stored IdP login. Type 'yes' to confirm: ")
			reader := bufio.NewReader(os.Stdin)
			input, _ := reader.ReadString('\n')
			if strings.TrimSpace(input) != "yes" {
				fmt.Println("❌ Operation cancelled.")
				return
			}
			if err := store.DeleteAll(); err != nil {
				fmt.Fprintf(os.Stderr, "❌ Failed to clear store: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("✅ All profiles, sessions and login details removed from secure storage.")
			return
		}

		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "❌ Provide a profile name or --all.")
			os.Exit(1)
		}
		name := args[0]

		profile, err := store.Profile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read store: %v\n", err)
			os.Exit(1)
		}
		if profile == nil {
			fmt.Printf("Profile %s not found, nothing to do.\n", name)
			return
		}

		sess, err := store.Session(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read store: %v\n", err)
			os.Exit(1)
		}

		if err := store.DeleteSession(name); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to remove session: %v\n", err)
			os.Exit(1)
		}
		if err := store.DeleteProfile(name); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to remove profile: %v\n", err)
			os.Exit(1)
		}

		if sess != nil {
			fmt.Printf("✅ Profile %s and its temporary session removed.\n", name)
		} else {
			fmt.Printf("✅ Profile %s removed.\n", name)
		}
	},
}
