package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the stored IdP identity and last authentication time",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		email, password, err := store.Login()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read store: %v\n", err)
			os.Exit(1)
		}
		authTime, err := store.AuthTime()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read store: %v\n", err)
			os.Exit(1)
		}

		if email == "" {
			email = "<not stored>"
		}
		passwordDesc := "<not stored>"
		if password != "" {
			passwordDesc = "******** (hidden)"
		}
		lastAuth := "<never>"
		if !authTime.IsZero() {
			lastAuth = authTime.Local().Format("2006-01-02 15:04:05 MST")
		}

		fmt.Printf("IdP email:           %s\n", email)
		fmt.Printf("IdP password:        %s\n", passwordDesc)
		fmt.Printf("Last authentication: %s\n", lastAuth)
	},
}
