package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles and their cached sessions",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		profiles, err := store.Profiles()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read store: %v\n", err)
			os.Exit(1)
		}
		if len(profiles) == 0 {
			fmt.Println("📭 No profiles found. Use \"fedctl add <profile>\" to store one.")
			return
		}

		sessions, err := store.Sessions()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read store: %v\n", err)
			os.Exit(1)
		}

		names := make([]string, 0, len(profiles))
		for name := range profiles {
			names = append(names, name)
		}
		sort.Strings(names)

		header := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%-20s %-25s %-30s %-25s\n",
			header("PROFILE"), header("AWS ACCOUNT"), header("AWS ROLE"), header("SESSION EXPIRES"))
		fmt.Println(strings.Repeat("-", 100))

		active := color.New(color.FgGreen).SprintFunc()
		for _, name := range names {
			p := profiles[name]
			role := p.AWSRole
			if role == "" {
				role = "<unknown>"
			}
			expires := "<no active session>"
			if sess, ok := sessions[name]; ok {
				expires = active(sess.ExpiresAt.Local().Format("2006-01-02 15:04:05 MST"))
			}
			fmt.Printf("%-20s %-25s %-30s %-25s\n", name, p.AccountLabel(), role, expires)
		}
	},
}
