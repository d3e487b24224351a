package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rotateAll bool

func init() {
	rotateCmd.Flags().BoolVar(&rotateAll, "all", false, "Rotate sessions for every stored profile")
	rootCmd.AddCommand(rotateCmd)
}

var rotateCmd = &cobra.Command{
	Use:   "rotate [profile]",
	Short: "Force-refresh the temporary session for one or all profiles",
	Long:  `Discard the cached session and mint a fresh one through the IdP. With --all, the IdP login runs once and is reused for every profile.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		broker := newBroker(store, regionFlag)
		ctx := context.Background()

		if rotateAll {
			profiles, err := store.Profiles()
			if err != nil {
				fmt.Fprintf(os.Stderr, "❌ Failed to read store: %v\n", err)
				os.Exit(1)
			}
			if len(profiles) == 0 {
				fmt.Println("📭 No profiles found. Use \"fedctl add <profile>\" to store one.")
				return
			}

			rotated, err := broker.RotateAll(ctx)
			for name, sess := range rotated {
				fmt.Printf("✅ Session for %s rotated; valid until %s.\n",
					name, sess.ExpiresAt.Local().Format("2006-01-02 15:04:05 MST"))
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "❌ %v\n", err)
				os.Exit(1)
			}
			return
		}

		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "❌ Provide a profile name or --all.")
			os.Exit(1)
		}

		sess, err := broker.Rotate(ctx, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Session for %s rotated; valid until %s.\n",
			args[0], sess.ExpiresAt.Local().Format("2006-01-02 15:04:05 MST"))
	},
}
