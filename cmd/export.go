package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <profile>",
	Short: "Print shell export statements for a profile's session",
	Long:  `Print export statements for a profile's temporary credentials, suitable for eval: eval "$(fedctl export myprofile)".`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		broker := newBroker(store, regionFlag)
		sess, err := broker.EnsureSession(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("export AWS_ACCESS_KEY_ID=%s\n", sess.AccessKeyID)
		fmt.Printf("export AWS_SECRET_ACCESS_KEY=%s\n", sess.SecretAccessKey)
		fmt.Printf("export AWS_SECURITY_TOKEN=%s\n", sess.SessionToken)
		fmt.Printf("export AWS_SESSION_TOKEN=%s\n", sess.SessionToken)
	},
}
