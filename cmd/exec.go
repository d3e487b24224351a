package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(execCmd)
}

var execCmd = &cobra.Command{
	Use:   "exec <profile> -- <command> [args...]",
	Short: "Run a command with temporary AWS credentials in its environment",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		profileName := args[0]
		command := args[1:]

		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		broker := newBroker(store, regionFlag)
		sess, err := broker.EnsureSession(context.Background(), profileName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		path, err := exec.LookPath(command[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: command not found\n", command[0])
			os.Exit(127)
		}

		child := exec.Command(path, command[1:]...)
		child.Stdin = os.Stdin
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		child.Env = append(os.Environ(),
			"AWS_ACCESS_KEY_ID="+sess.AccessKeyID,
			"AWS_SECRET_ACCESS_KEY="+sess.SecretAccessKey,
			// Older SDKs read AWS_SECURITY_TOKEN, current ones AWS_SESSION_TOKEN.
			"AWS_SECURITY_TOKEN="+sess.SessionToken,
			"AWS_SESSION_TOKEN="+sess.SessionToken,
		)

		if err := child.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				os.Exit(exitErr.ExitCode())
			}
			fmt.Fprintf(os.Stderr, "❌ Failed to run %s: %v\n", command[0], err)
			os.Exit(1)
		}
	},
}
