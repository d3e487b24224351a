package cmd

import (
	"fmt"

	"github.com/chukul/fedctl/internal"
	"github.com/chukul/fedctl/internal/ui"
	"github.com/spf13/cobra"
)

type releaseInfo struct {
	version string
	url     string
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fedctl version %s\n", internal.CurrentVersion)

		// Force check for updates
		res, err := ui.Spin("Checking for updates...", func() (any, error) {
			v, u, err := internal.FetchLatestVersion()
			return releaseInfo{version: v, url: u}, err
		})
		if err != nil {
			fmt.Printf("Unable to check for updates: %v\n", err)
			return
		}
		latest, url := res.(releaseInfo).version, res.(releaseInfo).url

		if internal.IsNewer(latest, internal.CurrentVersion) {
			fmt.Printf("\n💡 Update available: %s → %s\n", internal.CurrentVersion, latest)
			fmt.Printf("   Download: %s\n", url)
		} else {
			fmt.Println("✅ You're running the latest version")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
